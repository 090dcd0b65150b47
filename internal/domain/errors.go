package domain

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrSessionFull      = errors.New("session is full")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrPendingNotFound  = errors.New("pending request not found")
	ErrApprovalFailed   = errors.New("approval failed")
	ErrPeerUnavailable  = errors.New("peer unavailable")
	ErrInjectionFailure = errors.New("input injection failed")
	ErrCaptureFailure   = errors.New("frame capture failed")
	ErrTooManyAttempts  = errors.New("too many attempts")
	ErrConnNotFound     = errors.New("connection not found")
)
