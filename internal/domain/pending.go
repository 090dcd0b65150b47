package domain

import "time"

// PendingRequest is a join attempt waiting for the host's decision.
// Host is copied from the session when the request is created.
type PendingRequest struct {
	ID         PendingID         `json:"pending_id"`
	Session    SessionID         `json:"session_id"`
	Client     ConnID            `json:"client_id"`
	Host       ConnID            `json:"host_id"`
	ClientInfo map[string]string `json:"client_info"`
	CreatedAt  time.Time         `json:"created_at"`
}
