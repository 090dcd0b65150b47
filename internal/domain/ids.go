// Package domain contains entity without logic, just meta-data
package domain

import (
	"github.com/google/uuid"
)

const ShortIDLen = 8

type (
	ConnID    string
	SessionID string
	PendingID string
)

// NewConnID returns a process-unique connection identifier.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// NewShortID returns the first ShortIDLen characters of a random UUID.
// Short ids are only unique among live entries; callers must retry on collision.
func NewShortID() string {
	return uuid.NewString()[:ShortIDLen]
}
