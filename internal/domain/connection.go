package domain

import "time"

// ConnMeta is what the transport knows about a peer at accept time.
type ConnMeta struct {
	RemoteAddr  string    `json:"remote_addr"`
	UserAgent   string    `json:"user_agent"`
	Visitor     string    `json:"visitor,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}
