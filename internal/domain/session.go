package domain

import "time"

type SessionStatus string

const (
	SessionWaiting   SessionStatus = "waiting"
	SessionConnected SessionStatus = "connected"
)

// Session pairs one host with at most one client.
// PasswordHash is empty when the session is open.
type Session struct {
	ID           SessionID
	Host         ConnID
	Client       ConnID
	PasswordHash []byte
	Status       SessionStatus
	CreatedAt    time.Time
}

func (s *Session) HasClient() bool   { return s.Client != "" }
func (s *Session) HasPassword() bool { return len(s.PasswordHash) > 0 }

// SessionView is a read-only view for APIs (no password material).
type SessionView struct {
	ID          SessionID     `json:"session_id"`
	Host        ConnID        `json:"host_id"`
	Client      ConnID        `json:"client_id,omitempty"`
	Status      SessionStatus `json:"status"`
	HasPassword bool          `json:"has_password"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (s *Session) View() SessionView {
	return SessionView{
		ID:          s.ID,
		Host:        s.Host,
		Client:      s.Client,
		Status:      s.Status,
		HasPassword: s.HasPassword(),
		CreatedAt:   s.CreatedAt,
	}
}
