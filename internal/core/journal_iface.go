package core

import (
	"context"
	"time"

	"github.com/dkeye/RemoteDesk/internal/domain"
)

type EventKind string

const (
	EventSessionCreated EventKind = "session_created"
	EventJoinRequested  EventKind = "join_requested"
	EventJoinApproved   EventKind = "join_approved"
	EventJoinRejected   EventKind = "join_rejected"
	EventClientLeft     EventKind = "client_left"
	EventClientKicked   EventKind = "client_kicked"
	EventSessionClosed  EventKind = "session_closed"
)

// Event is one audit line about a session lifecycle transition.
type Event struct {
	At      time.Time        `json:"at"`
	Kind    EventKind        `json:"kind"`
	Session domain.SessionID `json:"session_id,omitempty"`
	Conn    domain.ConnID    `json:"conn_id,omitempty"`
	Detail  string           `json:"detail,omitempty"`
}

// Journal records session events. It is write-mostly and never used to
// restore state.
type Journal interface {
	Record(ctx context.Context, ev Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
	Close() error
}

// NopJournal drops everything.
type NopJournal struct{}

func (NopJournal) Record(context.Context, Event) error          { return nil }
func (NopJournal) Recent(context.Context, int) ([]Event, error) { return nil, nil }
func (NopJournal) Close() error                                 { return nil }
