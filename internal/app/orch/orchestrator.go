package orch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/RemoteDesk/internal/app"
	"github.com/dkeye/RemoteDesk/internal/app/input"
	"github.com/dkeye/RemoteDesk/internal/app/stream"
	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator routes decoded messages between hosts and clients.
// Journal, Input, Source and the limiters are optional.
type Orchestrator struct {
	Registry *app.Registry
	Sessions *app.SessionStore
	Streams  *stream.Manager
	Source   core.FrameSource
	Input    *input.Executor
	Journal  core.Journal

	JoinLimiter  *app.AttemptLimiter
	InputLimiter *app.InputLimiter
}

// Connect registers an accepted transport.
func (o *Orchestrator) Connect(conn core.SignalConnection, meta domain.ConnMeta, cancel context.CancelFunc) domain.ConnID {
	return o.Registry.Register(conn, meta, cancel)
}

// Route handles one inbound message from sender. Every failure is reported to
// the sender or dropped; none of them ends the connection.
func (o *Orchestrator) Route(ctx context.Context, sender domain.ConnID, in protocol.Inbound) {
	switch m := in.Body.(type) {
	case protocol.CreateSession:
		o.createSession(ctx, sender, m)
	case protocol.JoinSession:
		o.joinSession(ctx, sender, m)
	case protocol.SetPassword:
		o.setPassword(sender, m)
	case protocol.LeaveSession:
		o.leave(ctx, sender)
	case protocol.KickClient:
		o.kick(ctx, sender, m)
	case protocol.Approve:
		o.approve(ctx, sender, m)
	case protocol.Reject:
		o.reject(ctx, sender, m)
	case protocol.StartSharing:
		o.startSharing(ctx, sender, m)
	case protocol.StopSharing:
		o.stopSharing(sender)
	case protocol.ChangeQuality:
		o.changeQuality(sender, m)
	case protocol.MouseEvent:
		o.pointer(ctx, sender, in.Envelope, m)
	case protocol.KeyEvent:
		o.key(ctx, sender, in.Envelope, m)
	case protocol.Signal:
		log.Debug().
			Str("module", "orch").
			Str("conn", string(sender)).
			Str("type", string(in.Envelope.Type)).
			Int("media_sections", m.MediaSections()).
			Bool("candidate", m.Candidate != nil).
			Msg("signal")
		o.Relay(sender, in.Envelope)
	case protocol.UnknownAction:
		log.Debug().Str("module", "orch").Str("conn", string(sender)).Str("type", string(m.Type)).Str("action", m.Action).Msg("ignored unknown action")
	case protocol.Passive:
	default:
		log.Warn().Str("module", "orch").Str("conn", string(sender)).Str("type", string(in.Envelope.Type)).Msg("unhandled message")
	}
}

// Relay forwards env to the sender's peer with source and target set.
// Type and data are passed through untouched.
func (o *Orchestrator) Relay(sender domain.ConnID, env protocol.Envelope) bool {
	sess, peer, ok := o.Sessions.PeerOf(sender)
	if !ok || peer == "" {
		log.Debug().Str("module", "orch").Str("conn", string(sender)).Str("type", string(env.Type)).Msg("relay: no peer")
		return false
	}
	env.SourceID = sender
	env.TargetID = peer
	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", string(env.Type)).Msg("relay marshal")
		return false
	}
	if err := o.Registry.SendFrame(peer, b); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("session", string(sess.ID)).Str("peer", string(peer)).Msg("relay: peer unavailable")
		return false
	}
	return true
}

// Disconnect stops the connection's stream, tears down everything it was
// part of and tells the surviving parties. Calling it twice is harmless.
func (o *Orchestrator) Disconnect(ctx context.Context, id domain.ConnID) {
	if o.Streams != nil {
		o.Streams.Stop(id)
		o.Streams.Forget(id)
	}
	td := o.Sessions.OnDisconnect(id)

	for _, s := range td.Sessions {
		switch id {
		case s.Host:
			if s.HasClient() {
				o.send(s.Client, protocol.TypeSessionJoinResponse, protocol.JoinResponse{
					Success:   false,
					SessionID: s.ID,
					Error:     msgSessionClosed,
				})
			}
		case s.Client:
			o.send(s.Host, protocol.TypeClientDisconnected, protocol.ClientDisconnected{
				ClientID:  id,
				SessionID: s.ID,
			})
		}
		o.record(ctx, core.EventSessionClosed, s.ID, id, "transport closed")
	}
	for _, p := range td.Pending {
		if p.Host == id {
			o.send(p.Client, protocol.TypeSessionJoinResponse, protocol.JoinResponse{
				Success:   false,
				SessionID: p.Session,
				Error:     msgSessionClosed,
			})
		}
	}

	if o.JoinLimiter != nil {
		o.JoinLimiter.Forget(id)
	}
	if o.InputLimiter != nil {
		o.InputLimiter.Forget(id)
	}
	o.Registry.Remove(id)
	log.Info().
		Str("module", "orch").
		Str("conn", string(id)).
		Int("sessions", len(td.Sessions)).
		Int("pending", len(td.Pending)).
		Msg("connection cleaned up")
}

func (o *Orchestrator) send(to domain.ConnID, t protocol.MessageType, data any) {
	_ = o.Registry.Send(to, protocol.New(t, data))
}

func (o *Orchestrator) record(ctx context.Context, kind core.EventKind, sid domain.SessionID, conn domain.ConnID, detail string) {
	if o.Journal == nil {
		return
	}
	ev := core.Event{Kind: kind, Session: sid, Conn: conn, Detail: detail}
	if err := o.Journal.Record(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("kind", string(kind)).Msg("journal record")
	}
}

// Wire strings for recoverable failures.
const (
	msgSessionNotFound  = "Session not found"
	msgInvalidPassword  = "Invalid password"
	msgSessionFull      = "Session is full"
	msgNotAuthorized    = "Not authorized"
	msgTooManyAttempts  = "Too many attempts, try again later"
	msgApprovalFailed   = "Failed to approve connection"
	msgSessionClosed    = "Session closed"
	msgDefaultReject    = "Connection rejected by host"
	msgCaptureFailure   = "Screen capture unavailable"
	msgInjectionFailure = "Input injection failed"
)

func wireError(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return msgSessionNotFound
	case errors.Is(err, domain.ErrInvalidPassword):
		return msgInvalidPassword
	case errors.Is(err, domain.ErrSessionFull):
		return msgSessionFull
	case errors.Is(err, domain.ErrNotAuthorized):
		return msgNotAuthorized
	case errors.Is(err, domain.ErrTooManyAttempts):
		return msgTooManyAttempts
	case errors.Is(err, domain.ErrApprovalFailed):
		return msgApprovalFailed
	case errors.Is(err, domain.ErrCaptureFailure):
		return msgCaptureFailure
	case errors.Is(err, domain.ErrInjectionFailure):
		return msgInjectionFailure
	}
	return err.Error()
}
