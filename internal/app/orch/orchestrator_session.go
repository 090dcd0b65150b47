package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	msgJoinRequested = "A client wants to connect to your session"
	msgRequestSent   = "Connection request sent. Waiting for host approval..."
	msgApproved      = "Connection approved! You can now control the remote desktop."
	msgConnected     = "Client connected successfully"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (o *Orchestrator) createSession(ctx context.Context, host domain.ConnID, m protocol.CreateSession) {
	s, err := o.Sessions.CreateSession(host, m.Password)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("conn", string(host)).Msg("create session")
		return
	}
	o.send(host, protocol.TypeSessionCreated, protocol.SessionCreated{
		SessionID: s.ID,
		Password:  optional(m.Password),
	})
	o.record(ctx, core.EventSessionCreated, s.ID, host, "")
}

func (o *Orchestrator) joinFailed(client domain.ConnID, sid domain.SessionID, err error) {
	log.Info().Err(err).Str("module", "orch").Str("conn", string(client)).Str("session", string(sid)).Msg("join refused")
	o.send(client, protocol.TypeSessionJoinResponse, protocol.JoinResponse{
		Success:   false,
		SessionID: sid,
		Error:     wireError(err),
	})
}

// joinSession limits attempts against existing sessions only; an unknown id
// is always answered with SessionNotFound.
func (o *Orchestrator) joinSession(ctx context.Context, client domain.ConnID, m protocol.JoinSession) {
	if _, ok := o.Sessions.Get(m.SessionID); !ok {
		o.joinFailed(client, m.SessionID, domain.ErrSessionNotFound)
		return
	}
	if o.JoinLimiter != nil && !o.JoinLimiter.Allow(client) {
		o.joinFailed(client, m.SessionID, domain.ErrTooManyAttempts)
		return
	}

	p, err := o.Sessions.RequestJoin(m.SessionID, client, m.Password, o.clientInfo(client, m.UserAgent))
	if err != nil {
		o.joinFailed(client, m.SessionID, err)
		return
	}

	o.send(p.Host, protocol.TypeConnectionRequestPending, protocol.RequestPending{
		PendingID:  p.ID,
		SessionID:  p.Session,
		ClientID:   client,
		ClientInfo: p.ClientInfo,
		Message:    msgJoinRequested,
	})
	o.send(client, protocol.TypeConnectionRequestSent, protocol.RequestSent{
		PendingID: p.ID,
		SessionID: p.Session,
		Message:   msgRequestSent,
	})
	o.record(ctx, core.EventJoinRequested, p.Session, client, string(p.ID))
}

func (o *Orchestrator) clientInfo(client domain.ConnID, userAgent string) map[string]string {
	meta, _ := o.Registry.Meta(client)
	if userAgent == "" {
		userAgent = meta.UserAgent
	}
	if userAgent == "" {
		userAgent = "Unknown"
	}
	info := map[string]string{
		"connection_time": time.Now().UTC().Format(time.RFC3339),
		"user_agent":      userAgent,
		"ip_address":      meta.RemoteAddr,
	}
	if meta.Visitor != "" {
		info["visitor"] = meta.Visitor
	}
	return info
}

func (o *Orchestrator) setPassword(requester domain.ConnID, m protocol.SetPassword) {
	err := o.Sessions.SetPassword(m.SessionID, requester, m.Password)
	switch {
	case err == nil:
		o.send(requester, protocol.TypePasswordUpdated, protocol.PasswordUpdated{
			Success:  true,
			Password: optional(m.Password),
		})
	case errors.Is(err, domain.ErrSessionNotFound):
		log.Debug().Str("module", "orch").Str("session", string(m.SessionID)).Msg("set_password: no such session")
	default:
		o.send(requester, protocol.TypePasswordUpdated, protocol.PasswordUpdated{
			Success: false,
			Error:   wireError(err),
		})
	}
}

func (o *Orchestrator) leave(ctx context.Context, client domain.ConnID) {
	s, ok := o.Sessions.Leave(client)
	if !ok {
		return
	}
	o.send(s.Host, protocol.TypeClientDisconnected, protocol.ClientDisconnected{
		ClientID:  client,
		SessionID: s.ID,
	})
	o.record(ctx, core.EventClientLeft, s.ID, client, "")
}

func (o *Orchestrator) kick(ctx context.Context, host domain.ConnID, m protocol.KickClient) {
	client, err := o.Sessions.Kick(m.SessionID, host)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("conn", string(host)).Str("session", string(m.SessionID)).Msg("kick refused")
		return
	}
	msg := protocol.ClientDisconnected{ClientID: client, SessionID: m.SessionID, Kicked: true}
	o.send(client, protocol.TypeClientDisconnected, msg)
	o.send(host, protocol.TypeClientDisconnected, msg)
	o.record(ctx, core.EventClientKicked, m.SessionID, client, "")
}

func (o *Orchestrator) approve(ctx context.Context, host domain.ConnID, m protocol.Approve) {
	p, err := o.Sessions.Approve(m.PendingID, host)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrApprovalFailed):
		log.Warn().Str("module", "orch").Str("pending", string(m.PendingID)).Msg("approval failed")
		o.send(host, protocol.TypeConnectionApprovalFailed, protocol.ErrorPayload{Error: msgApprovalFailed})
		return
	default:
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(host)).Str("pending", string(m.PendingID)).Msg("approve ignored")
		return
	}

	o.send(p.Client, protocol.TypeSessionJoinResponse, protocol.JoinResponse{
		Success:   true,
		SessionID: p.Session,
		Message:   msgApproved,
	})
	o.send(host, protocol.TypeClientConnected, protocol.ClientConnected{
		ClientID:  p.Client,
		SessionID: p.Session,
		Message:   msgConnected,
	})
	o.record(ctx, core.EventJoinApproved, p.Session, p.Client, string(p.ID))
}

func (o *Orchestrator) reject(ctx context.Context, host domain.ConnID, m protocol.Reject) {
	p, err := o.Sessions.Reject(m.PendingID, host)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(host)).Str("pending", string(m.PendingID)).Msg("reject ignored")
		return
	}
	reason := m.Reason
	if reason == "" {
		reason = msgDefaultReject
	}
	o.send(p.Client, protocol.TypeSessionJoinResponse, protocol.JoinResponse{
		Success:   false,
		SessionID: p.Session,
		Error:     reason,
		Rejected:  true,
	})
	o.record(ctx, core.EventJoinRejected, p.Session, p.Client, reason)
}
