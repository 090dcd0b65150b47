package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn   core.SignalConnection
	Meta   domain.ConnMeta
	Cancel context.CancelFunc
}

// Registry owns every live transport handle. Nothing else keeps a
// SignalConnection, so a removed id turns sends into errors instead of
// writes to a dead socket.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*connEntry),
	}
}

// Register stores an accepted transport under a fresh id. cancel may be nil.
func (r *Registry) Register(conn core.SignalConnection, meta domain.ConnMeta, cancel context.CancelFunc) domain.ConnID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := domain.NewConnID()
	for {
		if _, taken := r.conns[id]; !taken {
			break
		}
		id = domain.NewConnID()
	}
	r.conns[id] = &connEntry{Conn: conn, Meta: meta, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("remote", meta.RemoteAddr).Msg("registered connection")
	return id
}

// Send serializes msg and queues it for id.
func (r *Registry) Send(id domain.ConnID, msg protocol.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("type", string(msg.Type)).Msg("marshal")
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	if err := r.SendFrame(id, b); err != nil {
		log.Warn().Err(err).Str("module", "app.registry").Str("conn", string(id)).Str("type", string(msg.Type)).Msg("send failed")
		return err
	}
	if msg.Type != protocol.TypeScreenFrame {
		log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("type", string(msg.Type)).Msg("sent")
	}
	return nil
}

// SendFrame queues an already serialized message.
func (r *Registry) SendFrame(id domain.ConnID, f core.Frame) error {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrConnNotFound, id)
	}
	return e.Conn.TrySend(f)
}

func (r *Registry) Meta(id domain.ConnID) (domain.ConnMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Meta, true
	}
	return domain.ConnMeta{}, false
}

// Remove drops the entry. It does not close the transport; the adapter does.
func (r *Registry) Remove(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("removed connection")
}

// Cancel asks the adapter to tear the connection down.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) IDs() []domain.ConnID {
	r.mu.RLock()
	out := make([]domain.ConnID, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
