// Package stream runs one screen-frame loop per sharing host.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/RemoteDesk/internal/app"
	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/rs/zerolog/log"
)

// Sender delivers serialized frames. *app.Registry satisfies it.
type Sender interface {
	SendFrame(id domain.ConnID, f core.Frame) error
	Cancel(id domain.ConnID) bool
}

// Viewers resolves who watches a host. *app.SessionStore satisfies it.
type Viewers interface {
	ClientOf(host domain.ConnID) (domain.ConnID, bool)
}

const (
	DefaultErrorPause = time.Second
	logEvery          = 30
)

type Manager struct {
	src     core.FrameSource
	sender  Sender
	viewers Viewers
	policy  app.Policy

	// ErrorPause is how long a loop waits after a failed capture.
	ErrorPause time.Duration

	mu    sync.RWMutex
	loops map[domain.ConnID]*loop
}

func NewManager(src core.FrameSource, sender Sender, viewers Viewers, policy app.Policy) *Manager {
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	return &Manager{
		src:        src,
		sender:     sender,
		viewers:    viewers,
		policy:     policy,
		ErrorPause: DefaultErrorPause,
		loops:      make(map[domain.ConnID]*loop),
	}
}

// Start replaces any loop of host with a new one emitting fps frames per second.
func (m *Manager) Start(ctx context.Context, host domain.ConnID, fps int) {
	if fps <= 0 {
		fps = 1
	}
	logger := log.With().
		Str("module", "stream").
		Str("host", string(host)).
		Logger()

	loopCtx, cancel := context.WithCancel(ctx)
	l := &loop{
		m:      m,
		host:   host,
		fps:    fps,
		period: time.Second / time.Duration(fps),
		cancel: cancel,
		done:   make(chan struct{}),
		logger: logger,
	}

	m.mu.Lock()
	if old, ok := m.loops[host]; ok {
		logger.Info().Msg("replacing existing stream loop")
		old.cancel()
	}
	m.loops[host] = l
	m.mu.Unlock()

	logger.Info().Int("fps", fps).Msg("starting stream loop")
	go l.run(loopCtx)
}

// Stop cancels the loop of host. It reports whether one was running.
func (m *Manager) Stop(host domain.ConnID) bool {
	m.mu.Lock()
	l, ok := m.loops[host]
	if ok {
		delete(m.loops, host)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	l.cancel()
	log.Info().Str("module", "stream").Str("host", string(host)).Msg("stream loop stopped")
	return true
}

// StopAll cancels every loop and waits for them to exit.
func (m *Manager) StopAll() {
	m.mu.Lock()
	loops := m.loops
	m.loops = make(map[domain.ConnID]*loop)
	m.mu.Unlock()
	for _, l := range loops {
		l.cancel()
	}
	for _, l := range loops {
		<-l.done
	}
}

// FPS reports the frame rate of host's running loop.
func (m *Manager) FPS(host domain.ConnID) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loops[host]
	if !ok {
		return 0, false
	}
	return l.fps, true
}

// Forget drops whatever the policy still tracks for a closed connection.
func (m *Manager) Forget(id domain.ConnID) {
	m.policy.Forget(id)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loops)
}

// detach removes l if it is still the registered loop of its host.
func (m *Manager) detach(l *loop) {
	m.mu.Lock()
	if cur, ok := m.loops[l.host]; ok && cur == l {
		delete(m.loops, l.host)
	}
	m.mu.Unlock()
}
