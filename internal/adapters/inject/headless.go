// Package inject holds Injector backends.
package inject

import (
	"context"
	"strings"
	"sync"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/rs/zerolog/log"
)

// Headless accepts every action and only logs it. The last pointer
// position and an action count are kept for tests.
type Headless struct {
	mu   sync.Mutex
	x, y int
	n    int
}

func NewHeadless() *Headless { return &Headless{} }

func (h *Headless) moveTo(x, y int) {
	h.mu.Lock()
	h.x, h.y = x, y
	h.n++
	h.mu.Unlock()
}

func (h *Headless) Position() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.x, h.y
}

// Actions counts performed calls.
func (h *Headless) Actions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

func (h *Headless) bump() {
	h.mu.Lock()
	h.n++
	h.mu.Unlock()
}

func (h *Headless) Move(_ context.Context, x, y int) error {
	h.moveTo(x, y)
	log.Debug().Str("module", "inject.headless").Int("x", x).Int("y", y).Msg("move")
	return nil
}

func (h *Headless) ButtonDown(_ context.Context, b core.Button) error {
	h.bump()
	log.Debug().Str("module", "inject.headless").Str("button", string(b)).Msg("down")
	return nil
}

func (h *Headless) ButtonUp(_ context.Context, b core.Button) error {
	h.bump()
	log.Debug().Str("module", "inject.headless").Str("button", string(b)).Msg("up")
	return nil
}

func (h *Headless) Click(_ context.Context, x, y int, b core.Button, count int) error {
	h.moveTo(x, y)
	log.Debug().Str("module", "inject.headless").Int("x", x).Int("y", y).Str("button", string(b)).Int("count", count).Msg("click")
	return nil
}

func (h *Headless) Scroll(_ context.Context, x, y, clicks int) error {
	h.moveTo(x, y)
	log.Debug().Str("module", "inject.headless").Int("x", x).Int("y", y).Int("clicks", clicks).Msg("scroll")
	return nil
}

func (h *Headless) Chord(_ context.Context, keys []string) error {
	h.bump()
	log.Debug().Str("module", "inject.headless").Str("keys", strings.Join(keys, "+")).Msg("key")
	return nil
}
