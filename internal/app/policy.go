package app

import (
	"sync"

	"github.com/dkeye/RemoteDesk/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	Disconnect
)

func (a BackpressureAction) String() string {
	switch a {
	case DropFrame:
		return "drop_frame"
	case Disconnect:
		return "disconnect"
	}
	return "none"
}

// Policy decides what happens when a frame cannot be queued for a viewer.
type Policy interface {
	OnBackPressure(host, viewer domain.ConnID) BackpressureAction
	// OnDelivered resets whatever the policy tracks for viewer.
	OnDelivered(viewer domain.ConnID)
	// Forget is called once viewer's connection is gone.
	Forget(viewer domain.ConnID)
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.ConnID, domain.ConnID) BackpressureAction {
	return DropFrame
}

func (SimplePolicy) OnDelivered(domain.ConnID) {}
func (SimplePolicy) Forget(domain.ConnID)      {}

// SlowPeerPolicy drops frames until a viewer has missed Limit in a row,
// then asks for its disconnect. Limit <= 0 never disconnects.
type SlowPeerPolicy struct {
	Limit int

	mu      sync.Mutex
	dropped map[domain.ConnID]int
}

func NewSlowPeerPolicy(limit int) *SlowPeerPolicy {
	return &SlowPeerPolicy{Limit: limit, dropped: make(map[domain.ConnID]int)}
}

func (p *SlowPeerPolicy) OnBackPressure(_, viewer domain.ConnID) BackpressureAction {
	if p.Limit <= 0 {
		return DropFrame
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropped[viewer]++
	if p.dropped[viewer] >= p.Limit {
		delete(p.dropped, viewer)
		return Disconnect
	}
	return DropFrame
}

func (p *SlowPeerPolicy) OnDelivered(viewer domain.ConnID) {
	p.mu.Lock()
	delete(p.dropped, viewer)
	p.mu.Unlock()
}

func (p *SlowPeerPolicy) Forget(viewer domain.ConnID) {
	p.OnDelivered(viewer)
}

// Tracked reports how many viewers currently have unforgiven drops.
func (p *SlowPeerPolicy) Tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dropped)
}
