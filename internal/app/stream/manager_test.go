package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/RemoteDesk/internal/app"
	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
)

type fakeSource struct {
	mu       sync.Mutex
	settings core.CaptureSettings
	fail     atomic.Bool
	captures atomic.Int64
}

func (f *fakeSource) Capture(ctx context.Context) (*core.CapturedFrame, error) {
	f.captures.Add(1)
	if f.fail.Load() {
		return nil, domain.ErrCaptureFailure
	}
	return &core.CapturedFrame{
		MIME:     "image/jpeg",
		Data:     []byte{0xff, 0xd8, 0xff},
		Geometry: f.Geometry(),
	}, nil
}

func (f *fakeSource) Configure(s core.CaptureSettings) {
	f.mu.Lock()
	f.settings = s
	f.mu.Unlock()
}

func (f *fakeSource) Settings() core.CaptureSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeSource) Geometry() core.Geometry {
	s := f.Settings()
	return core.Geometry{
		ScreenWidth: 1920, ScreenHeight: 1080,
		CanvasWidth: int(1920 * s.Scale), CanvasHeight: int(1080 * s.Scale),
		Scale: s.Scale,
	}
}

type fakeSender struct {
	mu       sync.Mutex
	got      map[domain.ConnID]int
	last     map[domain.ConnID]core.Frame
	full     map[domain.ConnID]bool
	canceled []domain.ConnID
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		got:  map[domain.ConnID]int{},
		last: map[domain.ConnID]core.Frame{},
		full: map[domain.ConnID]bool{},
	}
}

func (s *fakeSender) SendFrame(id domain.ConnID, f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full[id] {
		return core.ErrBackpressure
	}
	s.got[id]++
	s.last[id] = f
	return nil
}

func (s *fakeSender) Cancel(id domain.ConnID) bool {
	s.mu.Lock()
	s.canceled = append(s.canceled, id)
	s.mu.Unlock()
	return true
}

func (s *fakeSender) count(id domain.ConnID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.got[id]
}

type fakeViewers map[domain.ConnID]domain.ConnID

func (v fakeViewers) ClientOf(host domain.ConnID) (domain.ConnID, bool) {
	c, ok := v[host]
	return c, ok
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStreamFansOutToHostAndClient(t *testing.T) {
	src := &fakeSource{}
	src.Configure(PresetFor("high").Settings())
	sender := newFakeSender()
	m := NewManager(src, sender, fakeViewers{"H": "C"}, nil)
	defer m.StopAll()

	m.Start(context.Background(), "H", 50)
	waitFor(t, "frames to both parties", func() bool {
		return sender.count("H") >= 3 && sender.count("C") >= 3
	})

	sender.mu.Lock()
	raw := sender.last["C"]
	sender.mu.Unlock()
	var msg struct {
		Type protocol.MessageType `json:"type"`
		Data protocol.Frame       `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != protocol.TypeScreenFrame {
		t.Fatalf("type = %s", msg.Type)
	}
	if !strings.HasPrefix(msg.Data.Frame, "data:image/jpeg;base64,") {
		t.Fatalf("frame = %q", msg.Data.Frame)
	}
	if msg.Data.ActualScreenWidth != 1920 || msg.Data.CanvasWidth != 1920 || msg.Data.ScaleFactor != 1 {
		t.Fatalf("geometry = %+v", msg.Data)
	}
}

func TestStreamLastStartWins(t *testing.T) {
	src := &fakeSource{}
	src.Configure(PresetFor("low").Settings())
	sender := newFakeSender()
	m := NewManager(src, sender, fakeViewers{}, nil)
	defer m.StopAll()

	m.Start(context.Background(), "H", 50)
	m.Start(context.Background(), "H", 50)
	m.Start(context.Background(), "H", 50)
	if fps, ok := m.FPS("H"); m.Count() != 1 || !ok || fps != 50 {
		t.Fatalf("count = %d", m.Count())
	}

	if !m.Stop("H") {
		t.Fatal("stop reported no loop")
	}
	if _, ok := m.FPS("H"); ok || m.Stop("H") {
		t.Fatal("loop still registered")
	}

	time.Sleep(50 * time.Millisecond)
	before := src.captures.Load()
	time.Sleep(100 * time.Millisecond)
	if after := src.captures.Load(); after != before {
		t.Fatalf("captures continued after stop: %d -> %d", before, after)
	}
}

func TestStreamSurvivesCaptureFailure(t *testing.T) {
	src := &fakeSource{}
	src.Configure(PresetFor("medium").Settings())
	src.fail.Store(true)
	sender := newFakeSender()
	m := NewManager(src, sender, fakeViewers{}, nil)
	m.ErrorPause = 10 * time.Millisecond
	defer m.StopAll()

	m.Start(context.Background(), "H", 50)
	waitFor(t, "retries", func() bool { return src.captures.Load() >= 3 })
	if sender.count("H") != 0 {
		t.Fatal("failed capture produced a frame")
	}
	src.fail.Store(false)
	waitFor(t, "recovery", func() bool { return sender.count("H") > 0 })
	if _, ok := m.FPS("H"); !ok {
		t.Fatal("loop ended on capture failure")
	}
}

func TestStreamBackpressurePolicy(t *testing.T) {
	src := &fakeSource{}
	src.Configure(PresetFor("low").Settings())
	sender := newFakeSender()
	sender.full["C"] = true
	m := NewManager(src, sender, fakeViewers{"H": "C"}, app.NewSlowPeerPolicy(2))
	defer m.StopAll()

	m.Start(context.Background(), "H", 100)
	waitFor(t, "slow viewer disconnect", func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return len(sender.canceled) > 0
	})
	sender.mu.Lock()
	if sender.canceled[0] != "C" {
		t.Fatalf("canceled %v", sender.canceled)
	}
	sender.mu.Unlock()
	if sender.count("H") == 0 {
		t.Fatal("host must keep receiving frames")
	}
}

func TestPresets(t *testing.T) {
	low := PresetFor("low")
	if low.Quality != 60 || low.Scale != 0.5 || low.FPS != 10 {
		t.Fatalf("low = %+v", low)
	}
	if p := PresetFor("ultra"); p.Quality != 80 || p.Scale != 0.7 || p.FPS != 15 || p.Label != "ultra" {
		t.Fatalf("unknown label = %+v", p)
	}
	if p := PresetFor(""); p.Label != DefaultQuality {
		t.Fatalf("empty label = %+v", p)
	}
	if PresetFor("high").Settings() != (core.CaptureSettings{Quality: 90, Scale: 1.0}) {
		t.Fatal("high settings")
	}
}

func TestEncodeDefaultsMIME(t *testing.T) {
	b, err := Encode(&core.CapturedFrame{Data: []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"frame":"data:image/jpeg;base64,eA=="`) {
		t.Fatalf("got %s", b)
	}
}
