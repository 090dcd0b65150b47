package input

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type call struct {
	Op     string
	X, Y   int
	Button core.Button
	N      int
	Keys   []string
}

type recorder struct {
	calls []call
	err   error
}

func (r *recorder) Move(_ context.Context, x, y int) error {
	r.calls = append(r.calls, call{Op: "move", X: x, Y: y})
	return r.err
}

func (r *recorder) ButtonDown(_ context.Context, b core.Button) error {
	r.calls = append(r.calls, call{Op: "down", Button: b})
	return r.err
}

func (r *recorder) ButtonUp(_ context.Context, b core.Button) error {
	r.calls = append(r.calls, call{Op: "up", Button: b})
	return r.err
}

func (r *recorder) Click(_ context.Context, x, y int, b core.Button, n int) error {
	r.calls = append(r.calls, call{Op: "click", X: x, Y: y, Button: b, N: n})
	return r.err
}

func (r *recorder) Scroll(_ context.Context, x, y, n int) error {
	r.calls = append(r.calls, call{Op: "scroll", X: x, Y: y, N: n})
	return r.err
}

func (r *recorder) Chord(_ context.Context, keys []string) error {
	r.calls = append(r.calls, call{Op: "chord", Keys: keys})
	return r.err
}

type fixedGeometry core.Geometry

func (g fixedGeometry) Geometry() core.Geometry { return core.Geometry(g) }

var halfHD = fixedGeometry{ScreenWidth: 1920, ScreenHeight: 1080, CanvasWidth: 960, CanvasHeight: 540, Scale: 0.5}

func TestMapAxis(t *testing.T) {
	tests := []struct {
		c, canvas, screen, want int
	}{
		{0, 960, 1920, 0},
		{480, 960, 1920, 960},
		{959, 960, 1920, 1919},
		{5000, 960, 1920, 1919},
		{-10, 960, 1920, 0},
		{100, 1344, 1920, 143},
		{10, 0, 1920, 10},
		{10, 960, 0, 0},
	}
	for _, tt := range tests {
		if got := MapAxis(tt.c, tt.canvas, tt.screen); got != tt.want {
			t.Errorf("MapAxis(%d, %d, %d) = %d, want %d", tt.c, tt.canvas, tt.screen, got, tt.want)
		}
	}
}

func TestMappingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("mapped coordinates stay on screen", prop.ForAll(
		func(c, canvas, screen int) bool {
			v := MapAxis(c, canvas, screen)
			return v >= 0 && v <= screen-1
		},
		gen.IntRange(-5000, 10000),
		gen.IntRange(1, 4000),
		gen.IntRange(1, 8000),
	))

	properties.Property("canvas edges land on screen edges", prop.ForAll(
		func(canvas, screen int) bool {
			return MapAxis(0, canvas, screen) == 0 && MapAxis(canvas-1, canvas, screen) == screen-1
		},
		gen.IntRange(2, 4000),
		gen.IntRange(1, 8000),
	))

	properties.Property("mapping is monotonic", prop.ForAll(
		func(a, b, canvas, screen int) bool {
			if a > b {
				a, b = b, a
			}
			return MapAxis(a, canvas, screen) <= MapAxis(b, canvas, screen)
		},
		gen.IntRange(0, 4000),
		gen.IntRange(0, 4000),
		gen.IntRange(1, 4000),
		gen.IntRange(1, 8000),
	))

	properties.TestingRun(t)
}

func TestExecutePointer(t *testing.T) {
	tests := []struct {
		name string
		ev   protocol.MouseEvent
		want []call
	}{
		{"move", protocol.MouseEvent{X: 480, Y: 270, Action: "mousemove"}, []call{{Op: "move", X: 960, Y: 540}}},
		{"down right", protocol.MouseEvent{X: 0, Y: 0, Action: "mousedown", Button: "right"}, []call{{Op: "move"}, {Op: "down", Button: core.ButtonRight}}},
		{"up default left", protocol.MouseEvent{X: 0, Y: 0, Action: "mouseup", Button: "bogus"}, []call{{Op: "up", Button: core.ButtonLeft}}},
		{"click", protocol.MouseEvent{X: 959, Y: 539, Action: "click"}, []call{{Op: "click", X: 1919, Y: 1079, Button: core.ButtonLeft, N: 1}}},
		{"doubleclick is always left", protocol.MouseEvent{X: 1, Y: 1, Action: "doubleclick", Button: "middle"}, []call{{Op: "click", X: 2, Y: 2, Button: core.ButtonLeft, N: 2}}},
		{"wheel down", protocol.MouseEvent{X: 0, Y: 0, Action: "wheel", DeltaY: 240}, []call{{Op: "scroll", N: -2}}},
		{"wheel up", protocol.MouseEvent{X: 0, Y: 0, Action: "wheel", DeltaY: -120}, []call{{Op: "scroll", N: 1}}},
		{"tiny wheel", protocol.MouseEvent{X: 0, Y: 0, Action: "wheel", DeltaY: 50}, nil},
		{"unknown action", protocol.MouseEvent{X: 0, Y: 0, Action: "hover"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			e := NewExecutor(rec, halfHD)
			if err := e.ExecutePointer(context.Background(), tt.ev); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(rec.calls, tt.want) {
				t.Fatalf("calls = %+v, want %+v", rec.calls, tt.want)
			}
		})
	}
}

func TestExecuteKey(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(rec, halfHD)
	ctx := context.Background()

	if err := e.ExecuteKey(ctx, protocol.KeyEvent{Key: "c", Action: "keyup"}); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Fatal("keyup must not act")
	}

	mods := protocol.Modifiers{Ctrl: true, Shift: true, Alt: true, Meta: true}
	if err := e.ExecuteKey(ctx, protocol.KeyEvent{Key: "ArrowLeft", Action: "keydown", Modifiers: mods}); err != nil {
		t.Fatal(err)
	}
	want := []string{"ctrl", "shift", "alt", "win", "left"}
	if len(rec.calls) != 1 || !reflect.DeepEqual(rec.calls[0].Keys, want) {
		t.Fatalf("calls = %+v", rec.calls)
	}
}

func TestInjectionFailureIsWrapped(t *testing.T) {
	rec := &recorder{err: errors.New("no display")}
	e := NewExecutor(rec, halfHD)
	err := e.ExecutePointer(context.Background(), protocol.MouseEvent{Action: "click"})
	if !errors.Is(err, domain.ErrInjectionFailure) {
		t.Fatalf("pointer: %v", err)
	}
	err = e.ExecuteKey(context.Background(), protocol.KeyEvent{Key: "a", Action: "keydown"})
	if !errors.Is(err, domain.ErrInjectionFailure) {
		t.Fatalf("key: %v", err)
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Enter": "enter", "Escape": "esc", " ": "space", "F11": "f11",
		"PageDown": "pagedown", "A": "a", "é": "é", "Shift": "shift",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
