package inject

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dkeye/RemoteDesk/internal/core"
)

func recording(calls *[]string, err error) Runner {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, name+" "+strings.Join(args, " "))
		return err
	}
}

func TestXdotoolCommands(t *testing.T) {
	var calls []string
	x := NewXdotool("").WithRunner(recording(&calls, nil))
	ctx := context.Background()

	_ = x.Move(ctx, 10, 20)
	_ = x.ButtonDown(ctx, core.ButtonRight)
	_ = x.ButtonUp(ctx, core.ButtonMiddle)
	_ = x.Click(ctx, 1, 2, core.ButtonLeft, 2)
	_ = x.Scroll(ctx, 3, 4, -3)
	_ = x.Scroll(ctx, 3, 4, 2)
	_ = x.Scroll(ctx, 3, 4, 0)
	_ = x.Chord(ctx, []string{"ctrl", "shift", "esc"})
	_ = x.Chord(ctx, []string{"win", "f4"})

	want := []string{
		"xdotool mousemove 10 20",
		"xdotool mousedown 3",
		"xdotool mouseup 2",
		"xdotool mousemove 1 2 click --repeat 2 1",
		"xdotool mousemove 3 4 click --repeat 3 5",
		"xdotool mousemove 3 4 click --repeat 2 4",
		"xdotool key --clearmodifiers ctrl+shift+Escape",
		"xdotool key --clearmodifiers super+F4",
	}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls:\n%s\nwant:\n%s", strings.Join(calls, "\n"), strings.Join(want, "\n"))
	}
}

func TestXdotoolPropagatesErrors(t *testing.T) {
	var calls []string
	boom := errors.New("no display")
	x := NewXdotool("xdt").WithRunner(recording(&calls, boom))
	if err := x.Move(context.Background(), 0, 0); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if calls[0] != "xdt mousemove 0 0" {
		t.Fatalf("binary not used: %v", calls)
	}
}

func TestKeysym(t *testing.T) {
	cases := map[string]string{"enter": "Return", "pagedown": "Next", "f12": "F12", "fn": "fn", "a": "a", "+": "plus"}
	for in, want := range cases {
		if got := Keysym(in); got != want {
			t.Errorf("Keysym(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHeadlessTracksPointer(t *testing.T) {
	h := NewHeadless()
	ctx := context.Background()
	_ = h.Move(ctx, 5, 6)
	_ = h.Click(ctx, 7, 8, core.ButtonLeft, 1)
	_ = h.Chord(ctx, []string{"a"})
	if x, y := h.Position(); x != 7 || y != 8 {
		t.Fatalf("position = %d,%d", x, y)
	}
	if h.Actions() != 3 {
		t.Fatalf("actions = %d", h.Actions())
	}
}
