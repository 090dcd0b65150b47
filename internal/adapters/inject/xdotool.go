package inject

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/rs/zerolog/log"
)

// Runner executes one command. Tests replace it.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Xdotool drives an X11 display through the xdotool binary.
type Xdotool struct {
	Bin string
	run Runner
}

func NewXdotool(bin string) *Xdotool {
	if bin == "" {
		bin = "xdotool"
	}
	return &Xdotool{Bin: bin, run: execRunner}
}

// WithRunner swaps the command runner.
func (x *Xdotool) WithRunner(r Runner) *Xdotool {
	x.run = r
	return x
}

// Available reports whether the binary can be found on PATH.
func (x *Xdotool) Available() bool {
	_, err := exec.LookPath(x.Bin)
	return err == nil
}

func (x *Xdotool) exec(ctx context.Context, args ...string) error {
	log.Debug().Str("module", "inject.xdotool").Strs("args", args).Msg("exec")
	return x.run(ctx, x.Bin, args...)
}

func buttonNumber(b core.Button) string {
	switch b {
	case core.ButtonMiddle:
		return "2"
	case core.ButtonRight:
		return "3"
	}
	return "1"
}

func itoa(v int) string { return strconv.Itoa(v) }

func (x *Xdotool) Move(ctx context.Context, px, py int) error {
	return x.exec(ctx, "mousemove", itoa(px), itoa(py))
}

func (x *Xdotool) ButtonDown(ctx context.Context, b core.Button) error {
	return x.exec(ctx, "mousedown", buttonNumber(b))
}

func (x *Xdotool) ButtonUp(ctx context.Context, b core.Button) error {
	return x.exec(ctx, "mouseup", buttonNumber(b))
}

func (x *Xdotool) Click(ctx context.Context, px, py int, b core.Button, count int) error {
	if count < 1 {
		count = 1
	}
	return x.exec(ctx, "mousemove", itoa(px), itoa(py), "click", "--repeat", itoa(count), buttonNumber(b))
}

// Scroll uses X buttons 4 (up) and 5 (down). Positive clicks scroll up.
func (x *Xdotool) Scroll(ctx context.Context, px, py, clicks int) error {
	if clicks == 0 {
		return nil
	}
	btn := "4"
	if clicks < 0 {
		btn = "5"
		clicks = -clicks
	}
	return x.exec(ctx, "mousemove", itoa(px), itoa(py), "click", "--repeat", itoa(clicks), btn)
}

var keysyms = map[string]string{
	"enter":      "Return",
	"tab":        "Tab",
	"esc":        "Escape",
	"backspace":  "BackSpace",
	"delete":     "Delete",
	"up":         "Up",
	"down":       "Down",
	"left":       "Left",
	"right":      "Right",
	"home":       "Home",
	"end":        "End",
	"pageup":     "Prior",
	"pagedown":   "Next",
	"insert":     "Insert",
	"capslock":   "Caps_Lock",
	"numlock":    "Num_Lock",
	"scrolllock": "Scroll_Lock",
	"space":      "space",
	"win":        "super",
	"+":          "plus",
}

// Keysym maps a normalized key name to an X keysym understood by xdotool.
func Keysym(k string) string {
	if s, ok := keysyms[k]; ok {
		return s
	}
	if len(k) >= 2 && k[0] == 'f' {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 24 {
			return "F" + k[1:]
		}
	}
	return k
}

func (x *Xdotool) Chord(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	syms := make([]string, len(keys))
	for i, k := range keys {
		syms[i] = Keysym(k)
	}
	return x.exec(ctx, "key", "--clearmodifiers", strings.Join(syms, "+"))
}
