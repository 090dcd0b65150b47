// Package input turns pointer and key events from a client canvas into
// injector calls on the shared screen.
package input

import (
	"context"
	"fmt"
	"math"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
	"github.com/rs/zerolog/log"
)

const wheelStep = 120

// GeometrySource reports the canvas currently emitted. core.FrameSource satisfies it.
type GeometrySource interface {
	Geometry() core.Geometry
}

type Executor struct {
	inj  core.Injector
	geom GeometrySource
}

func NewExecutor(inj core.Injector, geom GeometrySource) *Executor {
	return &Executor{inj: inj, geom: geom}
}

// MapAxis scales a canvas coordinate to the screen and clamps it. The last
// canvas pixel always lands on the last screen pixel.
func MapAxis(c, canvas, screen int) int {
	if screen <= 0 {
		return 0
	}
	if canvas <= 0 {
		return clamp(c, 0, screen-1)
	}
	if c >= canvas-1 {
		return screen - 1
	}
	v := int(math.Round(float64(c) * float64(screen) / float64(canvas)))
	return clamp(v, 0, screen-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Map converts canvas coordinates to screen coordinates using the current geometry.
func (e *Executor) Map(x, y int) (int, int) {
	g := e.geom.Geometry()
	return MapAxis(x, g.CanvasWidth, g.ScreenWidth), MapAxis(y, g.CanvasHeight, g.ScreenHeight)
}

func button(name string) core.Button {
	switch core.Button(name) {
	case core.ButtonRight:
		return core.ButtonRight
	case core.ButtonMiddle:
		return core.ButtonMiddle
	}
	return core.ButtonLeft
}

// ScrollClicks converts a wheel delta to injector clicks. Positive deltaY
// scrolls down, which is a negative click count.
func ScrollClicks(deltaY float64) int {
	return -int(deltaY / wheelStep)
}

func (e *Executor) ExecutePointer(ctx context.Context, ev protocol.MouseEvent) error {
	x, y := e.Map(ev.X, ev.Y)
	b := button(ev.Button)

	var err error
	switch ev.Action {
	case "mousemove":
		err = e.inj.Move(ctx, x, y)
	case "mousedown":
		if err = e.inj.Move(ctx, x, y); err == nil {
			err = e.inj.ButtonDown(ctx, b)
		}
	case "mouseup":
		// Release where the pointer already is.
		err = e.inj.ButtonUp(ctx, b)
	case "click":
		err = e.inj.Click(ctx, x, y, b, 1)
	case "doubleclick":
		err = e.inj.Click(ctx, x, y, core.ButtonLeft, 2)
	case "wheel":
		clicks := ScrollClicks(ev.DeltaY)
		if clicks == 0 {
			return nil
		}
		err = e.inj.Scroll(ctx, x, y, clicks)
	default:
		log.Debug().Str("module", "input").Str("action", ev.Action).Msg("ignored pointer action")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s at %d,%d: %v", domain.ErrInjectionFailure, ev.Action, x, y, err)
	}
	return nil
}

func (e *Executor) ExecuteKey(ctx context.Context, ev protocol.KeyEvent) error {
	if ev.Action != "keydown" {
		return nil
	}
	keys := Chord(ev.Key, ev.Modifiers)
	if len(keys) == 0 {
		return nil
	}
	if err := e.inj.Chord(ctx, keys); err != nil {
		return fmt.Errorf("%w: key %q: %v", domain.ErrInjectionFailure, ev.Key, err)
	}
	return nil
}
