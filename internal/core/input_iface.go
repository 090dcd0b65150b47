package core

import "context"

type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Injector performs input on the controlled machine. Coordinates are screen
// pixels; key names are normalized (see input.NormalizeKey).
type Injector interface {
	Move(ctx context.Context, x, y int) error
	ButtonDown(ctx context.Context, b Button) error
	ButtonUp(ctx context.Context, b Button) error
	Click(ctx context.Context, x, y int, b Button, count int) error
	Scroll(ctx context.Context, x, y, clicks int) error
	Chord(ctx context.Context, keys []string) error
}
