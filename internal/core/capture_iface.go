package core

import "context"

// CaptureSettings is the process-wide encoder configuration of a FrameSource.
// It is shared by every streaming host.
type CaptureSettings struct {
	Quality int     // JPEG quality, 1..100
	Scale   float64 // canvas = screen * Scale
}

// Geometry relates the captured screen to the emitted canvas.
type Geometry struct {
	ScreenWidth  int
	ScreenHeight int
	CanvasWidth  int
	CanvasHeight int
	Scale        float64
}

// CapturedFrame is one encoded still image.
type CapturedFrame struct {
	MIME string
	Data []byte
	Geometry
}

type FrameSource interface {
	Capture(ctx context.Context) (*CapturedFrame, error)
	Configure(CaptureSettings)
	Settings() CaptureSettings
	// Geometry reports the canvas that the current settings produce.
	Geometry() Geometry
}
