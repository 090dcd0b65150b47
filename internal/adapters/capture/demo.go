// Package capture provides frame sources for the streaming loop.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"sync"
	"time"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	background = color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}
	foreground = color.RGBA{R: 0xec, G: 0xf0, B: 0xf1, A: 0xff}
	accent     = color.RGBA{R: 0x1a, G: 0xbc, B: 0x9c, A: 0xff}
)

// DemoSource renders a synthetic desktop. It stands in for a real screen
// grabber on headless machines and keeps the frame shape identical.
type DemoSource struct {
	width, height int
	label         string
	now           func() time.Time

	mu       sync.RWMutex
	settings core.CaptureSettings

	// cache of the scaled static layer, rebuilt when the canvas changes
	cacheMu   sync.Mutex
	cacheSize image.Point
	cache     *image.RGBA
}

func NewDemoSource(width, height int, label string) *DemoSource {
	if label == "" {
		label = "Remote Desktop Demo"
	}
	return &DemoSource{
		width:    width,
		height:   height,
		label:    label,
		now:      time.Now,
		settings: core.CaptureSettings{Quality: 80, Scale: 0.7},
	}
}

func (d *DemoSource) Configure(s core.CaptureSettings) {
	if s.Quality < 1 {
		s.Quality = 1
	}
	if s.Quality > 100 {
		s.Quality = 100
	}
	if s.Scale <= 0 || s.Scale > 1 {
		s.Scale = 1
	}
	d.mu.Lock()
	d.settings = s
	d.mu.Unlock()
}

func (d *DemoSource) Settings() core.CaptureSettings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings
}

func (d *DemoSource) Geometry() core.Geometry {
	return GeometryFor(d.width, d.height, d.Settings().Scale)
}

// GeometryFor computes the canvas produced by scaling a screen.
func GeometryFor(width, height int, scale float64) core.Geometry {
	return core.Geometry{
		ScreenWidth:  width,
		ScreenHeight: height,
		CanvasWidth:  max(1, int(math.Round(float64(width)*scale))),
		CanvasHeight: max(1, int(math.Round(float64(height)*scale))),
		Scale:        scale,
	}
}

func (d *DemoSource) Capture(ctx context.Context) (*core.CapturedFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := d.Settings()
	g := GeometryFor(d.width, d.height, s.Scale)

	canvas := d.frameBase(image.Pt(g.CanvasWidth, g.CanvasHeight))
	stamp := d.now().Format("15:04:05")
	drawText(canvas, stamp, g.CanvasWidth/2, g.CanvasHeight/2+30, foreground)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: s.Quality}); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", domain.ErrCaptureFailure, err)
	}
	return &core.CapturedFrame{MIME: "image/jpeg", Data: buf.Bytes(), Geometry: g}, nil
}

// frameBase returns a fresh copy of the scaled static layer.
func (d *DemoSource) frameBase(size image.Point) *image.RGBA {
	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()
	if d.cache == nil || d.cacheSize != size {
		screen := d.renderScreen()
		scaled := image.NewRGBA(image.Rectangle{Max: size})
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), screen, screen.Bounds(), draw.Src, nil)
		d.cache = scaled
		d.cacheSize = size
	}
	out := image.NewRGBA(d.cache.Bounds())
	copy(out.Pix, d.cache.Pix)
	return out
}

// renderScreen draws the full-resolution desktop.
func (d *DemoSource) renderScreen() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	bar := image.Rect(0, d.height-max(1, d.height/30), d.width, d.height)
	draw.Draw(img, bar, &image.Uniform{C: accent}, image.Point{}, draw.Src)

	// labels are drawn large by scaling a small rendering up
	const zoom = 4
	w := font.MeasureString(basicfont.Face7x13, d.label).Ceil()
	small := image.NewRGBA(image.Rect(0, 0, w+2, basicfont.Face7x13.Height+2))
	drawText(small, d.label, small.Bounds().Dx()/2, basicfont.Face7x13.Ascent+1, foreground)
	dst := image.Rect(0, 0, small.Bounds().Dx()*zoom, small.Bounds().Dy()*zoom).
		Add(image.Pt((d.width-small.Bounds().Dx()*zoom)/2, d.height/2-small.Bounds().Dy()*zoom))
	draw.NearestNeighbor.Scale(img, dst, small, small.Bounds(), draw.Over, nil)

	size := fmt.Sprintf("%dx%d", d.width, d.height)
	drawText(img, size, d.width/2, d.height/2+basicfont.Face7x13.Height*3, foreground)
	return img
}

// drawText centers s horizontally on x with its baseline at y.
func drawText(dst draw.Image, s string, x, y int, c color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s)
	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y).Sub(fixed.Point26_6{X: w / 2}),
	}
	dr.DrawString(s)
}
