package stream

import "github.com/dkeye/RemoteDesk/internal/core"

// Preset bundles the encoder settings and frame rate behind a quality label.
type Preset struct {
	Label   string
	Quality int
	Scale   float64
	FPS     int
}

func (p Preset) Settings() core.CaptureSettings {
	return core.CaptureSettings{Quality: p.Quality, Scale: p.Scale}
}

const DefaultQuality = "medium"

var presets = map[string]Preset{
	"low":    {Label: "low", Quality: 60, Scale: 0.5, FPS: 10},
	"medium": {Label: "medium", Quality: 80, Scale: 0.7, FPS: 15},
	"high":   {Label: "high", Quality: 90, Scale: 1.0, FPS: 20},
}

// PresetFor resolves a label; unknown labels get the medium preset but keep
// their label so the answer echoes what was asked.
func PresetFor(label string) Preset {
	p, ok := presets[label]
	if !ok {
		p = presets[DefaultQuality]
		if label != "" {
			p.Label = label
		}
	}
	return p
}
