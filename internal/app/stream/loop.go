package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/RemoteDesk/internal/app"
	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
	"github.com/rs/zerolog"
)

type loop struct {
	m      *Manager
	host   domain.ConnID
	fps    int
	period time.Duration
	cancel context.CancelFunc
	done   chan struct{}
	logger zerolog.Logger
}

func (l *loop) run(ctx context.Context) {
	defer close(l.done)
	defer l.m.detach(l)

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug().Uint64("frames", sent).Msg("stream ctx done")
			return
		default:
		}

		frame, err := l.m.src.Capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error().Err(err).Msg("capture failed")
			if !sleep(ctx, l.m.ErrorPause) {
				return
			}
			continue
		}

		payload, err := Encode(frame)
		if err != nil {
			l.logger.Error().Err(err).Msg("encode frame")
			if !sleep(ctx, l.m.ErrorPause) {
				return
			}
			continue
		}

		l.deliver(l.host, payload)
		if client, ok := l.m.viewers.ClientOf(l.host); ok {
			l.deliver(client, payload)
		}

		sent++
		if sent%logEvery == 0 {
			l.logger.Debug().Uint64("frames", sent).Int("bytes", len(payload)).Msg("streaming")
		}
		if !sleep(ctx, l.period) {
			return
		}
	}
}

func (l *loop) deliver(to domain.ConnID, payload core.Frame) {
	err := l.m.sender.SendFrame(to, payload)
	if err == nil {
		l.m.policy.OnDelivered(to)
		return
	}
	if !errors.Is(err, core.ErrBackpressure) {
		l.logger.Debug().Err(err).Str("viewer", string(to)).Msg("frame not delivered")
		return
	}
	act := l.m.policy.OnBackPressure(l.host, to)
	switch act {
	case app.Disconnect:
		l.logger.Warn().Str("viewer", string(to)).Stringer("action", act).Msg("viewer too slow, disconnecting")
		l.m.sender.Cancel(to)
	case app.DropFrame:
		l.logger.Debug().Str("viewer", string(to)).Stringer("action", act).Msg("frame dropped")
	}
}

// Encode builds the serialized screen_frame message for one capture.
func Encode(f *core.CapturedFrame) (core.Frame, error) {
	mime := f.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	msg := protocol.New(protocol.TypeScreenFrame, protocol.Frame{
		Frame:              "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
		ActualScreenWidth:  f.ScreenWidth,
		ActualScreenHeight: f.ScreenHeight,
		CanvasWidth:        f.CanvasWidth,
		CanvasHeight:       f.CanvasHeight,
		ScaleFactor:        f.Scale,
	})
	return json.Marshal(msg)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
