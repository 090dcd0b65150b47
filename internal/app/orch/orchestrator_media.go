package orch

import (
	"context"

	"github.com/dkeye/RemoteDesk/internal/app/stream"
	"github.com/dkeye/RemoteDesk/internal/domain"
	"github.com/dkeye/RemoteDesk/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) startSharing(ctx context.Context, host domain.ConnID, m protocol.StartSharing) {
	if o.Source == nil || o.Streams == nil {
		o.send(host, protocol.TypeSharingError, protocol.ErrorPayload{Error: msgCaptureFailure})
		return
	}
	p := stream.PresetFor(m.Quality)
	o.Source.Configure(p.Settings())
	o.Streams.Start(ctx, host, p.FPS)
	o.send(host, protocol.TypeSharingStarted, protocol.SharingStarted{Quality: p.Label, FPS: p.FPS})
}

func (o *Orchestrator) stopSharing(host domain.ConnID) {
	if o.Streams != nil {
		o.Streams.Stop(host)
	}
	o.send(host, protocol.TypeSharingStopped, nil)
}

// changeQuality reconfigures the frame source process-wide. A running loop
// keeps its frame rate; the next capture picks up the new settings.
func (o *Orchestrator) changeQuality(sender domain.ConnID, m protocol.ChangeQuality) {
	p := stream.PresetFor(m.Quality)
	if o.Source != nil {
		o.Source.Configure(p.Settings())
	}
	o.send(sender, protocol.TypeQualityChanged, protocol.QualityChanged{Quality: p.Label})
}

func (o *Orchestrator) allowInput(sender domain.ConnID, t protocol.MessageType) bool {
	if o.InputLimiter == nil || o.InputLimiter.Allow(sender) {
		return true
	}
	log.Debug().Str("module", "orch").Str("conn", string(sender)).Str("type", string(t)).Msg("input rate limited")
	return false
}

func (o *Orchestrator) pointer(ctx context.Context, sender domain.ConnID, env protocol.Envelope, m protocol.MouseEvent) {
	if !o.allowInput(sender, env.Type) {
		return
	}
	if o.Input != nil {
		if err := o.Input.ExecutePointer(ctx, m); err != nil {
			o.inputFailed(sender, env.Type, err)
		}
	}
	o.Relay(sender, env)
}

func (o *Orchestrator) key(ctx context.Context, sender domain.ConnID, env protocol.Envelope, m protocol.KeyEvent) {
	if !o.allowInput(sender, env.Type) {
		return
	}
	if o.Input != nil {
		if err := o.Input.ExecuteKey(ctx, m); err != nil {
			o.inputFailed(sender, env.Type, err)
		}
	}
	o.Relay(sender, env)
}

func (o *Orchestrator) inputFailed(sender domain.ConnID, t protocol.MessageType, err error) {
	log.Warn().Err(err).Str("module", "orch").Str("conn", string(sender)).Str("type", string(t)).Msg("input failed")
	o.send(sender, protocol.TypeInputAck, protocol.InputAck{Success: false, Event: t, Error: wireError(err)})
}
