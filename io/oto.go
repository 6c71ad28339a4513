package io

import (
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

const otoChannels = 2

// otoReader adapts a Renderer to the io.Reader oto pulls from.
type otoReader struct {
	r *Renderer
}

func (o otoReader) Read(p []byte) (int, error) {
	if len(p) < o.r.FrameSize() {
		clear(p)
		return len(p), nil
	}
	return o.r.Render(p), nil
}

// PlayOto plays s through oto at a fixed rate in stereo float32 until the
// context is cancelled. oto allows one context per process, so this can only
// be called once.
func PlayOto(ctx context.Context, s Synth, samplerate int, opts ...Option) error {
	cfg := newConfig(opts)
	s.SetSampleRate(float32(samplerate))
	var rec *Recorder
	if cfg.record != nil {
		rec = NewRecorder(cfg.record, samplerate, cfg.bufferFrames, recordBlocks)
	}
	r, err := newRenderer(s, FormatF32, otoChannels, cfg, rec)
	if err != nil {
		return err
	}
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   samplerate,
		ChannelCount: otoChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   20 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("initialising oto: %w", err)
	}
	<-ready
	cfg.log.Info("oto ready", "format", FormatF32, "channels", otoChannels, "rate", samplerate)

	recDone := make(chan error, 1)
	rctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if rec != nil {
		go func() { recDone <- rec.Run(rctx) }()
	} else {
		recDone <- nil
	}

	p := octx.NewPlayer(otoReader{r})
	p.Play()
	<-ctx.Done()
	if err := p.Err(); err != nil {
		cfg.log.Warn("oto player failed", "err", err)
	}
	if err := p.Close(); err != nil {
		cfg.log.Debug("closing oto player", "err", err)
	}
	cancel()
	return <-recDone
}
