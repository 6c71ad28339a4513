package main

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pfcm/roog"
	"github.com/pfcm/roog/internal/buffer"
	"github.com/pfcm/roog/spectrum"
)

type levels struct {
	rms, peak float32
	freq      float32 // of the loudest bin
}

func measure(snap []float32, samplerate float32) levels {
	if len(snap) == 0 {
		return levels{}
	}
	var l levels
	var sum float64
	for _, s := range snap {
		sum += float64(s) * float64(s)
		l.peak = max(l.peak, float32(math.Abs(float64(s))))
	}
	l.rms = float32(math.Sqrt(sum / float64(len(snap))))
	spec := spectrum.Compute(snap)
	if i, _ := spectrum.Peak(spec); i > 0 {
		l.freq = spectrum.BinFrequency(i, spectrum.Size(len(snap)), samplerate)
	}
	return l
}

// scope prints a line about the recent output every period.
func scope(ctx context.Context, period time.Duration, ring *buffer.Ring, s *roog.Synth, frames *atomic.Int64) error {
	p := message.NewPrinter(language.English)
	t0 := time.Now()
	t := time.NewTicker(period)
	defer t.Stop()
	var snap []float32
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			snap = ring.SnapshotInto(snap)
			l := measure(snap, s.SampleRate())
			p.Printf("\r%8.2fs  %12d frames  rms %.3f  peak %.3f  %7.1fHz ",
				time.Since(t0).Seconds(), frames.Load(), l.rms, l.peak, l.freq)
		}
	}
}
