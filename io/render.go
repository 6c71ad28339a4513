package io

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/pfcm/roog/internal/buffer"
)

// Generator produces consecutive mono samples. *roog.Synth is a Generator.
type Generator interface {
	Generate(out []float32)
}

// Renderer turns a mono Generator into interleaved frames of some Format,
// with every channel carrying the same signal. Samples are clamped to
// [-Limit, Limit] before they go anywhere. Render does not allocate or block,
// beyond the Generator's own lock.
type Renderer struct {
	gen       Generator
	format    Format
	channels  int
	frameSize int
	encode    encodeFunc

	block  []float32
	ring   *buffer.Ring
	rec    *Recorder
	log    *slog.Logger
	frames atomic.Int64
	faulty atomic.Bool
}

// NewRenderer returns a Renderer for the given format and channel count. It
// fails with ErrUnsupportedFormat if the format has no encoder.
func NewRenderer(g Generator, f Format, channels int, opts ...Option) (*Renderer, error) {
	return newRenderer(g, f, channels, newConfig(opts), nil)
}

func newRenderer(g Generator, f Format, channels int, cfg config, rec *Recorder) (*Renderer, error) {
	enc, err := encoder(f)
	if err != nil {
		return nil, err
	}
	if channels < 1 {
		return nil, fmt.Errorf("renderer needs at least one channel, got %d", channels)
	}
	return &Renderer{
		gen:       g,
		format:    f,
		channels:  channels,
		frameSize: f.Size() * channels,
		encode:    enc,
		block:     make([]float32, cfg.bufferFrames),
		ring:      cfg.ring,
		rec:       rec,
		log:       cfg.log,
	}, nil
}

func (r *Renderer) String() string {
	return fmt.Sprintf("Renderer(%v x%d)", r.format, r.channels)
}

func (r *Renderer) Format() Format { return r.format }
func (r *Renderer) Channels() int  { return r.channels }

// FrameSize is the number of bytes in one interleaved frame.
func (r *Renderer) FrameSize() int { return r.frameSize }

// Frames is the total number of frames rendered so far.
func (r *Renderer) Frames() int64 { return r.frames.Load() }

// Render fills as many whole frames of out as fit and returns the number of
// bytes written. Any trailing partial frame is zeroed.
func (r *Renderer) Render(out []byte) int {
	frames := len(out) / r.frameSize
	size := r.format.Size()
	o := 0
	for frames > 0 {
		block := r.block[:min(frames, len(r.block))]
		r.gen.Generate(block)
		for i, s := range block {
			if math.IsNaN(float64(s)) {
				s = 0
				if r.faulty.CompareAndSwap(false, true) {
					r.log.Warn("generator produced NaN, muting", "frame", r.frames.Load()+int64(i))
				}
			}
			s = clamp(s, -Limit, Limit)
			block[i] = s
			r.encode(out[o:], s)
			for c := 1; c < r.channels; c++ {
				copy(out[o+c*size:o+(c+1)*size], out[o:o+size])
			}
			o += r.frameSize
		}
		if r.ring != nil {
			r.ring.Write(block)
		}
		if r.rec != nil {
			r.rec.Record(block)
		}
		frames -= len(block)
		r.frames.Add(int64(len(block)))
	}
	clear(out[o:])
	return o
}
