package io

import (
	"encoding/binary"
	"math"
	"slices"
	"testing"

	"github.com/pfcm/roog/internal/buffer"
)

// ramp counts up by step from zero.
type ramp struct {
	next, step float32
}

func (r *ramp) Generate(out []float32) {
	for i := range out {
		out[i] = r.next
		r.next += r.step
	}
}

type constant float32

func (c constant) Generate(out []float32) {
	for i := range out {
		out[i] = float32(c)
	}
}

func f32s(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func TestRenderChannelsEqual(t *testing.T) {
	for _, f := range []Format{FormatU8, FormatS16, FormatS24, FormatS32, FormatF32} {
		for _, channels := range []int{1, 2, 6} {
			r, err := NewRenderer(&ramp{next: -0.9, step: 0.01}, f, channels)
			if err != nil {
				t.Fatal(err)
			}
			out := make([]byte, 100*r.FrameSize())
			if n := r.Render(out); n != len(out) {
				t.Fatalf("%v x%d: rendered %d bytes, want: %d", f, channels, n, len(out))
			}
			size := f.Size()
			for o := 0; o < len(out); o += r.FrameSize() {
				first := out[o : o+size]
				for c := 1; c < channels; c++ {
					if got := out[o+c*size : o+(c+1)*size]; !slices.Equal(got, first) {
						t.Fatalf("%v x%d frame %d: channel %d = %v, channel 0 = %v",
							f, channels, o/r.FrameSize(), c, got, first)
					}
				}
			}
		}
	}
}

func TestRenderClamps(t *testing.T) {
	ring := buffer.NewRing(8)
	for _, c := range []struct {
		in, want float32
	}{
		{2, Limit},
		{-2, -Limit},
		{0.5, 0.5},
		{float32(math.NaN()), 0},
	} {
		r, err := NewRenderer(constant(c.in), FormatF32, 1, WithRing(ring))
		if err != nil {
			t.Fatal(err)
		}
		out := make([]byte, 4*4)
		r.Render(out)
		for i, got := range f32s(out) {
			if got != c.want {
				t.Errorf("Render(%v)[%d] = %v, want: %v", c.in, i, got, c.want)
			}
		}
		snap := ring.Snapshot()
		if got := snap[len(snap)-1]; got != c.want {
			t.Errorf("ring got %v for %v, want: %v", got, c.in, c.want)
		}
	}
}

func TestRenderBlocks(t *testing.T) {
	ring := buffer.NewRing(64)
	r, err := NewRenderer(&ramp{step: 0.01}, FormatF32, 2, WithBufferFrames(3), WithRing(ring))
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 10*r.FrameSize())
	r.Render(out)
	got := f32s(out)
	for i := 0; i < 10; i++ {
		want := float32(0)
		for range i {
			want += 0.01
		}
		if got[2*i] != want {
			t.Errorf("frame %d = %v, want: %v", i, got[2*i], want)
		}
	}
	if n := len(ring.Snapshot()); n != 10 {
		t.Errorf("ring holds %d samples, want: 10", n)
	}
	if r.Frames() != 10 {
		t.Errorf("Frames() = %d, want: 10", r.Frames())
	}
}

func TestRenderPartialFrame(t *testing.T) {
	r, err := NewRenderer(constant(0.5), FormatS16, 2)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 2*r.FrameSize()+3)
	for i := range out {
		out[i] = 0xff
	}
	if n := r.Render(out); n != 2*r.FrameSize() {
		t.Errorf("Render() = %d, want: %d", n, 2*r.FrameSize())
	}
	for i, b := range out[2*r.FrameSize():] {
		if b != 0 {
			t.Errorf("trailing byte %d = %x, want: 0", i, b)
		}
	}
}

func TestNewRendererErrors(t *testing.T) {
	if _, err := NewRenderer(constant(0), FormatUnknown, 2); err == nil {
		t.Error("no error for an unknown format")
	}
	if _, err := NewRenderer(constant(0), FormatS16, 0); err == nil {
		t.Error("no error for zero channels")
	}
}
