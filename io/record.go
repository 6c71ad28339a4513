package io

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recordBits = 16

// Recorder writes a mono stream to a 16 bit WAV file on its own goroutine.
// Record hands over blocks from a fixed pool and never blocks: if the writer
// falls behind, blocks are dropped and counted.
type Recorder struct {
	w          io.WriteSeeker
	samplerate int
	free       chan []float32
	full       chan []float32
	dropped    atomic.Int64
	written    atomic.Int64
}

// NewRecorder makes a recorder with n blocks of size samples each.
func NewRecorder(w io.WriteSeeker, samplerate, size, n int) *Recorder {
	size, n = max(size, 1), max(n, 1)
	r := &Recorder{
		w:          w,
		samplerate: samplerate,
		free:       make(chan []float32, n),
		full:       make(chan []float32, n),
	}
	for range n {
		r.free <- make([]float32, size)
	}
	return r
}

func (r *Recorder) String() string {
	return fmt.Sprintf("Recorder(%dHz, %d written, %d dropped)", r.samplerate, r.Written(), r.Dropped())
}

// Dropped is the number of samples that didn't make it to the file.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Written is the number of samples handed to the encoder.
func (r *Recorder) Written() int64 { return r.written.Load() }

// Record queues samples for writing.
func (r *Recorder) Record(samples []float32) {
	for len(samples) > 0 {
		var b []float32
		select {
		case b = <-r.free:
		default:
			r.dropped.Add(int64(len(samples)))
			return
		}
		n := copy(b[:cap(b)], samples)
		samples = samples[n:]
		r.full <- b[:n]
	}
}

// Run encodes queued blocks until the context is done, then writes whatever
// is still queued and finishes the file.
func (r *Recorder) Run(ctx context.Context) error {
	enc, buf := newWAV(r.w, r.samplerate)
	write := func(b []float32) error {
		buf.Data = toPCM(buf.Data, b)
		r.written.Add(int64(len(b)))
		r.free <- b
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("writing wav: %w", err)
		}
		return nil
	}
loop:
	for {
		select {
		case b := <-r.full:
			if err := write(b); err != nil {
				return err
			}
		case <-ctx.Done():
			break loop
		}
	}
	for len(r.full) > 0 {
		if err := write(<-r.full); err != nil {
			return err
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing wav: %w", err)
	}
	return nil
}

// WriteWAV writes samples to w as a complete mono 16 bit WAV file.
func WriteWAV(w io.WriteSeeker, samplerate int, samples []float32) error {
	enc, buf := newWAV(w, samplerate)
	buf.Data = toPCM(nil, samples)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing wav: %w", err)
	}
	return nil
}

func newWAV(w io.WriteSeeker, samplerate int) (*wav.Encoder, *audio.IntBuffer) {
	enc := wav.NewEncoder(w, samplerate, recordBits, 1, 1)
	return enc, &audio.IntBuffer{
		Format:         &audio.PCMFormat{NumChannels: 1, SampleRate: samplerate},
		SourceBitDepth: recordBits,
	}
}

// toPCM quantises src into dst, reusing its storage.
func toPCM(dst []int, src []float32) []int {
	dst = dst[:0]
	for _, s := range src {
		dst = append(dst, int(signed[int16](s, 1<<(recordBits-1)-1)))
	}
	return dst
}
