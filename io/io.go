// package io does audio out.
package io

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/pfcm/roog/internal/buffer"
)

var (
	// ErrUnsupportedFormat is returned when a device wants samples in a
	// format there is no encoder for.
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	// ErrStopped is returned when stopping an engine that isn't running.
	ErrStopped = errors.New("engine stopped")
)

// Synth is what the engines play. *roog.Synth is a Synth.
type Synth interface {
	Generator
	SetSampleRate(hz float32)
}

const (
	defaultBufferFrames = 4096
	recordBlocks        = 32
)

type config struct {
	log          *slog.Logger
	bufferFrames int
	ring         *buffer.Ring
	record       io.WriteSeeker
}

// Option configures a Renderer or an engine.
type Option func(*config)

func newConfig(opts []Option) config {
	c := config{
		log:          slog.Default(),
		bufferFrames: defaultBufferFrames,
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// WithLogger sets the logger for device messages and faults.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBufferFrames sets how many samples are rendered per batch, which is also
// the block size handed to the ring and the recorder. Device buffers bigger
// than this are filled in several goes.
func WithBufferFrames(n int) Option {
	return func(c *config) { c.bufferFrames = max(n, 1) }
}

// WithRing copies everything played into r.
func WithRing(r *buffer.Ring) Option {
	return func(c *config) { c.ring = r }
}

// WithRecorder writes everything played to w as a WAV file at the device
// rate. The file is finished when the engine stops.
func WithRecorder(w io.WriteSeeker) Option {
	return func(c *config) { c.record = w }
}

// Engine plays a Synth on the default playback device, in whatever format,
// channel count and rate the device prefers.
type Engine struct {
	synth Synth
	cfg   config

	mu       sync.Mutex
	mctx     *malgo.AllocatedContext
	device   *malgo.Device
	renderer *Renderer
	rec      *Recorder
	cancel   context.CancelFunc
	recDone  chan error
	stopping atomic.Bool
}

func NewEngine(s Synth, opts ...Option) *Engine {
	return &Engine{synth: s, cfg: newConfig(opts)}
}

func (e *Engine) String() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device == nil {
		return "Engine(stopped)"
	}
	return fmt.Sprintf("Engine(%v %dHz)", e.renderer, e.device.SampleRate())
}

// Start opens the default device and starts playing.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device != nil {
		return errors.New("engine already started")
	}
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		e.cfg.log.Debug("malgo", "msg", strings.TrimSpace(msg))
	})
	if err != nil {
		return fmt.Errorf("initialising audio context: %w", err)
	}
	var r *Renderer
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	// Zeroes ask for the device's native settings.
	cfg.Playback.Format = malgo.FormatUnknown
	cfg.Playback.Channels = 0
	cfg.SampleRate = 0
	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			r.Render(out)
		},
		Stop: func() {
			if !e.stopping.Load() {
				e.cfg.log.Warn("playback device stopped unexpectedly")
			}
		},
	})
	if err != nil {
		e.freeContext(mctx)
		return fmt.Errorf("opening playback device: %w", err)
	}
	var (
		format   = formatFromMalgo(device.PlaybackFormat())
		channels = int(device.PlaybackChannels())
		rate     = int(device.SampleRate())
	)
	e.cfg.log.Info("negotiated playback device", "format", format, "channels", channels, "rate", rate)
	e.synth.SetSampleRate(float32(rate))

	var rec *Recorder
	if e.cfg.record != nil {
		rec = NewRecorder(e.cfg.record, rate, e.cfg.bufferFrames, recordBlocks)
	}
	r, err = newRenderer(e.synth, format, channels, e.cfg, rec)
	if err != nil {
		device.Uninit()
		e.freeContext(mctx)
		return err
	}
	e.mctx, e.device, e.renderer, e.rec = mctx, device, r, rec
	e.stopping.Store(false)
	if rec != nil {
		ctx, cancel := context.WithCancel(context.Background())
		e.cancel = cancel
		e.recDone = make(chan error, 1)
		go func() { e.recDone <- rec.Run(ctx) }()
	}
	if err := device.Start(); err != nil {
		e.stop()
		return fmt.Errorf("starting playback: %w", err)
	}
	return nil
}

// Stop closes the device and finishes any recording.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device == nil {
		return ErrStopped
	}
	return e.stop()
}

func (e *Engine) stop() error {
	e.stopping.Store(true)
	e.device.Uninit()
	e.freeContext(e.mctx)
	var err error
	if e.rec != nil {
		e.cancel()
		err = <-e.recDone
		if d := e.rec.Dropped(); d > 0 {
			e.cfg.log.Warn("recording dropped samples", "dropped", d)
		}
	}
	e.mctx, e.device, e.rec, e.cancel, e.recDone = nil, nil, nil, nil, nil
	return err
}

// Renderer returns the renderer made by the last Start, or nil if the engine
// was never started.
func (e *Engine) Renderer() *Renderer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderer
}

func (e *Engine) freeContext(mctx *malgo.AllocatedContext) {
	if err := mctx.Uninit(); err != nil {
		e.cfg.log.Debug("uninitialising audio context", "err", err)
	}
	mctx.Free()
}

// PlayWithDefaults plays s on the default output device until the context
// is cancelled.
func PlayWithDefaults(ctx context.Context, s Synth, opts ...Option) error {
	e := NewEngine(s, opts...)
	if err := e.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return e.Stop()
}
