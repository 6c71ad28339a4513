// package roog is a monophonic subtractive synthesizer: a bank of oscillators
// and a noise source, mixed and passed through a resonant ladder filter and an
// amplifier, each with its own envelope.
package roog

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pfcm/roog/noise"
	"github.com/pfcm/roog/osc"
)

// DefaultSampleRate is used until the output negotiates a real one.
const DefaultSampleRate = 44100

// Synth is the whole signal path. Parameter setters and NextSample share a
// single lock, and every setter is a constant time field write, so the audio
// side never waits long.
//
// Oscillator pitch and shape are not behind that lock: they go to each
// voice's own mailbox and are applied by RunVoices.
type Synth struct {
	voices []*osc.Voice

	mu         sync.Mutex
	bank       *osc.Bank
	mixer      *Mixer
	noise      *noise.Generator
	color      noise.Color
	mods       *Modifiers
	samplerate float32
	buf        []float32 // one sample per voice
}

type config struct {
	voices int
	noise  *noise.Generator
}

// Option configures a Synth.
type Option func(*config)

// WithVoices sets the number of oscillators. The default is 3.
func WithVoices(n int) Option {
	return func(c *config) { c.voices = max(n, 0) }
}

// WithNoise sets the noise generator, mostly so tests can fix the seed. The
// default is seeded from the clock.
func WithNoise(g *noise.Generator) Option {
	return func(c *config) { c.noise = g }
}

// New returns a Synth with the gate closed. Oscillator setters only queue
// commands: nothing reaches the oscillators until RunVoices is running.
func New(opts ...Option) *Synth {
	c := config{voices: 3}
	for _, o := range opts {
		o(&c)
	}
	if c.noise == nil {
		c.noise = noise.NewRandom()
	}
	voices := make([]*osc.Voice, c.voices)
	states := make([]*osc.State, c.voices)
	for i := range voices {
		voices[i] = osc.NewVoice()
		states[i] = voices[i].State()
	}
	return &Synth{
		voices:     voices,
		bank:       osc.NewBank(states...),
		mixer:      NewMixer(c.voices),
		noise:      c.noise,
		mods:       NewModifiers(),
		samplerate: DefaultSampleRate,
		buf:        make([]float32, c.voices),
	}
}

func (s *Synth) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Synth(%d voices, %vHz, %v, noise=%v, %v)",
		len(s.voices), s.samplerate, s.mixer, s.color, s.mods)
}

// Voices returns the number of oscillators.
func (s *Synth) Voices() int { return len(s.voices) }

// Voice returns oscillator i, or nil if there isn't one.
func (s *Synth) Voice(i int) *osc.Voice {
	if i < 0 || i >= len(s.voices) {
		return nil
	}
	return s.voices[i]
}

// RunVoices applies queued oscillator commands until the context is cancelled
// or Close is called.
func (s *Synth) RunVoices(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range s.voices {
		g.Go(func() error { return v.Run(ctx) })
	}
	return g.Wait()
}

// Close stops the voices accepting commands. Later oscillator commands are
// dropped.
func (s *Synth) Close() {
	for _, v := range s.voices {
		v.Close()
	}
}

func (s *Synth) send(i int, c osc.Command) {
	if v := s.Voice(i); v != nil {
		v.Send(c)
	}
}

// SetVoltage sets the pitch of oscillator i in volts, 0V being 55Hz. Like
// SetDetune and SetWaveform it takes effect once RunVoices applies it.
func (s *Synth) SetVoltage(i int, volts float32) { s.send(i, osc.SetVoltage(volts)) }

// SetDetune offsets oscillator i from its pitch by a number of octaves.
func (s *Synth) SetDetune(i int, octaves float32) { s.send(i, osc.SetDetune(octaves)) }

func (s *Synth) SetWaveform(i int, w osc.Waveform) { s.send(i, osc.SetWaveform(w)) }

// SetSampleRate is called by the output once it knows the device rate.
func (s *Synth) SetSampleRate(hz float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samplerate = clamp(hz, 1, math.MaxFloat32)
}

func (s *Synth) SampleRate() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samplerate
}

func (s *Synth) SetGate(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetGate(on)
}

func (s *Synth) SetMixLevel(i int, level float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.SetLevel(i, level)
}

func (s *Synth) SetOscEnabled(i int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.SetEnabled(i, on)
}

func (s *Synth) SetNoiseLevel(level float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.SetNoiseLevel(level)
}

func (s *Synth) SetNoiseEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.SetNoiseEnabled(on)
}

func (s *Synth) SetNoiseColor(c noise.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = c
}

func (s *Synth) SetMasterLevel(level float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.SetMaster(level)
}

func (s *Synth) SetCutoff(hz float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetCutoff(hz)
}

func (s *Synth) SetEmphasis(e float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetEmphasis(e)
}

func (s *Synth) SetContourAmount(c float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetContour(c)
}

func (s *Synth) SetFilterEnvelope(attack, decay, sustain float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetFilterEnvelope(attack, decay, sustain)
}

func (s *Synth) SetLoudnessEnvelope(attack, decay, sustain float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetLoudnessEnvelope(attack, decay, sustain)
}

func (s *Synth) SetFilterRelease(seconds float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetFilterRelease(seconds)
}

func (s *Synth) SetLoudnessRelease(seconds float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mods.SetLoudnessRelease(seconds)
}

// NextSample produces one output sample. The result is not clamped.
func (s *Synth) NextSample() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next()
}

// generateChunk is the most samples Generate makes under one hold of the lock.
const generateChunk = 64

// Generate fills out with consecutive samples, the same ones repeated calls
// to NextSample would give. The lock is released every generateChunk samples
// so setters are not held up by a long block. It does not allocate.
func (s *Synth) Generate(out []float32) {
	for len(out) > 0 {
		n := min(len(out), generateChunk)
		s.generate(out[:n])
		out = out[n:]
	}
}

func (s *Synth) generate(out []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range out {
		out[i] = s.next()
	}
}

func (s *Synth) next() float32 {
	s.bank.Fill(s.samplerate, s.buf)
	mixed := s.mixer.Mix(s.buf, s.noise.Sample(s.color))
	return s.mods.Process(mixed, 1/s.samplerate)
}
