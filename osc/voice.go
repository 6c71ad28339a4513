package osc

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// State is the control state of a single oscillator. The control side writes
// individual fields through the setters, the audio side reads the frequency and
// waveform once per sample. Every critical section is a handful of field
// accesses.
type State struct {
	mu        sync.Mutex
	waveform  Waveform
	voltage   float32
	detune    float32 // octaves
	frequency float32
}

// NewState returns a saw wave at 0V with no detune.
func NewState() *State {
	return &State{
		waveform:  Saw,
		frequency: VoltageToFrequency(0),
	}
}

func (s *State) SetWaveform(w Waveform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waveform = w
}

// SetVoltage sets the pitch in volts and recomputes the frequency.
func (s *State) SetVoltage(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voltage = v
	s.frequency = VoltageToFrequency(s.voltage + s.detune)
}

// SetDetune sets the offset from the pitch voltage, in octaves, and recomputes
// the frequency.
func (s *State) SetDetune(octaves float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detune = octaves
	s.frequency = VoltageToFrequency(s.voltage + s.detune)
}

// Frequency returns the current frequency in Hz.
func (s *State) Frequency() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

// Read returns everything the audio side needs for one sample.
func (s *State) Read() (float32, Waveform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency, s.waveform
}

func (s *State) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%v %+.3fV %+.3foct %.2fHz", s.waveform, s.voltage, s.detune, s.frequency)
}

// Command is a control message for a Voice.
type Command interface {
	apply(*State)
}

type (
	SetVoltage  float32
	SetDetune   float32
	SetWaveform Waveform
)

func (c SetVoltage) apply(s *State)  { s.SetVoltage(float32(c)) }
func (c SetDetune) apply(s *State)   { s.SetDetune(float32(c)) }
func (c SetWaveform) apply(s *State) { s.SetWaveform(Waveform(c)) }

// Voice pairs an oscillator State with an unbounded mailbox of Commands. Send
// never blocks; Run drains the mailbox into the State, so the rate at which
// commands arrive is decoupled from the audio rate.
type Voice struct {
	state *State

	mu      sync.Mutex
	pending []Command
	closed  bool
	wake    chan struct{}
}

// NewVoice creates a Voice with a fresh State. Nothing is applied until Run
// is called.
func NewVoice() *Voice {
	return &Voice{
		state: NewState(),
		wake:  make(chan struct{}, 1),
	}
}

// State returns the State the voice applies its commands to.
func (v *Voice) State() *State { return v.state }

// Send queues a command. It never blocks, and silently drops the command once
// the voice has been closed.
func (v *Voice) Send(c Command) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.pending = append(v.pending, c)
	v.mu.Unlock()
	select {
	case v.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting commands. Commands already queued are still applied
// by Run before it returns.
func (v *Voice) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	select {
	case v.wake <- struct{}{}:
	default:
	}
}

// Run applies queued commands in order until the context is cancelled or the
// voice is closed and drained. A cancelled voice is closed, anything still
// queued is dropped along with every later Send.
func (v *Voice) Run(ctx context.Context) error {
	var batch []Command
	for {
		select {
		case <-ctx.Done():
			v.mu.Lock()
			v.closed = true
			v.pending = nil
			v.mu.Unlock()
			return nil
		case <-v.wake:
		}
		v.mu.Lock()
		batch, v.pending = v.pending, batch[:0]
		closed := v.closed
		v.mu.Unlock()
		for _, c := range batch {
			c.apply(v.state)
		}
		if closed {
			return nil
		}
	}
}

// Sampler turns a State into a stream of samples. The phase is private to the
// sampler and always stays in [0, 1).
type Sampler struct {
	state *State
	phase float32
}

func NewSampler(s *State) *Sampler {
	return &Sampler{state: s}
}

// Sample advances the phase by one sample period and returns the waveform at
// the new phase.
func (s *Sampler) Sample(samplerate float32) float32 {
	freq, w := s.state.Read()
	s.phase = wrap(s.phase + freq/samplerate)
	return w.Sample(s.phase)
}

// Phase returns the current phase.
func (s *Sampler) Phase() float32 { return s.phase }

// wrap returns the fractional part of p, forced into [0, 1) even when
// rounding or a non-finite input would put it outside.
func wrap(p float32) float32 {
	p -= float32(math.Floor(float64(p)))
	if !(p >= 0 && p < 1) {
		return 0
	}
	return p
}

// Bank is an ordered set of independent Samplers that are advanced together.
type Bank struct {
	voices []*Sampler
}

func NewBank(states ...*State) *Bank {
	b := &Bank{voices: make([]*Sampler, len(states))}
	for i, s := range states {
		b.voices[i] = NewSampler(s)
	}
	return b
}

// Len returns the number of voices.
func (b *Bank) Len() int { return len(b.voices) }

// Fill writes one sample per voice into out. Extra voices or extra slots are
// ignored.
func (b *Bank) Fill(samplerate float32, out []float32) {
	for i, v := range b.voices {
		if i >= len(out) {
			return
		}
		out[i] = v.Sample(samplerate)
	}
}
