package roog

import (
	"fmt"
	"math"
	"sync"

	"github.com/pfcm/roog/noise"
)

const (
	// TuneRange is the span of the tune knob in octaves, centred on zero.
	TuneRange = 1.0
	GlideMax  = 0.6 // seconds
	// DetuneRange is the largest detune either way, in octaves.
	DetuneRange = 0.5

	PanelCutoffMin = 200.0
	PanelCutoffMax = 5000.0

	lfoFreq  = 4.5 // Hz
	modDepth = 0.3
	// minGlide and minMove are below anything audible.
	minGlide = 0.0001
	minMove  = 0.0001
)

// Target is what a Controller drives. *Synth is a Target.
type Target interface {
	Voices() int
	SetVoltage(voice int, volts float32)
	SetGate(on bool)
	SetCutoff(hz float32)
}

// Controller is the performance side of the panel: it turns notes into gate
// and a gliding pitch, applies the tune offset, and wobbles the cutoff with a
// blend of an LFO and noise. Knob values are all in [0, 1]. Update must be
// called regularly at whatever rate the controls run at. Methods are safe to
// call from multiple goroutines.
type Controller struct {
	target Target

	mu sync.Mutex

	tune, glide, modMix, cutoff float32

	voltage      float32 // of the last note
	pitchTarget  float32
	pitchCurrent float32
	started      bool

	modPhase  float32
	modSignal float32
	modNoise  *noise.Generator
	modColor  noise.Color
}

// NewController returns a Controller with the tune centred, a short glide and
// a pure LFO. g is the noise source for modulation; it must not be shared
// with anything else.
func NewController(t Target, g *noise.Generator) *Controller {
	return &Controller{
		target:   t,
		tune:     0.5,
		glide:    0.3,
		cutoff:   0.5,
		voltage:  MIDIToVoltage(48),
		modNoise: g,
	}
}

func (c *Controller) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("Controller(pitch=%.3fV->%.3fV glide=%.2fs mod=%.2f/%v cutoff=%.0fHz)",
		c.pitchCurrent, c.pitchTarget, c.glideTime(), c.modMix, c.modColor, c.modulatedCutoff())
}

// MIDIToVoltage maps a MIDI note onto the oscillator pitch scale, with
// A1 (note 33, 55Hz) at 0V.
func MIDIToVoltage(note int) float32 {
	return float32(note-33) / 12
}

// DetuneFromKnob maps a knob position onto [-DetuneRange, DetuneRange].
func DetuneFromKnob(k float32) float32 {
	return (unit(k)*2 - 1) * DetuneRange
}

// Note is called by the keyboard whenever the held notes change. The pitch of
// the last note is kept after the gate closes.
func (c *Controller) Note(gate bool, volts float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voltage = volts
	c.target.SetGate(gate)
}

func (c *Controller) set(p *float32, k float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*p = unit(k)
}

func (c *Controller) SetTune(k float32)   { c.set(&c.tune, k) }
func (c *Controller) SetGlide(k float32)  { c.set(&c.glide, k) }
func (c *Controller) SetModMix(k float32) { c.set(&c.modMix, k) }
func (c *Controller) SetCutoff(k float32) { c.set(&c.cutoff, k) }

// SetModNoise sets the colour of the noise blended into the modulation.
func (c *Controller) SetModNoise(col noise.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modColor = col
}

// ModNoise is the colour of the modulation noise.
func (c *Controller) ModNoise() noise.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modColor
}

// TuneOffset is the tune knob in octaves.
func (c *Controller) TuneOffset() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tuneOffset()
}

func (c *Controller) tuneOffset() float32 { return (c.tune - 0.5) * TuneRange }

// GlideTime is the glide knob in seconds.
func (c *Controller) GlideTime() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.glideTime()
}

func (c *Controller) glideTime() float32 { return c.glide * GlideMax }

// Pitch returns the voltage currently sent to the oscillators.
func (c *Controller) Pitch() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pitchCurrent
}

// Cutoff is the modulated cutoff in Hz.
func (c *Controller) Cutoff() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modulatedCutoff()
}

func (c *Controller) modulatedCutoff() float32 {
	base := PanelCutoffMin + c.cutoff*(PanelCutoffMax-PanelCutoffMin)
	return clamp(base*(1+c.modSignal*modDepth), PanelCutoffMin, PanelCutoffMax)
}

// Update advances the controls by dt seconds and pushes the results to the
// target. A dt of zero jumps straight to the target pitch.
func (c *Controller) Update(dt float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !(dt > 0) {
		dt = 0
	}
	c.pitchTarget = c.voltage + c.tuneOffset()
	c.updateModulation(dt)
	c.applyPitch(dt)
	c.target.SetCutoff(c.modulatedCutoff())
}

func (c *Controller) updateModulation(dt float32) {
	c.modPhase += dt * lfoFreq
	c.modPhase -= float32(math.Floor(float64(c.modPhase)))
	sine := float32(math.Sin(2 * math.Pi * float64(c.modPhase)))
	var n float32
	if c.modNoise != nil {
		n = c.modNoise.Sample(c.modColor)
	}
	c.modSignal = sine*(1-c.modMix) + n*c.modMix
}

func (c *Controller) applyPitch(dt float32) {
	prev := c.pitchCurrent
	if glide := c.glideTime(); dt <= 0 || glide <= minGlide {
		c.pitchCurrent = c.pitchTarget
	} else {
		c.pitchCurrent += (c.pitchTarget - c.pitchCurrent) * clamp(dt/glide, 0, 1)
	}
	if c.started && abs(c.pitchCurrent-prev) <= minMove {
		return
	}
	c.started = true
	for i := 0; i < c.target.Voices(); i++ {
		c.target.SetVoltage(i, c.pitchCurrent)
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
