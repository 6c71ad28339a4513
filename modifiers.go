package roog

import (
	"fmt"

	"github.com/pfcm/roog/env"
	"github.com/pfcm/roog/filter"
)

const (
	CutoffMin = 80.0
	CutoffMax = 18000.0
	// contourScale is how far the filter envelope can open the cutoff, in
	// multiples of the base cutoff.
	contourScale = 4.0
)

var (
	DefaultFilterEnvelope   = env.Params{Attack: 0.01, Decay: 0.2, Sustain: 0.5, Release: 0.2}
	DefaultLoudnessEnvelope = env.Params{Attack: 0.02, Decay: 0.1, Sustain: 1, Release: 0.2}
)

// Modifiers is the filter and amplifier: a ladder filter whose cutoff is
// opened by one envelope, followed by a VCA driven by another. Both
// envelopes follow the same gate.
type Modifiers struct {
	gate     bool
	cutoff   float32
	emphasis float32
	contour  float32

	filterEnv   *env.ADSR
	loudnessEnv *env.ADSR
	ladder      filter.Ladder
}

func NewModifiers() *Modifiers {
	return &Modifiers{
		cutoff:      2000,
		filterEnv:   env.NewADSR(DefaultFilterEnvelope),
		loudnessEnv: env.NewADSR(DefaultLoudnessEnvelope),
	}
}

func (m *Modifiers) String() string {
	return fmt.Sprintf("Modifiers(gate=%v cutoff=%.0fHz emphasis=%.2f contour=%.2f filter=%v loudness=%v)",
		m.gate, m.cutoff, m.emphasis, m.contour, m.filterEnv, m.loudnessEnv)
}

// SetGate triggers both envelopes on a rising edge and releases them on a
// falling edge. Repeating the current gate does nothing.
func (m *Modifiers) SetGate(on bool) {
	switch {
	case on && !m.gate:
		m.filterEnv.Trigger()
		m.loudnessEnv.Trigger()
	case !on && m.gate:
		m.filterEnv.Release()
		m.loudnessEnv.Release()
	}
	m.gate = on
}

func (m *Modifiers) Gate() bool { return m.gate }

// SetCutoff sets the base cutoff in Hz, clamped to [CutoffMin, CutoffMax].
func (m *Modifiers) SetCutoff(hz float32) { m.cutoff = clamp(hz, CutoffMin, CutoffMax) }

func (m *Modifiers) SetEmphasis(e float32) { m.emphasis = unit(e) }
func (m *Modifiers) SetContour(c float32)  { m.contour = unit(c) }

// SetFilterEnvelope changes the filter envelope, keeping its release.
func (m *Modifiers) SetFilterEnvelope(attack, decay, sustain float32) {
	setADS(m.filterEnv, attack, decay, sustain)
}

// SetLoudnessEnvelope changes the loudness envelope, keeping its release.
func (m *Modifiers) SetLoudnessEnvelope(attack, decay, sustain float32) {
	setADS(m.loudnessEnv, attack, decay, sustain)
}

func (m *Modifiers) SetFilterRelease(r float32)   { setRelease(m.filterEnv, r) }
func (m *Modifiers) SetLoudnessRelease(r float32) { setRelease(m.loudnessEnv, r) }

func (m *Modifiers) FilterEnvelope() *env.ADSR   { return m.filterEnv }
func (m *Modifiers) LoudnessEnvelope() *env.ADSR { return m.loudnessEnv }

// DynamicCutoff is the cutoff after the contour is applied, using the current
// filter envelope value.
func (m *Modifiers) DynamicCutoff() float32 {
	c := m.cutoff * (1 + m.contour*m.filterEnv.Value()*contourScale)
	return clamp(c, CutoffMin, CutoffMax)
}

// Process runs one sample through the envelopes, the filter and the VCA. dt
// is the sample period in seconds.
func (m *Modifiers) Process(in, dt float32) float32 {
	m.filterEnv.Update(dt)
	loudness := m.loudnessEnv.Update(dt)
	out := m.ladder.Process(in, m.DynamicCutoff(), m.emphasis, dt)
	return out * loudness
}

func setADS(a *env.ADSR, attack, decay, sustain float32) {
	p := a.Params()
	p.Attack, p.Decay, p.Sustain = attack, decay, sustain
	a.SetParams(p)
}

func setRelease(a *env.ADSR, release float32) {
	p := a.Params()
	p.Release = release
	a.SetParams(p)
}
