package roog

import "fmt"

// Mixer sums the oscillators and the noise source by level. It has no state
// apart from its settings.
type Mixer struct {
	levels  []float32
	enabled []bool

	noiseLevel   float32
	noiseEnabled bool

	master float32
}

// NewMixer returns a mixer for n oscillators, all enabled at 0.33, noise
// enabled at zero and a master level of 0.7.
func NewMixer(n int) *Mixer {
	m := &Mixer{
		levels:       make([]float32, n),
		enabled:      make([]bool, n),
		noiseEnabled: true,
		master:       0.7,
	}
	for i := range m.levels {
		m.levels[i] = 0.33
		m.enabled[i] = true
	}
	return m
}

func (m *Mixer) String() string {
	return fmt.Sprintf("Mixer(%v %v noise=%v/%v master=%v)",
		m.levels, m.enabled, m.noiseLevel, m.noiseEnabled, m.master)
}

// SetLevel sets an oscillator's level, clamped to [0, 1]. Unknown oscillators
// are ignored.
func (m *Mixer) SetLevel(i int, level float32) {
	if i < 0 || i >= len(m.levels) {
		return
	}
	m.levels[i] = unit(level)
}

// SetEnabled switches an oscillator in or out. Unknown oscillators are
// ignored.
func (m *Mixer) SetEnabled(i int, on bool) {
	if i < 0 || i >= len(m.enabled) {
		return
	}
	m.enabled[i] = on
}

func (m *Mixer) SetNoiseLevel(level float32) { m.noiseLevel = unit(level) }
func (m *Mixer) SetNoiseEnabled(on bool)     { m.noiseEnabled = on }
func (m *Mixer) SetMaster(level float32)     { m.master = unit(level) }

// Level returns the level of oscillator i, or 0 if there isn't one.
func (m *Mixer) Level(i int) float32 {
	if i < 0 || i >= len(m.levels) {
		return 0
	}
	return m.levels[i]
}

func (m *Mixer) Master() float32 { return m.master }

// Mix combines one sample from each oscillator and one noise sample.
func (m *Mixer) Mix(voices []float32, noise float32) float32 {
	var sum float32
	for i, v := range voices {
		if i < len(m.enabled) && m.enabled[i] {
			sum += v * m.levels[i]
		}
	}
	if m.noiseEnabled {
		sum += noise * m.noiseLevel
	}
	return sum * m.master
}
