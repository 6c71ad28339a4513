// package osc provides the voltage controlled oscillators.
package osc

import (
	"fmt"
	"math"
	"strings"
)

// Waveform is one of the fixed set of oscillator shapes.
type Waveform byte

const (
	Saw Waveform = iota
	Pulse
	Triangle
	Sine
)

// Waveforms lists every Waveform in panel order.
var Waveforms = [...]Waveform{Saw, Pulse, Triangle, Sine}

func (w Waveform) String() string {
	switch w {
	case Saw:
		return "SAW"
	case Pulse:
		return "PULSE"
	case Triangle:
		return "TRI"
	case Sine:
		return "SINE"
	}
	return fmt.Sprintf("Waveform(%d)", byte(w))
}

// ParseWaveform is the inverse of Waveform.String, ignoring case.
func ParseWaveform(s string) (Waveform, error) {
	for _, w := range Waveforms {
		if strings.EqualFold(w.String(), s) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown waveform %q", s)
}

// Sample returns the value of the waveform at phase, which should be in
// [0, 1). The result is in [-1, 1]. Nothing is band limited.
func (w Waveform) Sample(phase float32) float32 {
	switch w {
	case Saw:
		return 2 * (phase - 0.5)
	case Pulse:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		return 4*abs(phase-0.5) - 1
	case Sine:
		return float32(math.Sin(2 * math.Pi * float64(phase)))
	}
	return 0
}

// ReferenceFreq is the frequency in Hz of 0V.
const ReferenceFreq = 55.0

// VoltageToFrequency maps a control voltage to Hz at one volt per octave, with
// 0V at ReferenceFreq.
func VoltageToFrequency(v float32) float32 {
	return ReferenceFreq * float32(math.Exp2(float64(v)))
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
