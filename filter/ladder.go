// package filter provides filters.
package filter

import (
	"fmt"
	"math"
)

const (
	// MaxG keeps the one-pole stages stable at any cutoff.
	MaxG = 0.99
	// resonanceScale maps emphasis in [0, 1] onto the feedback gain.
	resonanceScale = 4.0
)

// Ladder is a Moog-style 4 pole low pass ladder: four one-pole stages with a
// tanh between each and the output of the last fed back into the input.
type Ladder struct {
	stages [4]float32
}

func (l *Ladder) String() string { return fmt.Sprintf("Ladder%v", l.stages) }

// Reset clears the filter state.
func (l *Ladder) Reset() { l.stages = [4]float32{} }

// Output returns the most recent output without processing anything.
func (l *Ladder) Output() float32 { return l.stages[3] }

// Process filters a single sample. cutoff is in Hz, emphasis in [0, 1] and dt
// is the sample period in seconds.
func (l *Ladder) Process(in, cutoff, emphasis, dt float32) float32 {
	g := min(max(2*math.Pi*cutoff*dt, 0), MaxG)
	feedback := l.stages[3] * (emphasis * resonanceScale)
	drive := tanh(in - feedback)
	l.stages[0] += g * (drive - l.stages[0])
	for k := 1; k < len(l.stages); k++ {
		l.stages[k] += g * (tanh(l.stages[k-1]) - l.stages[k])
	}
	return l.stages[3]
}

func tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}
