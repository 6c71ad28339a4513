// package env provides envelope generators.
package env

import (
	"fmt"
)

// Stage is the position of an ADSR in its cycle.
type Stage byte

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

func (s Stage) String() string {
	if int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", byte(s))
	}
	return stageNames[s]
}

var stageNames = []string{
	Idle:    "x",
	Attack:  "A",
	Decay:   "D",
	Sustain: "S",
	Release: "R",
}

const (
	// threshold is how close a segment gets to its target before snapping.
	threshold = 0.001
	// minTime stops zero length segments from dividing by zero, they
	// complete in a single update instead.
	minTime = 0.0001
)

// Params are the shape of an ADSR. Times are in seconds, Sustain is a level
// between 0 and 1.
type Params struct {
	Attack  float32
	Decay   float32
	Sustain float32
	Release float32
}

// Clamped returns a copy of p with negative (or NaN) times set to zero and the
// sustain level forced into [0, 1].
func (p Params) Clamped() Params {
	return Params{
		Attack:  positive(p.Attack),
		Decay:   positive(p.Decay),
		Sustain: min(positive(p.Sustain), 1),
		Release: positive(p.Release),
	}
}

func positive(f float32) float32 {
	if !(f > 0) {
		return 0
	}
	return f
}

func (p Params) String() string {
	return fmt.Sprintf("ADSR(%.3fs,%.3fs,%.2f,%.3fs)", p.Attack, p.Decay, p.Sustain, p.Release)
}

// ADSR is an attack-decay-sustain-release envelope. Each segment approaches its
// target exponentially, covering dt/time of the remaining distance per update.
//
// Trigger restarts the attack from wherever the envelope currently is rather
// than from zero, so retriggering during a release is legato.
type ADSR struct {
	params Params
	stage  Stage
	value  float32
}

// NewADSR returns an idle envelope with the given shape.
func NewADSR(p Params) *ADSR {
	return &ADSR{params: p.Clamped()}
}

// SetParams changes the shape. It takes effect on the next Update.
func (a *ADSR) SetParams(p Params) { a.params = p.Clamped() }

func (a *ADSR) Params() Params { return a.params }
func (a *ADSR) Stage() Stage   { return a.stage }
func (a *ADSR) Value() float32 { return a.value }

func (a *ADSR) String() string {
	return fmt.Sprintf("%v[%v %.3f]", a.params, a.stage, a.value)
}

// Trigger starts the attack segment from the current value.
func (a *ADSR) Trigger() {
	a.stage = Attack
}

// Release starts the release segment, unless the envelope is idle.
func (a *ADSR) Release() {
	if a.stage != Idle {
		a.stage = Release
	}
}

// Update advances the envelope by dt seconds and returns the new value.
func (a *ADSR) Update(dt float32) float32 {
	dt = positive(dt)
	switch a.stage {
	case Attack:
		a.value += (1 - a.value) * step(dt, a.params.Attack)
		if abs(1-a.value) < threshold {
			a.value = 1
			a.stage = Decay
		}
	case Decay:
		s := a.params.Sustain
		a.value += (s - a.value) * step(dt, a.params.Decay)
		if abs(s-a.value) < threshold {
			a.value = s
			a.stage = Sustain
		}
	case Sustain:
		a.value = a.params.Sustain
	case Release:
		a.value += -a.value * step(dt, a.params.Release)
		if a.value <= threshold {
			a.value = 0
			a.stage = Idle
		}
	}
	return a.value
}

// step is the fraction of the remaining distance to cover in dt.
func step(dt, time float32) float32 {
	return min(dt/max(time, minTime), 1)
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
