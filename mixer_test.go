package roog

import (
	"math"
	"testing"
)

func TestMixAllDisabled(t *testing.T) {
	m := NewMixer(3)
	for i := 0; i < 3; i++ {
		m.SetEnabled(i, false)
		m.SetLevel(i, 1)
	}
	m.SetNoiseEnabled(false)
	m.SetNoiseLevel(1)
	for _, master := range []float32{0, 0.5, 1} {
		m.SetMaster(master)
		for _, in := range [][]float32{{1, 1, 1}, {-1, 0.5, 0.25}, {100, -100, 3}} {
			if got := m.Mix(in, 0.9); got != 0 {
				t.Errorf("Mix(%v, 0.9) at master %v = %v, want: 0", in, master, got)
			}
		}
	}
}

func TestMix(t *testing.T) {
	m := NewMixer(3)
	m.SetLevel(0, 1)
	m.SetLevel(1, 0.5)
	m.SetEnabled(2, false)
	m.SetNoiseLevel(0.25)
	m.SetMaster(0.5)
	got := m.Mix([]float32{0.5, 1, 1}, 1)
	want := float32(0.5 * (0.5 + 0.5 + 0.25))
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("Mix = %v, want: %v", got, want)
	}
}

func TestMixerClamps(t *testing.T) {
	m := NewMixer(2)
	for _, c := range []struct {
		in, want float32
	}{
		{-1, 0},
		{0.25, 0.25},
		{3, 1},
		{float32(math.NaN()), 0},
	} {
		m.SetLevel(1, c.in)
		if got := m.Level(1); got != c.want {
			t.Errorf("SetLevel(%v): level %v, want: %v", c.in, got, c.want)
		}
		m.SetMaster(c.in)
		if got := m.Master(); got != c.want {
			t.Errorf("SetMaster(%v): master %v, want: %v", c.in, got, c.want)
		}
	}
}

func TestMixerIgnoresBadIndex(t *testing.T) {
	m := NewMixer(2)
	before := m.String()
	m.SetLevel(-1, 1)
	m.SetLevel(2, 1)
	m.SetEnabled(5, false)
	if after := m.String(); after != before {
		t.Errorf("bad index changed the mixer: %s -> %s", before, after)
	}
	if got := m.Level(7); got != 0 {
		t.Errorf("Level(7) = %v, want: 0", got)
	}
	// more samples than oscillators are ignored too.
	if got := m.Mix([]float32{0, 0, 1, 1}, 0); got != 0 {
		t.Errorf("Mix with extra samples = %v, want: 0", got)
	}
}
