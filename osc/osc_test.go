package osc

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestVoltageToFrequency(t *testing.T) {
	for _, c := range []struct {
		v    float32
		want float32
	}{
		{0, 55},
		{1, 110},
		{2, 220},
		{-1, 27.5},
		{3, 440},
	} {
		got := VoltageToFrequency(c.v)
		if math.Abs(float64(got-c.want)) > 1e-3 {
			t.Errorf("VoltageToFrequency(%v) = %v, want: %v", c.v, got, c.want)
		}
	}
}

func TestWaveformSample(t *testing.T) {
	for _, c := range []struct {
		w     Waveform
		phase float32
		want  float32
	}{
		{Saw, 0, -1},
		{Saw, 0.5, 0},
		{Saw, 0.75, 0.5},
		{Pulse, 0, 1},
		{Pulse, 0.49, 1},
		{Pulse, 0.5, -1},
		{Triangle, 0, 1},
		{Triangle, 0.25, 0},
		{Triangle, 0.5, -1},
		{Sine, 0, 0},
		{Sine, 0.25, 1},
		{Sine, 0.75, -1},
	} {
		got := c.w.Sample(c.phase)
		if math.Abs(float64(got-c.want)) > 1e-6 {
			t.Errorf("%v.Sample(%v) = %v, want: %v", c.w, c.phase, got, c.want)
		}
	}
}

func TestWaveformRange(t *testing.T) {
	for _, w := range Waveforms {
		for i := 0; i < 1000; i++ {
			s := w.Sample(float32(i) / 1000)
			if s < -1 || s > 1 {
				t.Fatalf("%v.Sample(%v) = %v, out of range", w, float32(i)/1000, s)
			}
		}
	}
}

func TestParseWaveform(t *testing.T) {
	for _, w := range Waveforms {
		got, err := ParseWaveform(w.String())
		if err != nil || got != w {
			t.Errorf("ParseWaveform(%q) = %v, %v, want: %v", w.String(), got, err, w)
		}
	}
	if _, err := ParseWaveform("tri"); err != nil {
		t.Errorf("ParseWaveform(%q): %v", "tri", err)
	}
	if _, err := ParseWaveform("square"); err == nil {
		t.Errorf("ParseWaveform(%q) succeeded, want error", "square")
	}
}

func TestStateFrequency(t *testing.T) {
	s := NewState()
	if got := s.Frequency(); got != 55 {
		t.Errorf("initial frequency = %v, want: 55", got)
	}
	s.SetVoltage(1)
	if got := s.Frequency(); math.Abs(float64(got-110)) > 1e-3 {
		t.Errorf("frequency at 1V = %v, want: 110", got)
	}
	s.SetDetune(1)
	if got := s.Frequency(); math.Abs(float64(got-220)) > 1e-3 {
		t.Errorf("frequency at 1V + 1oct = %v, want: 220", got)
	}
	s.SetVoltage(0)
	if got := s.Frequency(); math.Abs(float64(got-110)) > 1e-3 {
		t.Errorf("frequency at 0V + 1oct = %v, want: 110", got)
	}
}

func TestSamplerPhaseRange(t *testing.T) {
	for _, c := range []struct {
		voltage    float32
		samplerate float32
	}{
		{0, 44100},
		{8, 44100},
		{10, 8000}, // far above nyquist
		{-20, 48000},
		{3, 1},
	} {
		s := NewState()
		s.SetVoltage(c.voltage)
		sm := NewSampler(s)
		for i := 0; i < 10000; i++ {
			sm.Sample(c.samplerate)
			if p := sm.Phase(); p < 0 || p >= 1 {
				t.Fatalf("%vV at %vHz: phase %v after %d ticks", c.voltage, c.samplerate, p, i)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	for _, c := range []struct {
		in, out float32
	}{
		{0, 0},
		{0.25, 0.25},
		{1, 0},
		{1.5, 0.5},
		{float32(math.Inf(1)), 0},
		{float32(math.NaN()), 0},
	} {
		if got := wrap(c.in); got != c.out {
			t.Errorf("wrap(%v) = %v, want: %v", c.in, got, c.out)
		}
	}
}

func TestBankFill(t *testing.T) {
	a, b := NewState(), NewState()
	b.SetWaveform(Pulse)
	bank := NewBank(a, b)
	if bank.Len() != 2 {
		t.Fatalf("Len() = %d, want: 2", bank.Len())
	}
	out := make([]float32, 3)
	out[2] = 42
	bank.Fill(44100, out)
	if out[1] != 1 {
		t.Errorf("pulse voice = %v, want: 1", out[1])
	}
	if out[2] != 42 {
		t.Errorf("slot beyond the bank was written: %v", out[2])
	}
	// Shorter than the bank is fine too.
	bank.Fill(44100, out[:1])
}

func TestVoiceAppliesInOrder(t *testing.T) {
	v := NewVoice()
	v.Send(SetVoltage(2))
	v.Send(SetDetune(-1))
	v.Send(SetWaveform(Sine))
	v.Send(SetVoltage(1))
	v.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatal(err)
	}
	freq, w := v.State().Read()
	if w != Sine {
		t.Errorf("waveform = %v, want: %v", w, Sine)
	}
	if math.Abs(float64(freq-55)) > 1e-3 {
		t.Errorf("frequency = %v, want: 55", freq)
	}
}

func TestVoiceSendAfterClose(t *testing.T) {
	v := NewVoice()
	v.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			v.Send(SetVoltage(float32(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked after Close")
	}
	if err := v.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := v.State().Frequency(); got != 55 {
		t.Errorf("frequency = %v, commands after Close should be dropped", got)
	}
}

func TestVoiceSendAfterCancel(t *testing.T) {
	v := NewVoice()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100000; i++ {
		v.Send(SetVoltage(1))
	}
	v.mu.Lock()
	n, closed := len(v.pending), v.closed
	v.mu.Unlock()
	if !closed {
		t.Error("voice still open after Run returned")
	}
	if n != 0 {
		t.Errorf("%d commands queued after Run returned, want: 0", n)
	}
}

func TestVoiceRunConcurrent(t *testing.T) {
	v := NewVoice()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- v.Run(ctx) }()

	sm := NewSampler(v.State())
	for i := 0; i < 1000; i++ {
		v.Send(SetVoltage(float32(i%5) / 4))
		sm.Sample(44100)
	}
	v.Send(SetVoltage(1))
	deadline := time.Now().Add(5 * time.Second)
	for math.Abs(float64(v.State().Frequency()-110)) > 1e-3 {
		if time.Now().After(deadline) {
			t.Fatal("last command never applied")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
