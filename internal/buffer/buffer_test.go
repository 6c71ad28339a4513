package buffer

import (
	"slices"
	"sync"
	"testing"
)

func seq(from, to int) []float32 {
	var out []float32
	for i := from; i < to; i++ {
		out = append(out, float32(i))
	}
	return out
}

func TestSnapshot(t *testing.T) {
	for _, c := range []struct {
		cap, pushed int
		want        []float32
	}{
		{cap: 4, pushed: 0, want: []float32{}},
		{cap: 4, pushed: 3, want: seq(0, 3)},
		{cap: 4, pushed: 4, want: seq(0, 4)},
		{cap: 4, pushed: 5, want: seq(1, 5)},
		{cap: 4, pushed: 11, want: seq(7, 11)},
		{cap: 1024, pushed: 1024 + 17, want: seq(17, 1024+17)},
	} {
		r := NewRing(c.cap)
		for i := 0; i < c.pushed; i++ {
			r.Push(float32(i))
		}
		got := r.Snapshot()
		if !slices.Equal(got, c.want) {
			t.Errorf("cap %d, pushed %d: Snapshot() = %v, want: %v", c.cap, c.pushed, got, c.want)
		}
		if r.Len() != len(c.want) {
			t.Errorf("cap %d, pushed %d: Len() = %d, want: %d", c.cap, c.pushed, r.Len(), len(c.want))
		}
	}
}

func TestWriteMatchesPush(t *testing.T) {
	for _, n := range []int{0, 3, 8, 9, 30} {
		a, b := NewRing(8), NewRing(8)
		a.Push(-1)
		b.Push(-1)
		in := seq(0, n)
		a.Write(in)
		for _, s := range in {
			b.Push(s)
		}
		if got, want := a.Snapshot(), b.Snapshot(); !slices.Equal(got, want) {
			t.Errorf("write %d: %v, pushes gave %v", n, got, want)
		}
		// and the cursor is in the same place.
		a.Push(100)
		b.Push(100)
		if got, want := a.Snapshot(), b.Snapshot(); !slices.Equal(got, want) {
			t.Errorf("write %d then push: %v, pushes gave %v", n, got, want)
		}
	}
}

func TestSnapshotInto(t *testing.T) {
	r := NewRing(4)
	r.Write(seq(0, 6))
	dst := make([]float32, 0, 4)
	got := r.SnapshotInto(dst)
	if !slices.Equal(got, seq(2, 6)) {
		t.Errorf("SnapshotInto() = %v, want: %v", got, seq(2, 6))
	}
	if &got[0] != &dst[:1][0] {
		t.Error("SnapshotInto did not reuse dst")
	}
}

func TestZeroSize(t *testing.T) {
	r := NewRing(0)
	r.Push(1)
	r.Push(2)
	if got := r.Snapshot(); !slices.Equal(got, []float32{2}) {
		t.Errorf("Snapshot() = %v, want: [2]", got)
	}
}

func TestConcurrentSnapshot(t *testing.T) {
	r := NewRing(64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			r.Push(float32(i))
		}
	}()
	for i := 0; i < 100; i++ {
		s := r.Snapshot()
		for j := 1; j < len(s); j++ {
			if s[j] != s[j-1]+1 {
				t.Fatalf("snapshot not contiguous at %d: %v", j, s)
			}
		}
	}
	wg.Wait()
}
