// package spectrum computes magnitude spectra of short sample windows for
// display.
package spectrum

import (
	"math/bits"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// MinSize is the smallest transform Compute will run.
const MinSize = 8

// Size returns the transform length used for n input samples: the next power
// of two, and at least MinSize.
func Size(n int) int {
	if n <= MinSize {
		return MinSize
	}
	return 1 << bits.Len(uint(n-1))
}

// Compute returns the magnitude spectrum of samples, zero padded up to
// Size(len(samples)). Only the lower half of the bins is returned since the
// input is real; each magnitude is divided by the transform size. An empty
// input gives an empty spectrum.
func Compute(samples []float32) []float32 {
	if len(samples) == 0 {
		return []float32{}
	}
	n := Size(len(samples))
	x := make([]float64, n)
	for i, s := range samples {
		x[i] = float64(s)
	}
	X := fft.FFTReal(x)
	out := make([]float32, n/2)
	for i := range out {
		out[i] = float32(cmplx.Abs(X[i]) / float64(n))
	}
	return out
}

// BinFrequency is the centre frequency of bin i of a spectrum computed from
// a transform of the given size.
func BinFrequency(i, size int, samplerate float32) float32 {
	return float32(i) * samplerate / float32(size)
}

// Peak returns the index and magnitude of the largest bin, ignoring bin 0
// unless it is the only one. It returns -1 for an empty spectrum.
func Peak(spec []float32) (int, float32) {
	switch len(spec) {
	case 0:
		return -1, 0
	case 1:
		return 0, spec[0]
	}
	best := 1
	for i := 2; i < len(spec); i++ {
		if spec[i] > spec[best] {
			best = i
		}
	}
	return best, spec[best]
}
