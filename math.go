package roog

import "golang.org/x/exp/constraints"

// clamp forces x into [lo, hi]. NaN becomes lo.
func clamp[T constraints.Float](x, lo, hi T) T {
	if !(x >= lo) {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func unit(f float32) float32 { return clamp(f, 0, 1) }
