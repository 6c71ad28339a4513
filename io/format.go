package io

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gen2brain/malgo"
	"golang.org/x/exp/constraints"
)

// Format is an interleaved sample encoding. All of them are little endian.
type Format byte

const (
	FormatUnknown Format = iota
	FormatU8
	FormatS16
	FormatS24
	FormatS32
	FormatF32
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	FormatU8:      "u8",
	FormatS16:     "s16",
	FormatS24:     "s24",
	FormatS32:     "s32",
	FormatF32:     "f32",
}

func (f Format) String() string {
	if int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", byte(f))
	}
	return formatNames[f]
}

// Size is the number of bytes in one sample, or 0 for an unknown format.
func (f Format) Size() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16:
		return 2
	case FormatS24:
		return 3
	case FormatS32, FormatF32:
		return 4
	}
	return 0
}

const (
	maxS24 = 1<<23 - 1
	// Limit is the largest magnitude ever handed to a device.
	Limit = 0.98
)

// encodeFunc writes a single sample at the start of dst.
type encodeFunc func(dst []byte, s float32)

func encoder(f Format) (encodeFunc, error) {
	switch f {
	case FormatU8:
		return func(dst []byte, s float32) {
			dst[0] = unsigned[uint8](s, math.MaxUint8)
		}, nil
	case FormatS16:
		return func(dst []byte, s float32) {
			binary.LittleEndian.PutUint16(dst, uint16(signed[int16](s, math.MaxInt16)))
		}, nil
	case FormatS24:
		return func(dst []byte, s float32) {
			v := uint32(signed[int32](s, maxS24))
			dst[0], dst[1], dst[2] = byte(v), byte(v>>8), byte(v>>16)
		}, nil
	case FormatS32:
		return func(dst []byte, s float32) {
			binary.LittleEndian.PutUint32(dst, uint32(signed[int32](s, math.MaxInt32)))
		}, nil
	case FormatF32:
		return func(dst []byte, s float32) {
			binary.LittleEndian.PutUint32(dst, math.Float32bits(s))
		}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
}

// signed scales s in [-1, 1] by full, rounding toward zero. The scaling is
// done in float64 so that 32 bit formats keep their precision.
func signed[T constraints.Signed](s float32, full T) T {
	return T(clamp(float64(s), -1, 1) * float64(full))
}

// unsigned offsets s from [-1, 1] into [0, 1] before scaling.
func unsigned[T constraints.Unsigned](s float32, full T) T {
	return T(clamp(float64(s)*0.5+0.5, 0, 1) * float64(full))
}

func clamp[T constraints.Float](x, lo, hi T) T {
	if !(x >= lo) {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func formatFromMalgo(f malgo.FormatType) Format {
	switch f {
	case malgo.FormatU8:
		return FormatU8
	case malgo.FormatS16:
		return FormatS16
	case malgo.FormatS24:
		return FormatS24
	case malgo.FormatS32:
		return FormatS32
	case malgo.FormatF32:
		return FormatF32
	}
	return FormatUnknown
}
