// package noise provides a coloured noise source.
package noise

import (
	"fmt"
	"strings"
	"time"
)

// Color selects one of the noise spectra a Generator produces.
type Color byte

const (
	White Color = iota
	Pink
	Brown
	Blue
	Violet
	Grey

	numColors
)

func (c Color) String() string {
	switch c {
	case White:
		return "WHITE"
	case Pink:
		return "PINK"
	case Brown:
		return "BROWN"
	case Blue:
		return "BLUE"
	case Violet:
		return "VIOLET"
	case Grey:
		return "GREY"
	}
	return fmt.Sprintf("Color(%d)", byte(c))
}

// Next cycles through the colours, wrapping from Grey back to White.
func (c Color) Next() Color {
	return (c + 1) % numColors
}

// ParseColor is the inverse of Color.String, ignoring case.
func ParseColor(s string) (Color, error) {
	for c := White; c < numColors; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown noise color %q", s)
}

// Colors holds one sample of every colour, indexed by Color.
type Colors [numColors]float32

// Generator is a single noise stream. Every call advances the state behind
// every colour, so changing which colour is read never leaves a filter stale.
// The output is fully determined by the seed and the number of calls.
type Generator struct {
	seed      uint64
	pink      [7]float32
	brown     float32
	whiteLast float32
	whitePrev float32
}

// New returns a Generator with the given seed. A seed of 0 is treated as 1.
func New(seed uint64) *Generator {
	return &Generator{seed: max(seed, 1)}
}

// NewRandom returns a Generator seeded from the clock.
func NewRandom() *Generator {
	return New(uint64(time.Now().UnixNano()))
}

// Sample advances the generator and returns the selected colour.
func (g *Generator) Sample(c Color) float32 {
	all := g.Next()
	if c >= numColors {
		return 0
	}
	return all[c]
}

// Next advances the generator by one sample and returns every colour.
func (g *Generator) Next() Colors {
	white := g.white()
	last, prev := g.whiteLast, g.whitePrev
	g.whitePrev = last
	g.whiteLast = white

	pink := g.pinkSample(white)
	return Colors{
		White:  white,
		Pink:   pink,
		Brown:  g.brownSample(white),
		Blue:   clamp(white-last, -1, 1),
		Violet: clamp(white-2*last+prev, -1, 1),
		Grey:   clamp(float32(white*0.35)+float32(pink*0.65), -1, 1),
	}
}

// white is a 64 bit LCG with the top 53 bits mapped onto [-1, 1].
func (g *Generator) white() float32 {
	g.seed = g.seed*6364136223846793005 + 1
	bits := g.seed >> 11
	normalized := float64(bits) / float64(uint64(1)<<53)
	return float32(normalized)*2 - 1
}

// pinkSample is Paul Kellet's refined pink filter. Every product is rounded
// with an explicit conversion so the compiler cannot fuse it into a
// multiply-add, which keeps the stream identical across architectures.
func (g *Generator) pinkSample(white float32) float32 {
	p := &g.pink
	p[0] = float32(0.99886*p[0]) + float32(white*0.0555179)
	p[1] = float32(0.99332*p[1]) + float32(white*0.0750759)
	p[2] = float32(0.96900*p[2]) + float32(white*0.1538520)
	p[3] = float32(0.86650*p[3]) + float32(white*0.3104856)
	p[4] = float32(0.55000*p[4]) + float32(white*0.5329522)
	p[5] = float32(-0.7616*p[5]) - float32(white*0.0168980)
	p[6] = white * 0.115926
	return (p[0] + p[1] + p[2] + p[3] + p[4] + p[5] + p[6] + float32(white*0.5362)) * 0.11
}

func (g *Generator) brownSample(white float32) float32 {
	g.brown = clamp(g.brown+float32(white*0.02), -1.5, 1.5)
	return g.brown
}

func clamp(f, lo, hi float32) float32 {
	return min(max(f, lo), hi)
}
