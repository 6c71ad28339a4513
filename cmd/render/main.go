// render plays a single note through the synth offline, writes it to a wav
// file and shows the strongest parts of its spectrum.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pfcm/roog"
	rio "github.com/pfcm/roog/io"
	"github.com/pfcm/roog/noise"
	"github.com/pfcm/roog/osc"
	"github.com/pfcm/roog/spectrum"
)

var (
	durFlag        = flag.Duration("dur", 2*time.Second, "length of the render, the note is released at three quarters")
	rateFlag       = flag.Int("rate", 44100, "sample rate")
	waveFlag       = flag.String("wave", "saw", "oscillator `waveform`: saw, pulse, tri or sine")
	noteFlag       = flag.Int("note", 45, "midi note to play")
	noiseFlag      = flag.String("noise", "white", "noise `colour`: white, pink, brown, blue, violet or grey")
	noiseLevelFlag = flag.Float64("noise-level", 0, "noise level in the mix, 0 to 1")
	cutoffFlag     = flag.Float64("cutoff", 2000, "filter cutoff in Hz")
	emphasisFlag   = flag.Float64("emphasis", 0, "filter emphasis, 0 to 1")
	contourFlag    = flag.Float64("contour", 0, "filter contour amount, 0 to 1")
	seedFlag       = flag.Uint64("seed", 1, "noise seed")
	binsFlag       = flag.Int("bins", 1024, "spectrum `size` in bins")
	topFlag        = flag.Int("top", 10, "number of bins to show")
	outFlag        = flag.String("o", "", "wav `file` to write, nothing is written if empty")
)

func main() {
	flag.Parse()

	p, err := parsePatch()
	if err != nil {
		fail(err.Error())
	}
	samples := render(p, *rateFlag, int(durFlag.Seconds()*float64(*rateFlag)))

	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			fail(err.Error())
		}
		if err := rio.WriteWAV(f, *rateFlag, samples); err != nil {
			fail(err.Error())
		}
		if err := f.Close(); err != nil {
			fail(err.Error())
		}
	}

	pr := message.NewPrinter(language.English)
	pr.Printf("rendered %d samples at %dHz\n", len(samples), *rateFlag)

	// analyse the sustained part, before the release.
	window := min(2**binsFlag, len(samples)*3/4)
	start := len(samples)*3/4 - window
	spec := spectrum.Compute(samples[start : start+window])
	w := tabwriter.NewWriter(os.Stdout, 8, 1, 2, ' ', tabwriter.AlignRight)
	showSpectrum(w, spec, spectrum.Size(window), float32(*rateFlag), *topFlag)
	if err := w.Flush(); err != nil {
		fail(err.Error())
	}
}

type patch struct {
	wave       osc.Waveform
	voltage    float32
	color      noise.Color
	noiseLevel float32
	cutoff     float32
	emphasis   float32
	contour    float32
	seed       uint64
}

func parsePatch() (patch, error) {
	wave, err := osc.ParseWaveform(*waveFlag)
	if err != nil {
		return patch{}, err
	}
	color, err := noise.ParseColor(*noiseFlag)
	if err != nil {
		return patch{}, err
	}
	return patch{
		wave:       wave,
		voltage:    roog.MIDIToVoltage(*noteFlag),
		color:      color,
		noiseLevel: float32(*noiseLevelFlag),
		cutoff:     float32(*cutoffFlag),
		emphasis:   float32(*emphasisFlag),
		contour:    float32(*contourFlag),
		seed:       *seedFlag,
	}, nil
}

// render plays p for n samples, releasing the gate at three quarters of the
// way through. The output is clamped as it would be for a device.
func render(p patch, rate, n int) []float32 {
	s := roog.New(roog.WithNoise(noise.New(p.seed)))
	s.SetSampleRate(float32(rate))
	for i := range s.Voices() {
		s.SetWaveform(i, p.wave)
		s.SetVoltage(i, p.voltage)
	}
	// apply the oscillator commands now, there is nothing else to wait for.
	s.Close()
	if err := s.RunVoices(context.Background()); err != nil {
		fail(err.Error())
	}

	s.SetNoiseColor(p.color)
	s.SetNoiseLevel(p.noiseLevel)
	s.SetCutoff(p.cutoff)
	s.SetEmphasis(p.emphasis)
	s.SetContourAmount(p.contour)

	out := make([]float32, n)
	release := n * 3 / 4
	s.SetGate(true)
	s.Generate(out[:release])
	s.SetGate(false)
	s.Generate(out[release:])
	for i, v := range out {
		out[i] = min(max(v, -rio.Limit), rio.Limit)
	}
	return out
}

type bin struct {
	i int
	m float32
}

func showSpectrum(w io.Writer, spec []float32, size int, rate float32, top int) {
	bins := make([]bin, len(spec))
	for i, m := range spec {
		bins[i] = bin{i, m}
	}
	slices.SortFunc(bins, func(a, b bin) int {
		switch {
		case a.m > b.m:
			return -1
		case a.m < b.m:
			return 1
		}
		return a.i - b.i
	})
	fmt.Fprintln(w, "bin\tHz\tmagnitude\t")
	for _, b := range bins[:min(top, len(bins))] {
		fmt.Fprintf(w, "%d\t%.1f\t%.5f\t\n", b.i, spectrum.BinFrequency(b.i, size, rate), b.m)
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
