// roog plays the synth on the default audio device, from a raw MIDI device or
// a built in arpeggio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfcm/roog"
	"github.com/pfcm/roog/hid"
	"github.com/pfcm/roog/internal/buffer"
	"github.com/pfcm/roog/io"
	"github.com/pfcm/roog/midi"
	"github.com/pfcm/roog/noise"
	"github.com/pfcm/roog/osc"
)

var (
	profileFlag = flag.Bool("profile", false, "whether to write pprof profiles to the current working directory")
	writeFlag   = flag.String("write", "", "also write the output to this wav `file`")
	backendFlag = flag.String("backend", "malgo", "audio `backend`, malgo or oto")
	rateFlag    = flag.Int("rate", 44100, "sample rate for the oto backend; malgo uses the device's")
	midiFlag    = flag.String("midi", "", "raw midi `device` to play from, such as /dev/snd/midiC1D0. Plays an arpeggio if empty")
	seedFlag    = flag.Uint64("seed", 0, "noise seed, 0 to seed from the clock")
	voicesFlag  = flag.Int("voices", 3, "number of oscillators")
	waveFlag    = flag.String("wave", "saw", "oscillator `waveform`: saw, pulse, tri or sine")
	scopeFlag   = flag.Duration("scope", 100*time.Millisecond, "how often to print the scope line, 0 to turn it off")
	logFlag     = flag.String("log", "info", "log `level`: debug, info, warn or error")

	cutoffFlag   = flag.Float64("cutoff", 0.5, "cutoff knob, 0 to 1")
	emphasisFlag = flag.Float64("emphasis", 0.3, "filter emphasis, 0 to 1")
	contourFlag  = flag.Float64("contour", 0.3, "filter contour amount, 0 to 1")
	glideFlag    = flag.Float64("glide", 0.1, "glide knob, 0 to 1")
	modMixFlag   = flag.Float64("modmix", 0, "modulation mix, 0 for the LFO and 1 for noise")
	tuneFlag     = flag.Float64("tune", 0.5, "tune knob, 0.5 is centred")
)

// detunes are the demo patch offsets in octaves, by voice.
var detunes = []float32{0, 0.03, -0.02}

const (
	ringSize    = 1024
	controlRate = 2 * time.Millisecond
)

func main() {
	flag.Parse()

	logger, err := newLogger(*logFlag)
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(logger)

	if *profileFlag {
		finish, err := startProfiles()
		if err != nil {
			log.Fatalf("Starting profiling: %v", err)
		}
		defer func() {
			if err := finish(); err != nil {
				log.Fatalf("Finishing profiles: %v", err)
			}
		}()
	}

	wave, err := osc.ParseWaveform(*waveFlag)
	if err != nil {
		log.Fatal(err)
	}
	seed := *seedFlag
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	synth := roog.New(roog.WithVoices(*voicesFlag), roog.WithNoise(noise.New(seed)))
	for i := range synth.Voices() {
		synth.SetWaveform(i, wave)
		if i < len(detunes) {
			synth.SetDetune(i, detunes[i])
		}
	}
	synth.SetEmphasis(float32(*emphasisFlag))
	synth.SetContourAmount(float32(*contourFlag))

	ctrl := roog.NewController(synth, noise.New(seed+1))
	ctrl.SetCutoff(float32(*cutoffFlag))
	ctrl.SetGlide(float32(*glideFlag))
	ctrl.SetModMix(float32(*modMixFlag))
	ctrl.SetTune(float32(*tuneFlag))
	ctrl.Update(0)
	keys := hid.NewKeyboard(ctrl)

	ring := buffer.NewRing(ringSize)
	out := &counting{Synth: synth}
	opts := []io.Option{io.WithLogger(logger), io.WithRing(ring)}
	if *writeFlag != "" {
		f, err := os.Create(*writeFlag)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logger.Info("writing output", "file", *writeFlag)
		opts = append(opts, io.WithRecorder(f))
	}

	g, ctx := errgroup.WithContext(interruptContext())

	g.Go(func() error {
		return synth.RunVoices(ctx)
	})
	g.Go(func() error {
		switch *backendFlag {
		case "malgo":
			return io.PlayWithDefaults(ctx, out, opts...)
		case "oto":
			return io.PlayOto(ctx, out, *rateFlag, opts...)
		}
		return fmt.Errorf("unknown backend %q", *backendFlag)
	})
	g.Go(func() error {
		return runControls(ctx, ctrl)
	})
	if *midiFlag != "" {
		l, err := midi.OpenStream(*midiFlag)
		if err != nil {
			log.Fatal(err)
		}
		d := midi.NewDispatcher(logger)
		notes := d.Subscribe(midi.OnlyNotes())
		g.Go(func() error { return d.Run(ctx, l) })
		g.Go(func() error { return keys.Run(ctx, notes) })
	} else {
		g.Go(func() error { return arpeggio(ctx, keys) })
	}
	if *scopeFlag > 0 {
		g.Go(func() error {
			return scope(ctx, *scopeFlag, ring, synth, &out.frames)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	fmt.Println()
}

// counting counts the samples played.
type counting struct {
	*roog.Synth
	frames atomic.Int64
}

func (c *counting) Generate(out []float32) {
	c.Synth.Generate(out)
	c.frames.Add(int64(len(out)))
}

func runControls(ctx context.Context, c *roog.Controller) error {
	t := time.NewTicker(controlRate)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			c.Update(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}

// arpeggio plays A minor up and down until the context is done.
func arpeggio(ctx context.Context, k *hid.Keyboard) error {
	notes := []byte{45, 48, 52, 57, 60, 57, 52, 48}
	const (
		step = 250 * time.Millisecond
		hold = 180 * time.Millisecond
	)
	for i := 0; ; i++ {
		n := notes[i%len(notes)]
		k.NoteOn(n, 100)
		select {
		case <-ctx.Done():
			k.NoteOff(n)
			return nil
		case <-time.After(hold):
		}
		k.NoteOff(n)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(step - hold):
		}
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func interruptContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}

func startProfiles() (func() error, error) {
	cpu, err := os.Create("cpu.pprof")
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(cpu); err != nil {
		return nil, fmt.Errorf("starting cpu profile: %w", err)
	}

	mem, err := os.Create("mem.pprof")
	if err != nil {
		return nil, err
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := cpu.Close(); err != nil {
			return err
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(mem); err != nil {
			return err
		}
		return mem.Close()
	}, nil
}
