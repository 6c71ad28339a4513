// command midi checks that midi is working, by printing every message from a
// raw midi device along with the pitch a keyboard would play.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/pfcm/roog"
	"github.com/pfcm/roog/midi"
)

var deviceFlag = flag.String("device", "/dev/snd/midiC1D0", "raw midi `device` to read")

func main() {
	flag.Parse()

	l, err := midi.OpenStream(*deviceFlag)
	if err != nil {
		log.Fatal(err)
	}
	d := midi.NewDispatcher(slog.Default())
	c := d.Subscribe()

	g, ctx := errgroup.WithContext(interruptContext())
	g.Go(func() error { return d.Run(ctx, l) })
	g.Go(func() error {
		for m := range c {
			if m.CV1Type == midi.CV1NoteOn || m.IsNoteOff() {
				fmt.Printf("%v\t%.3fV\n", m, roog.MIDIToVoltage(int(m.Note)))
				continue
			}
			fmt.Println(m)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	log.Println("all done")
}

func interruptContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
