package midi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestParseChannelVoice1(t *testing.T) {
	for _, c := range []struct {
		raw  uint32
		want Message
	}{{
		raw:  0x2090407F,
		want: Message{Type: MTChannelVoice1, CV1Type: CV1NoteOn, Note: 0x40, Velocity: 0x7F},
	}, {
		raw:  0x23813C00,
		want: Message{Type: MTChannelVoice1, Group: 3, CV1Type: CV1NoteOff, Channel: 1, Note: 0x3C},
	}, {
		raw:  0x20B50740,
		want: Message{Type: MTChannelVoice1, CV1Type: CV1ControlChange, Channel: 5, Note: 7, Velocity: 0x40},
	}, {
		raw:  0x20C20500,
		want: Message{Type: MTChannelVoice1, CV1Type: CV1ProgramChange, Channel: 2, Note: 5},
	}, {
		raw:  0x20D06400,
		want: Message{Type: MTChannelVoice1, CV1Type: CV1ChannelPressure, Velocity: 0x64},
	}, {
		raw:  0x20E00040,
		want: Message{Type: MTChannelVoice1, CV1Type: CV1PitchBend, PitchBend: 0x2000},
	}} {
		got, next, err := ParseMessage([]uint32{c.raw, 1})
		if err != nil {
			t.Fatalf("ParseMessage(%#x): %v", c.raw, err)
		}
		if got != c.want {
			t.Errorf("ParseMessage(%#x) = %v, want: %v", c.raw, got, c.want)
		}
		if len(next) != 1 {
			t.Errorf("ParseMessage(%#x) left %d words, want: 1", c.raw, len(next))
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, _, err := ParseMessage(nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("ParseMessage(nil) error = %v, want: %v", err, ErrNoInput)
	}
	if _, _, err := ParseMessage([]uint32{0x40000000, 0}); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("MIDI 2.0 message error = %v, want: %v", err, ErrNotImplemented)
	}
	if _, _, err := ParseMessage([]uint32{0x40000000}); err == nil {
		t.Error("no error for a truncated message")
	}
	if _, err := ParseMessages([]uint32{0x2090407F, 0x40000000, 0}); err == nil {
		t.Error("ParseMessages accepted a batch with a bad message")
	}
}

func TestWord(t *testing.T) {
	if got, want := Word(0x90, 0x40, 0x7F), uint32(0x2090407F); got != want {
		t.Errorf("Word(90 40 7F) = %#x, want: %#x", got, want)
	}
	msg, _, err := ParseMessage([]uint32{Word(0xE3, 0x7F, 0x7F)})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Channel != 3 || msg.PitchBend != 0x3FFF {
		t.Errorf("pitch bend round trip: %v", msg)
	}
}

func words(in []byte) []uint32 {
	var (
		p   streamParser
		out []uint32
	)
	for _, b := range in {
		if w, ok := p.feed(b); ok {
			out = append(out, w)
		}
	}
	return out
}

func TestStreamParser(t *testing.T) {
	for _, c := range []struct {
		name string
		in   []byte
		want []uint32
	}{{
		name: "running status",
		in:   []byte{0x90, 0x40, 0x7F, 0x40, 0x00},
		want: []uint32{0x2090407F, 0x20804000},
	}, {
		name: "realtime in the middle",
		in:   []byte{0x90, 0xF8, 0x40, 0xFE, 0x7F},
		want: []uint32{0x2090407F},
	}, {
		name: "sysex skipped",
		in:   []byte{0xF0, 0x7E, 0x01, 0x02, 0xF7, 0x91, 0x3C, 0x10},
		want: []uint32{0x20913C10},
	}, {
		name: "sysex cancels running status",
		in:   []byte{0x90, 0x40, 0x7F, 0xF0, 0x01, 0xF7, 0x41, 0x7F},
		want: []uint32{0x2090407F},
	}, {
		name: "one data byte",
		in:   []byte{0xC0, 0x05, 0x06, 0xD1, 0x64},
		want: []uint32{0x20C00500, 0x20C00600, 0x20D16400},
	}, {
		name: "leading data ignored",
		in:   []byte{0x40, 0x7F, 0x80, 0x40, 0x00},
		want: []uint32{0x20804000},
	}} {
		got := words(c.in)
		if len(got) != len(c.want) {
			t.Errorf("%s: got %#x, want: %#x", c.name, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("%s: word %d = %#x, want: %#x", c.name, i, got[i], c.want[i])
			}
		}
	}
}

func TestStreamNoteOnThenOff(t *testing.T) {
	d := NewDispatcher(nil)
	c := d.Subscribe()
	err := d.Run(context.Background(), Stream(bytes.NewReader([]byte{0x90, 0x40, 0x7F, 0x40, 0x00})))
	if err != nil {
		t.Fatal(err)
	}
	var got []Message
	for m := range c {
		got = append(got, m)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want two messages", got)
	}
	if got[0].CV1Type != CV1NoteOn || got[0].Note != 0x40 || got[0].Velocity != 0x7F {
		t.Errorf("first message %v, want a note on", got[0])
	}
	if !got[1].IsNoteOff() || got[1].Note != 0x40 {
		t.Errorf("second message %v, want a note off", got[1])
	}
}

func TestSubscriptionFilters(t *testing.T) {
	d := NewDispatcher(nil)
	all := d.Subscribe()
	notes := d.Subscribe(OnlyNotes())
	ch0 := d.Subscribe(WithChannelMask(Channel(0)))
	d.Handle([]uint32{
		Word(0x90, 60, 100),
		Word(0xB0, 7, 100),
		Word(0x85, 60, 0),
		Word(0xE0, 0, 0x40),
	})
	d.close()

	count := func(c <-chan Message) int {
		n := 0
		for range c {
			n++
		}
		return n
	}
	if n := count(all); n != 4 {
		t.Errorf("unfiltered subscription got %d messages, want: 4", n)
	}
	if n := count(notes); n != 2 {
		t.Errorf("notes subscription got %d messages, want: 2", n)
	}
	if n := count(ch0); n != 3 {
		t.Errorf("channel 0 subscription got %d messages, want: 3", n)
	}
	// subscribing after close gets a closed channel.
	if _, ok := <-d.Subscribe(); ok {
		t.Error("subscription after close is open")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	d := NewDispatcher(nil)
	d.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 3 * subBuffer {
			d.Handle([]uint32{Word(0x90, 60, 100)})
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Handle blocked on a full subscriber")
	}
}

// blockingReader blocks until closed.
type blockingReader struct {
	closed chan struct{}
}

func (b *blockingReader) Read([]byte) (int, error) {
	<-b.closed
	return 0, io.ErrClosedPipe
}

func (b *blockingReader) Close() error {
	close(b.closed)
	return nil
}

func TestStreamStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- Stream(&blockingReader{closed: make(chan struct{})})(ctx, func([]uint32) {})
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stream returned %v after cancel, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stream did not return after cancel")
	}
}
