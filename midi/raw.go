package midi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// streamParser turns a MIDI 1.0 byte stream into UMP words. It keeps running
// status, and ignores realtime, system common and sysex bytes.
type streamParser struct {
	status byte
	data   [2]byte
	n      int
	sysex  bool
}

// feed adds one byte, returning a word if it completed a message.
func (p *streamParser) feed(b byte) (uint32, bool) {
	switch {
	case b >= 0xF8:
		// realtime can appear anywhere, even inside sysex.
		return 0, false
	case b == 0xF0:
		p.sysex, p.status = true, 0
		return 0, false
	case b == 0xF7:
		p.sysex = false
		return 0, false
	case b >= 0xF0:
		// system common cancels running status.
		p.status, p.sysex = 0, false
		return 0, false
	case b >= 0x80:
		p.status, p.n, p.sysex = b, 0, false
		return 0, false
	}
	if p.sysex || p.status == 0 {
		return 0, false
	}
	p.data[p.n] = b
	p.n++
	need := dataBytes(p.status)
	if p.n < need {
		return 0, false
	}
	if need == 1 {
		p.data[1] = 0
	}
	p.n = 0
	status := p.status
	if status&0xF0 == 0x90 && p.data[1] == 0 {
		status = 0x80 | status&0x0F
	}
	return Word(status, p.data[0], p.data[1]), true
}

func dataBytes(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	}
	return 2
}

// Stream returns a Listener reading a raw MIDI 1.0 byte stream from r, such as
// a /dev/snd/midiC*D* device. Note on with zero velocity is passed on as note
// off. If r is an io.Closer it is closed when the context is done, to unblock
// any pending read.
func Stream(r io.Reader) Listener {
	return func(ctx context.Context, f func([]uint32)) error {
		if c, ok := r.(io.Closer); ok {
			stop := context.AfterFunc(ctx, func() { c.Close() })
			defer stop()
		}
		var (
			p    streamParser
			buf  = make([]byte, 256)
			word [1]uint32
		)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				if w, ok := p.feed(b); ok {
					word[0] = w
					f(word[:])
				}
			}
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, io.EOF):
				return nil
			case err != nil:
				return fmt.Errorf("reading midi: %w", err)
			}
		}
	}
}

// OpenStream opens a raw MIDI device or file and returns a Listener for it.
func OpenStream(path string) (Listener, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening midi device: %w", err)
	}
	return Stream(f), nil
}
