// package midi handles midi.
package midi

import (
	"context"
	"log/slog"
	"sync"
)

// ChannelMask has bit n set to receive messages on channel n.
type ChannelMask uint16

const AllChannels ChannelMask = 0xFFFF

// Channel returns a mask matching just channel c (0 to 15).
func Channel(c byte) ChannelMask { return 1 << (c & 0xF) }

// Listener is function that blocks until its context is done, calling a
// provided callback with UMP midi messages.
type Listener func(context.Context, func([]uint32)) error

const subBuffer = 100

type sub struct {
	f filter
	c chan Message
}

// Dispatcher routes MIDI messages to a set of channels. Malformed input and
// messages for subscribers that aren't keeping up are logged and dropped.
type Dispatcher struct {
	log *slog.Logger

	mu      sync.Mutex
	subs    []sub
	closed  bool
	dropped int
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{log: log}
}

// Run feeds the Dispatcher from l until l returns, then closes every
// subscription.
func (d *Dispatcher) Run(ctx context.Context, l Listener) error {
	defer d.close()
	return l(ctx, d.Handle)
}

// Handle parses a batch of raw UMP words and dispatches the messages in it.
// Parsing stops at the first bad message.
func (d *Dispatcher) Handle(raw []uint32) {
	for len(raw) > 0 {
		msg, next, err := ParseMessage(raw)
		if err != nil {
			d.log.Debug("dropping midi", "words", len(raw), "err", err)
			return
		}
		d.dispatch(msg)
		raw = next
	}
}

func (d *Dispatcher) dispatch(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		if !s.f.match(msg) {
			continue
		}
		select {
		case s.c <- msg:
		default:
			d.dropped++
			d.log.Warn("midi subscriber full, dropping", "msg", msg, "dropped", d.dropped)
		}
	}
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		close(s.c)
	}
	d.subs = d.subs[:0]
	d.closed = true
}

// Subscribe returns a channel of the messages that pass every filter. The
// channel is closed when Run returns.
func (d *Dispatcher) Subscribe(opts ...SubscriptionFilter) <-chan Message {
	f := defaultFilter()
	for _, o := range opts {
		o(&f)
	}

	c := make(chan Message, subBuffer)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(c)
		return c
	}
	d.subs = append(d.subs, sub{f: f, c: c})
	return c
}

type filter struct {
	channels ChannelMask
	cv1Types [7]bool
}

func defaultFilter() filter {
	f := filter{
		channels: AllChannels,
	}
	for i := range f.cv1Types {
		f.cv1Types[i] = true
	}
	return f
}

func (f *filter) match(msg Message) bool {
	if Channel(msg.Channel)&f.channels == 0 {
		return false
	}
	return f.cv1Types[int(msg.CV1Type&0x7)]
}

type SubscriptionFilter func(f *filter)

func WithChannelMask(cm ChannelMask) SubscriptionFilter {
	return func(f *filter) { f.channels = cm }
}

func WithoutCV1Type(t CV1MessageType) SubscriptionFilter {
	return func(f *filter) {
		f.cv1Types[int(t&0x7)] = false
	}
}

// OnlyNotes drops everything but note on and note off.
func OnlyNotes() SubscriptionFilter {
	return func(f *filter) {
		for _, t := range []CV1MessageType{
			CV1PolyPressure, CV1ControlChange, CV1ProgramChange, CV1ChannelPressure, CV1PitchBend,
		} {
			WithoutCV1Type(t)(f)
		}
	}
}
