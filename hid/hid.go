// package hid handles human interface devices. Or IO that uses the same protocols,
// like MIDI.
package hid

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pfcm/roog"
	"github.com/pfcm/roog/midi"
)

// NoteSink is told the gate and pitch whenever the held notes change.
// *roog.Controller is a NoteSink.
type NoteSink interface {
	Note(gate bool, volts float32)
}

// Keyboard monophonically tracks MIDI note on and off messages with last
// note priority. The gate is open while any note is held and the pitch
// follows the most recent one. Releasing the last note closes the gate but
// leaves the pitch where it was.
type Keyboard struct {
	sink NoteSink

	mu      sync.Mutex
	held    []byte
	voltage float32
}

func NewKeyboard(sink NoteSink) *Keyboard {
	return &Keyboard{
		sink:    sink,
		held:    make([]byte, 0, 16),
		voltage: roog.MIDIToVoltage(48),
	}
}

func (k *Keyboard) String() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return fmt.Sprintf("Keyboard(%v %.3fV)", k.held, k.voltage)
}

// NoteOn presses a note. Zero velocity is a release.
func (k *Keyboard) NoteOn(note, velocity byte) {
	if velocity == 0 {
		k.NoteOff(note)
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.held = slices.DeleteFunc(k.held, func(n byte) bool { return n == note })
	k.held = append(k.held, note)
	k.voltage = roog.MIDIToVoltage(int(note))
	k.sink.Note(true, k.voltage)
}

// NoteOff releases a note. Releasing a note that isn't held does nothing.
func (k *Keyboard) NoteOff(note byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	i := slices.Index(k.held, note)
	if i < 0 {
		return
	}
	k.held = slices.Delete(k.held, i, i+1)
	if len(k.held) > 0 {
		k.voltage = roog.MIDIToVoltage(int(k.held[len(k.held)-1]))
	}
	k.sink.Note(len(k.held) > 0, k.voltage)
}

// Handle applies a note message and ignores everything else.
func (k *Keyboard) Handle(msg midi.Message) {
	switch {
	case msg.IsNoteOff():
		k.NoteOff(msg.Note)
	case msg.CV1Type == midi.CV1NoteOn:
		k.NoteOn(msg.Note, msg.Velocity)
	}
}

// Run handles messages from c until it is closed or the context is done.
func (k *Keyboard) Run(ctx context.Context, c <-chan midi.Message) error {
	for {
		select {
		case msg, ok := <-c:
			if !ok {
				return nil
			}
			k.Handle(msg)
		case <-ctx.Done():
			return nil
		}
	}
}

// Gate reports whether any note is held.
func (k *Keyboard) Gate() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.held) > 0
}

// Voltage is the pitch of the most recent note.
func (k *Keyboard) Voltage() float32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.voltage
}

// Held returns the held notes, oldest first.
func (k *Keyboard) Held() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return slices.Clone(k.held)
}
