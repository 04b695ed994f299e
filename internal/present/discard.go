package present

import (
	"sync"
	"time"
)

// historySize bounds the frame records Discard keeps.
const historySize = 4096

// Shown records one frame seen by Discard.
type Shown struct {
	Seq       uint64
	ShowDepth bool
}

// Discard is a headless Presenter. It drops the images and replays a fixed
// script of commands, one per presented frame, then CommandNone.
type Discard struct {
	mu     sync.Mutex
	script []Command
	shown  []Shown
	frames int
	delay  time.Duration
	closed bool
}

// NewDiscard creates a Discard that returns script in order.
func NewDiscard(script ...Command) *Discard {
	return &Discard{script: script}
}

// SetDelay makes Present wait d before returning, standing in for the key
// wait of a window so a paused loop does not spin.
func (d *Discard) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Present records the frame and returns the next scripted command.
func (d *Discard) Present(img Images) (Command, error) {
	d.mu.Lock()
	delay := d.delay
	d.frames++
	if len(d.shown) == historySize {
		d.shown = append(d.shown[:0], d.shown[1:]...)
	}
	d.shown = append(d.shown, Shown{Seq: img.Seq, ShowDepth: img.ShowDepth})

	cmd := CommandNone
	if len(d.script) > 0 {
		cmd = d.script[0]
		d.script = d.script[1:]
	}
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return cmd, nil
}

// Frames returns the number of frames presented.
func (d *Discard) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Shown returns a copy of the most recent frame records, oldest first.
func (d *Discard) Shown() []Shown {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Shown, len(d.shown))
	copy(out, d.shown)
	return out
}

// Closed reports whether Close was called.
func (d *Discard) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close marks the presenter closed.
func (d *Discard) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
