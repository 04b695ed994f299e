package present

import (
	"context"
	"errors"
	"sync"
)

// Async decouples the frame loop from a presenter that must run on another
// goroutine, typically the main thread for highgui. Present copies the
// images into a Slot and returns at once; Run drains the slot into the
// wrapped presenter.
type Async struct {
	inner Presenter
	slot  *Slot

	mu      sync.Mutex
	pending []Command
}

// NewAsync wraps inner.
func NewAsync(inner Presenter) *Async {
	return &Async{inner: inner, slot: NewSlot()}
}

// Present queues a copy of img and returns the oldest command entered on the
// wrapped presenter since the last call.
func (a *Async) Present(img Images) (Command, error) {
	if !a.slot.Put(img.Clone()) {
		return CommandQuit, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) == 0 {
		return CommandNone, nil
	}
	cmd := a.pending[0]
	a.pending = a.pending[1:]
	return cmd, nil
}

// Run presents queued images until ctx is done or Close is called. It must
// be called from the goroutine that owns the wrapped presenter, which is
// also responsible for closing it after Run returns.
func (a *Async) Run(ctx context.Context) error {
	for {
		img, err := a.slot.Take(ctx)
		if errors.Is(err, ErrSlotClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}

		cmd, err := a.inner.Present(img)
		img.Close()
		if err != nil {
			return err
		}
		if cmd != CommandNone {
			a.mu.Lock()
			a.pending = append(a.pending, cmd)
			a.mu.Unlock()
		}
	}
}

// Dropped returns how many frames were skipped because Run fell behind.
func (a *Async) Dropped() int {
	return a.slot.Dropped()
}

// Close stops Run. It does not close the wrapped presenter.
func (a *Async) Close() error {
	a.slot.Close()
	return nil
}

// controlled merges commands from an external control surface into a
// presenter's own input.
type controlled struct {
	Presenter
	controls <-chan Command
}

// WithControls returns a Presenter that, when p reports no input, returns
// the next command waiting on controls, if any.
func WithControls(p Presenter, controls <-chan Command) Presenter {
	if controls == nil {
		return p
	}
	return &controlled{Presenter: p, controls: controls}
}

func (c *controlled) Present(img Images) (Command, error) {
	cmd, err := c.Presenter.Present(img)
	if err != nil || cmd != CommandNone {
		return cmd, err
	}
	select {
	case cmd, ok := <-c.controls:
		if ok {
			return cmd, nil
		}
	default:
	}
	return CommandNone, nil
}
