package present

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotClosed is returned by Take after Close.
var ErrSlotClosed = errors.New("slot closed")

// Slot is a single-slot handoff holding the latest Images. A Put replaces
// and closes any images not yet taken, so a slow consumer only ever sees the
// newest frame.
type Slot struct {
	mu     sync.Mutex
	img    Images
	full   bool
	closed bool
	ready  chan struct{}
	drops  int
}

// NewSlot creates an empty Slot.
func NewSlot() *Slot {
	return &Slot{ready: make(chan struct{}, 1)}
}

// Put stores img, taking ownership of it. It reports false and closes img
// when the slot is closed.
func (s *Slot) Put(img Images) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		img.Close()
		return false
	}
	if s.full {
		s.img.Close()
		s.drops++
	}
	s.img = img
	s.full = true

	select {
	case s.ready <- struct{}{}:
	default:
	}
	return true
}

// TryTake returns the stored images without blocking. The caller owns the
// returned images.
func (s *Slot) TryTake() (Images, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full {
		return Images{}, false
	}
	img := s.img
	s.img = Images{}
	s.full = false
	return img, true
}

// Take blocks until images are available, ctx is done or the slot is closed.
func (s *Slot) Take(ctx context.Context) (Images, error) {
	for {
		if img, ok := s.TryTake(); ok {
			return img, nil
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Images{}, ErrSlotClosed
		}

		select {
		case <-ctx.Done():
			return Images{}, ctx.Err()
		case <-s.ready:
		}
	}
}

// Dropped returns how many images were replaced before being taken.
func (s *Slot) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops
}

// Close releases any pending images and wakes blocked consumers.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.full {
		s.img.Close()
		s.img = Images{}
		s.full = false
	}
	close(s.ready)
}
