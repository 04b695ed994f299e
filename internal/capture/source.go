// Package capture provides frame sources for the hand segmentation pipeline:
// in-memory playback, recorded sessions on disk and synthetic scenes.
package capture

import (
	"context"
	"errors"

	"github.com/ayusman/handpoint/internal/frame"
)

// ErrSourceNotOpen is returned when reading from a source that is not open.
var ErrSourceNotOpen = errors.New("source is not open")

// ErrEndOfStream is returned when a finite source has no more frames.
var ErrEndOfStream = errors.New("end of stream")

// Source defines the interface for frame providers. NextFrame blocks until
// a depth frame, color frame and tracking state are available, or ctx is done.
// The returned frame is owned by the caller.
type Source interface {
	Open() error
	Close() error
	NextFrame(ctx context.Context) (frame.Frame, error)
	IsOpen() bool
}
