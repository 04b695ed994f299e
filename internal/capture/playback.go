package capture

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/handpoint/internal/frame"
)

// Playback replays in-memory frames.
type Playback struct {
	frames   []frame.Frame
	index    int
	seq      uint64
	loop     bool
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
	running  bool
}

// NewPlayback creates a Playback over frames. With loop set it restarts
// from the first frame after the last one.
func NewPlayback(frames []frame.Frame, loop bool) *Playback {
	return &Playback{
		frames: frames,
		loop:   loop,
	}
}

// SetFPS paces NextFrame to at most fps frames per second.
// Values less than or equal to 0 disable pacing.
func (p *Playback) SetFPS(fps int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fps <= 0 {
		p.interval = 0
		return
	}
	p.interval = time.Second / time.Duration(fps)
}

func (p *Playback) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	p.index = 0
	return nil
}

func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	return nil
}

func (p *Playback) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextFrame returns a copy of the next frame so the stored frame is never
// modified by the pipeline.
func (p *Playback) NextFrame(ctx context.Context) (frame.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return frame.Frame{}, ErrSourceNotOpen
	}

	if len(p.frames) == 0 {
		return frame.Frame{}, ErrEndOfStream
	}

	if p.index >= len(p.frames) {
		if !p.loop {
			return frame.Frame{}, ErrEndOfStream
		}
		p.index = 0
	}

	if err := pace(ctx, p.last, p.interval); err != nil {
		return frame.Frame{}, err
	}

	f := p.frames[p.index].Clone()
	p.index++
	p.seq++
	f.Seq = p.seq
	p.last = time.Now()
	f.Timestamp = p.last

	return f, nil
}

// Reset restarts playback from the beginning.
func (p *Playback) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = 0
}

// pace waits until interval has elapsed since last.
func pace(ctx context.Context, last time.Time, interval time.Duration) error {
	if interval <= 0 || last.IsZero() {
		return ctx.Err()
	}
	wait := interval - time.Since(last)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
