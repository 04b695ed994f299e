package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handpoint/internal/frame"
)

// IndexFile is the name of the recording index inside a recording directory.
const IndexFile = "index.json"

// Index describes a recorded session. Depth images are 16-bit single channel
// PNGs, color images 8-bit 3-channel PNGs, both relative to the directory.
type Index struct {
	FPS    int          `json:"fps"`
	Frames []IndexEntry `json:"frames"`
}

// IndexEntry is one recorded tick.
type IndexEntry struct {
	Depth string             `json:"depth"`
	Color string             `json:"color"`
	Hand  frame.TrackedPoint `json:"hand"`
}

// Recording plays back a recorded session from disk.
type Recording struct {
	dir      string
	index    Index
	pos      int
	seq      uint64
	loop     bool
	fps      int
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
	running  bool
}

// NewRecording creates a Recording for the given directory.
// The index is read on Open.
func NewRecording(dir string, loop bool) *Recording {
	return &Recording{dir: dir, loop: loop}
}

// SetFPS overrides the recorded frame rate from the next Open on.
// Values less than or equal to 0 restore the recorded rate.
func (r *Recording) SetFPS(fps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fps = fps
}

// Open reads the recording index and paces playback at its recorded FPS,
// or at the rate set with SetFPS.
func (r *Recording) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(r.dir, IndexFile))
	if err != nil {
		return fmt.Errorf("read recording index: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("parse recording index: %w", err)
	}

	r.index = index
	r.pos = 0
	fps := index.FPS
	if r.fps > 0 {
		fps = r.fps
	}
	r.interval = 0
	if fps > 0 {
		r.interval = time.Second / time.Duration(fps)
	}
	r.running = true
	return nil
}

func (r *Recording) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	return nil
}

func (r *Recording) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Len returns the number of recorded frames.
func (r *Recording) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.index.Frames)
}

// NextFrame decodes the next recorded frame.
func (r *Recording) NextFrame(ctx context.Context) (frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return frame.Frame{}, ErrSourceNotOpen
	}

	if r.pos >= len(r.index.Frames) {
		if !r.loop || len(r.index.Frames) == 0 {
			return frame.Frame{}, ErrEndOfStream
		}
		r.pos = 0
	}

	if err := pace(ctx, r.last, r.interval); err != nil {
		return frame.Frame{}, err
	}

	// A frame that fails to decode is skipped.
	pos := r.pos
	r.pos++
	f, err := readEntry(r.dir, r.index.Frames[pos])
	if err != nil {
		return frame.Frame{}, fmt.Errorf("frame %d: %w", pos, err)
	}

	r.seq++
	r.last = time.Now()
	f.Seq = r.seq
	f.Timestamp = r.last
	return f, nil
}

func readEntry(dir string, entry IndexEntry) (frame.Frame, error) {
	depthMat := gocv.IMRead(filepath.Join(dir, entry.Depth), gocv.IMReadUnchanged)
	defer depthMat.Close()
	if depthMat.Empty() {
		return frame.Frame{}, fmt.Errorf("decode depth %s", entry.Depth)
	}
	if depthMat.Type() != gocv.MatTypeCV16UC1 {
		return frame.Frame{}, fmt.Errorf("depth %s: want 16-bit single channel, got type %v", entry.Depth, depthMat.Type())
	}

	colorMat := gocv.IMRead(filepath.Join(dir, entry.Color), gocv.IMReadColor)
	defer colorMat.Close()
	if colorMat.Empty() {
		return frame.Frame{}, fmt.Errorf("decode color %s", entry.Color)
	}
	if colorMat.Rows() != depthMat.Rows() || colorMat.Cols() != depthMat.Cols() {
		return frame.Frame{}, fmt.Errorf("%w: color %dx%d, depth %dx%d", frame.ErrSizeMismatch,
			colorMat.Cols(), colorMat.Rows(), depthMat.Cols(), depthMat.Rows())
	}

	f := frame.New(depthMat.Cols(), depthMat.Rows())

	depth, err := depthMat.DataPtrUint16()
	if err != nil {
		return frame.Frame{}, fmt.Errorf("depth data: %w", err)
	}
	copy(f.Depth.Data, depth)

	bgr, err := colorMat.DataPtrUint8()
	if err != nil {
		return frame.Frame{}, fmt.Errorf("color data: %w", err)
	}
	for i := range f.Color.Data {
		f.Color.Data[i] = frame.RGB{R: bgr[i*3+2], G: bgr[i*3+1], B: bgr[i*3]}
	}

	f.Hand = entry.Hand
	return f, nil
}

// WriteRecording stores frames in dir using the layout Recording reads.
func WriteRecording(dir string, frames []frame.Frame, fps int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create recording directory: %w", err)
	}

	index := Index{FPS: fps, Frames: make([]IndexEntry, 0, len(frames))}
	for i, f := range frames {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		entry := IndexEntry{
			Depth: fmt.Sprintf("depth_%05d.png", i),
			Color: fmt.Sprintf("color_%05d.png", i),
			Hand:  f.Hand,
		}
		if err := writeDepth(filepath.Join(dir, entry.Depth), f.Depth); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := writeColor(filepath.Join(dir, entry.Color), f.Color); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		index.Frames = append(index.Frames, entry)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recording index: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, IndexFile), data, 0644)
}

func writeDepth(path string, d frame.DepthMap) error {
	m := gocv.NewMatWithSize(d.Height, d.Width, gocv.MatTypeCV16UC1)
	defer m.Close()

	data, err := m.DataPtrUint16()
	if err != nil {
		return err
	}
	copy(data, d.Data)

	if ok := gocv.IMWrite(path, m); !ok {
		return fmt.Errorf("write depth %s", path)
	}
	return nil
}

func writeColor(path string, c frame.ColorMap) error {
	m := gocv.NewMatWithSize(c.Height, c.Width, gocv.MatTypeCV8UC3)
	defer m.Close()

	data, err := m.DataPtrUint8()
	if err != nil {
		return err
	}
	for i, px := range c.Data {
		data[i*3] = px.B
		data[i*3+1] = px.G
		data[i*3+2] = px.R
	}

	if ok := gocv.IMWrite(path, m); !ok {
		return fmt.Errorf("write color %s", path)
	}
	return nil
}
