// Package present hands pipeline images to a display surface and turns user
// input into commands for the frame loop.
package present

import (
	"gocv.io/x/gocv"
)

// Command is a user request returned by a Presenter.
type Command int

const (
	// CommandNone means no input.
	CommandNone Command = iota
	// CommandQuit stops the frame loop.
	CommandQuit
	// CommandTogglePause freezes or resumes frame pulling.
	CommandTogglePause
	// CommandToggleDepth hides or shows the depth view.
	CommandToggleDepth
	// CommandToggleFrameID stamps or stops stamping frame numbers.
	CommandToggleFrameID
	// CommandEndSession ends the current tracking session.
	CommandEndSession
)

// Key codes understood by CommandForKey.
const (
	KeyEscape = 27
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandQuit:
		return "quit"
	case CommandTogglePause:
		return "toggle-pause"
	case CommandToggleDepth:
		return "toggle-depth"
	case CommandToggleFrameID:
		return "toggle-frame-id"
	case CommandEndSession:
		return "end-session"
	default:
		return "unknown"
	}
}

// CommandForKey maps a key code as returned by gocv.Window.WaitKey to a
// command. Unknown keys and -1 (no key) map to CommandNone.
func CommandForKey(key int) Command {
	if key < 0 {
		return CommandNone
	}
	switch key & 0xFF {
	case KeyEscape:
		return CommandQuit
	case 'p':
		return CommandTogglePause
	case 'd':
		return CommandToggleDepth
	case 'f':
		return CommandToggleFrameID
	case 'e':
		return CommandEndSession
	default:
		return CommandNone
	}
}

// Images is one frame's worth of display output. Presenters read the
// images and never close them; the owner does.
type Images struct {
	Seq       uint64
	DepthView gocv.Mat
	Overlay   gocv.Mat
	ColorView gocv.Mat
	// ShowDepth is false when the depth view is toggled off.
	ShowDepth bool
}

// Clone returns a deep copy of the images.
func (i Images) Clone() Images {
	c := i
	c.DepthView = i.DepthView.Clone()
	c.Overlay = i.Overlay.Clone()
	c.ColorView = i.ColorView.Clone()
	return c
}

// Close releases the images.
func (i Images) Close() {
	i.DepthView.Close()
	i.Overlay.Close()
	i.ColorView.Close()
}

// Presenter displays images and reports user input.
type Presenter interface {
	// Present shows the images and returns the command entered meanwhile.
	Present(img Images) (Command, error)
	// Close releases the display surface.
	Close() error
}
