// Package tray provides a system tray control surface for headless handpoint
// runs. Menu clicks are delivered as present commands.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handpoint/internal/present"
)

// commandBuffer bounds the clicks queued before the frame loop reads them.
const commandBuffer = 8

// Tray represents the system tray application.
type Tray struct {
	commands chan present.Command
	onQuit   func()

	paused    bool
	showDepth bool
	session   string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuPause   *systray.MenuItem
	menuDepth   *systray.MenuItem
	menuSession *systray.MenuItem
}

// New creates a new Tray with the depth view shown and playback running.
func New() *Tray {
	return &Tray{
		commands:  make(chan present.Command, commandBuffer),
		showDepth: true,
		session:   "not in session",
	}
}

// Commands returns the channel carrying menu commands.
func (t *Tray) Commands() <-chan present.Command {
	return t.commands
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("handpoint")
	systray.SetTooltip("handpoint hand contour tracker")

	t.mu.Lock()
	t.menuSession = systray.AddMenuItem(sessionTitle(t.session), "Tracking session state")
	t.menuSession.Disable()
	systray.AddSeparator()

	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Freeze or resume frame processing")
	t.menuDepth = systray.AddMenuItem(depthTitle(t.showDepth), "Show or hide the depth view")
	t.mu.Unlock()

	menuFrameID := systray.AddMenuItem("Toggle frame numbers", "Stamp frame numbers on the overlay")
	menuEnd := systray.AddMenuItem("End session", "End the current tracking session")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handpoint")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-t.menuDepth.ClickedCh:
				t.handleDepth()
			case <-menuFrameID.ClickedCh:
				t.send(present.CommandToggleFrameID)
			case <-menuEnd.ClickedCh:
				t.send(present.CommandEndSession)
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// send queues cmd, dropping it when the frame loop is not keeping up.
func (t *Tray) send(cmd present.Command) bool {
	select {
	case t.commands <- cmd:
		return true
	default:
		return false
	}
}

// handlePause handles the pause menu item click.
func (t *Tray) handlePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A dropped command leaves the loop unchanged, so the menu must too.
	if !t.send(present.CommandTogglePause) {
		return
	}
	t.paused = !t.paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(t.paused))
	}
}

// handleDepth handles the depth view menu item click.
func (t *Tray) handleDepth() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.send(present.CommandToggleDepth) {
		return
	}
	t.showDepth = !t.showDepth
	if t.menuDepth != nil {
		t.menuDepth.SetTitle(depthTitle(t.showDepth))
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	t.send(present.CommandQuit)
	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetSessionState updates the session line of the menu.
func (t *Tray) SetSessionState(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.session = state
	if t.menuSession != nil {
		t.menuSession.SetTitle(sessionTitle(state))
	}
}

// IsPaused returns whether the tray last requested a pause.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// ShowsDepth returns whether the tray last requested the depth view.
func (t *Tray) ShowsDepth() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.showDepth
}

func pauseTitle(paused bool) string {
	if paused {
		return "▶ Resume"
	}
	return "❚❚ Pause"
}

func depthTitle(shown bool) string {
	if shown {
		return "● Depth view"
	}
	return "○ Depth view"
}

func sessionTitle(state string) string {
	return "Session: " + state
}
