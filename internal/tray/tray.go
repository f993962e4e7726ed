// Package tray provides the desktop system tray menu of the gesture service.
package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/silexa/internal/announce"
)

// Tray is the system tray menu. It is also an announce.Announcer that shows the latest gesture.
type Tray struct {
	onToggle  func(enabled bool)
	onRetrain func()
	onOpen    func()
	onQuit    func()
	enabled   bool
	last      string
	status    string
	mu        sync.RWMutex

	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuStatus      *systray.MenuItem
	menuRetrain     *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		last:    lastTitle(nil),
		status:  "Model: not loaded",
	}
}

// OnToggle sets the callback called when detection is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnRetrain sets the callback called when "Retrain model" is clicked.
func (t *Tray) OnRetrain(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRetrain = fn
}

// OnOpen sets the callback called when "Open in browser" is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback called when "Quit" is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// It blocks until Quit, and must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("SILEXA")
	systray.SetTooltip("SILEXA gesture recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(t.last, "Last announced gesture")
	t.menuLastGesture.Disable()
	t.menuStatus = systray.AddMenuItem(t.status, "Active model")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuRetrain = systray.AddMenuItem("Retrain model", "Train a new model from the dataset")
	menuOpen := systray.AddMenuItem("Open in browser...", "Open the web interface")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit SILEXA")
	toggle, retrain := t.menuToggle, t.menuRetrain
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-retrain.ClickedCh:
				t.call(func(t *Tray) func() { return t.onRetrain })
			case <-menuOpen.ClickedCh:
				t.call(func(t *Tray) func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func(t *Tray) func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback selected by pick outside the lock.
func (t *Tray) call(pick func(*Tray) func()) {
	t.mu.RLock()
	callback := pick(t)
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// Announce shows e as the last gesture.
func (t *Tray) Announce(_ context.Context, e announce.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = lastTitle(&e)
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(t.last)
	}
	return nil
}

// SetStatus updates the model status line.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(status)
	}
}

// SetTraining greys out "Retrain model" while a run is active.
func (t *Tray) SetTraining(training bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuRetrain == nil {
		return
	}
	if training {
		t.menuRetrain.Disable()
	} else {
		t.menuRetrain.Enable()
	}
}

// LastGesture returns the text of the last gesture line.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Status returns the text of the model status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(e *announce.Event) string {
	switch {
	case e == nil:
		return "Last: none"
	case e.Probabilistic:
		return fmt.Sprintf("Last: %s (%.0f%%)", announce.Phrase(e.Label), e.Confidence*100)
	default:
		return "Last: " + announce.Phrase(e.Label)
	}
}
