package dashboard

import (
	"fmt"
	"sync"
)

// Launch kinds, also used by the browser when reporting a blocked popup.
const (
	LaunchWebShell = "webshell"
	LaunchVNC      = "vnc"
	LaunchLogin    = "login"
)

// Opener opens browser windows. Open returns false when the window could not
// be opened (a blocked popup).
type Opener interface {
	Open(l Launch) bool
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(Launch) bool

func (f OpenerFunc) Open(l Launch) bool { return f(l) }

// LaunchQueue is an Opener that hands launches to the browser with the next
// action response. The browser reports failures back as popup-blocked.
type LaunchQueue struct {
	mu      sync.Mutex
	pending []Launch
}

// Open queues l and optimistically reports success.
func (q *LaunchQueue) Open(l Launch) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, l)
	return true
}

// Drain returns and clears the queued launches.
func (q *LaunchQueue) Drain() []Launch {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func windowFeatures(width, height int) string {
	return fmt.Sprintf("width=%d,height=%d,scrollbars=yes,resizable=yes,menubar=no,toolbar=no,location=no,status=no", width, height)
}

// centredWindow computes a launch whose window is centred on the viewport.
func centredWindow(kind, url, name string, width, height int, vp Viewport) Launch {
	return Launch{
		Kind:     kind,
		URL:      url,
		Name:     name,
		Features: windowFeatures(width, height),
		Center:   true,
		Left:     vp.Width/2 - width/2 + vp.ScreenLeft,
		Top:      vp.Height/2 - height/2 + vp.ScreenTop,
	}
}
