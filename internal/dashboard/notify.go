package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastWarning = "warning"
	ToastInfo    = "info"
)

// Toast is a transient notification. The browser slides it in, keeps it for
// Duration and slides it out over the fixed transition time.
type Toast struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Message   string        `json:"message"`
	Icon      string        `json:"icon"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"-"`
	// DurationMS is Duration for the browser's timers.
	DurationMS int64 `json:"duration_ms"`

	delivered bool
}

// ToastTransition is the slide-out time after Duration elapses.
const ToastTransition = 300 * time.Millisecond

// Expired reports whether the toast has fully left the screen at now.
func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.CreatedAt.Add(t.Duration + ToastTransition))
}

// ToastIcon maps a kind to its Font Awesome icon name.
func ToastIcon(kind string) string {
	switch kind {
	case ToastSuccess:
		return "check-circle"
	case ToastError:
		return "exclamation-circle"
	case ToastWarning:
		return "exclamation-triangle"
	default:
		return "info-circle"
	}
}

// ToastColors returns background and foreground colours for a kind.
func ToastColors(kind string) (bg, fg string) {
	switch kind {
	case ToastSuccess:
		return "#28a745", "white"
	case ToastError:
		return "#dc3545", "white"
	case ToastWarning:
		return "#ffc107", "#212529"
	default:
		return "#17a2b8", "white"
	}
}

// ToastBuffer is a thread-safe ring buffer of toasts
type ToastBuffer struct {
	mu       sync.Mutex
	entries  []Toast
	cap      int
	duration time.Duration
	now      func() time.Time
}

// NewToastBuffer creates a new toast buffer with the given capacity
func NewToastBuffer(capacity int, duration time.Duration) *ToastBuffer {
	if duration <= 0 {
		duration = 3 * time.Second
	}
	return &ToastBuffer{
		entries:  make([]Toast, 0, capacity),
		cap:      capacity,
		duration: duration,
		now:      time.Now,
	}
}

// Add queues a toast and returns it
func (tb *ToastBuffer) Add(kind, message string) Toast {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	switch kind {
	case ToastSuccess, ToastError, ToastWarning:
	default:
		kind = ToastInfo
	}
	t := Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Icon:      ToastIcon(kind),
		CreatedAt: tb.now(),
		Duration:  tb.duration,

		DurationMS: tb.duration.Milliseconds(),
	}

	if len(tb.entries) >= tb.cap {
		copy(tb.entries, tb.entries[1:])
		tb.entries[len(tb.entries)-1] = t
	} else {
		tb.entries = append(tb.entries, t)
	}
	return t
}

// Active returns toasts still on screen at now, oldest first
func (tb *ToastBuffer) Active(now time.Time) []Toast {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	result := make([]Toast, 0, len(tb.entries))
	for _, t := range tb.entries {
		if !t.Expired(now) {
			result = append(result, t)
		}
	}
	return result
}

// TakeUndelivered returns toasts not yet handed to the browser and marks
// them delivered
func (tb *ToastBuffer) TakeUndelivered() []Toast {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	result := make([]Toast, 0)
	for i := range tb.entries {
		if !tb.entries[i].delivered {
			tb.entries[i].delivered = true
			result = append(result, tb.entries[i])
		}
	}
	return result
}

// Prune drops expired toasts
func (tb *ToastBuffer) Prune(now time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	kept := tb.entries[:0]
	for _, t := range tb.entries {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	tb.entries = kept
}
