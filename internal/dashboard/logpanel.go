package dashboard

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Log levels used by the activity panel.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarn    = "warn"
	LevelError   = "error"
)

// LogEntry is one line of the activity panel.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// LogBuffer keeps the most recent entries of an activity panel in a fixed
// ring. It is safe for concurrent use.
type LogBuffer struct {
	mu    sync.RWMutex
	ring  []LogEntry
	start int
	n     int
	now   func() time.Time

	// OnAdd, when set, receives every appended entry. Called without the
	// buffer lock held.
	OnAdd func(LogEntry)
}

// NewLogBuffer returns a buffer retaining up to capacity entries.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &LogBuffer{
		ring: make([]LogEntry, capacity),
		now:  time.Now,
	}
}

// Add appends an entry, overwriting the oldest once the ring is full.
func (lb *LogBuffer) Add(level, message string) {
	lb.mu.Lock()
	e := LogEntry{Timestamp: lb.now(), Level: level, Message: message}
	if lb.n < len(lb.ring) {
		lb.ring[(lb.start+lb.n)%len(lb.ring)] = e
		lb.n++
	} else {
		lb.ring[lb.start] = e
		lb.start = (lb.start + 1) % len(lb.ring)
	}
	hook := lb.OnAdd
	lb.mu.Unlock()

	if hook != nil {
		hook(e)
	}
}

// Entries returns retained entries oldest first. A non-empty levels list
// keeps only entries at those levels, compared case-insensitively.
func (lb *LogBuffer) Entries(levels []string) []LogEntry {
	var want map[string]struct{}
	if len(levels) > 0 {
		want = make(map[string]struct{}, len(levels))
		for _, l := range levels {
			want[strings.ToLower(l)] = struct{}{}
		}
	}

	lb.mu.RLock()
	defer lb.mu.RUnlock()
	out := make([]LogEntry, 0, lb.n)
	for i := 0; i < lb.n; i++ {
		e := lb.ring[(lb.start+i)%len(lb.ring)]
		if want != nil {
			if _, ok := want[strings.ToLower(e.Level)]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// Len reports the number of retained entries.
func (lb *LogBuffer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.n
}

// Clear drops every entry.
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	lb.start, lb.n = 0, 0
	lb.mu.Unlock()
}

func (lb *LogBuffer) Infof(format string, args ...interface{}) {
	lb.Add(LevelInfo, fmt.Sprintf(format, args...))
}

func (lb *LogBuffer) Successf(format string, args ...interface{}) {
	lb.Add(LevelSuccess, fmt.Sprintf(format, args...))
}

func (lb *LogBuffer) Warnf(format string, args ...interface{}) {
	lb.Add(LevelWarn, fmt.Sprintf(format, args...))
}

func (lb *LogBuffer) Errorf(format string, args ...interface{}) {
	lb.Add(LevelError, fmt.Sprintf(format, args...))
}
