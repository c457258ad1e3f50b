package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/icplatform/dashboard/internal/backend"
	"github.com/icplatform/dashboard/internal/config"
	"github.com/sirupsen/logrus"
)

// Backend is the subset of the backend API the controller needs.
type Backend interface {
	Flow() config.Flow
	Status() backend.ConnectionStatus
	ListConfigs(ctx context.Context) ([]backend.Config, error)
	CreateConfig(ctx context.Context, cfg backend.Config) error
	UpdateConfig(ctx context.Context, id int, cfg backend.Config) error
	DeleteConfig(ctx context.Context, id int) error
	Login(ctx context.Context, id int) (string, error)
	Scrape(ctx context.Context, id int) ([]backend.Component, error)
	TestSSH(ctx context.Context, req backend.SSHTestRequest) (*backend.SSHTestResult, error)
	Execute(ctx context.Context, req backend.ExecuteRequest) (*backend.ExecuteResult, error)
	VNCAddress(ctx context.Context, id int, itemName string) (*backend.VNCTarget, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// Options tune a new App.
type Options struct {
	Title         string
	ToastDuration time.Duration
	LogCapacity   int
	Opener        Opener
	Metrics       *backend.Metrics
	Now           func() time.Time
}

// App is the state and controller of one dashboard tab. Operations update
// the state and never render; render functions read a Snapshot.
//
// Operations must not run concurrently on one App. Dispatch serialises them,
// the way the browser's event loop did. Snapshot may be called at any time.
type App struct {
	actionMu sync.Mutex

	mu sync.RWMutex
	st State

	backend Backend
	opener  Opener
	metrics *backend.Metrics
	log     *LogBuffer
	toasts  *ToastBuffer
	now     func() time.Time
	logger  *logrus.Entry
}

// New creates an App in the devices view with no data loaded.
func New(b Backend, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = 500
	}
	if opts.Opener == nil {
		opts.Opener = &LaunchQueue{}
	}

	lb := NewLogBuffer(opts.LogCapacity)
	lb.now = opts.Now
	tb := NewToastBuffer(20, opts.ToastDuration)
	tb.now = opts.Now

	return &App{
		st: State{
			Title:       opts.Title,
			Flow:        b.Flow(),
			View:        ViewDevices,
			Configs:     []backend.Config{},
			Devices:     []Device{},
			SessionKeys: map[int]string{},
			Fetched:     map[int]Fetched{},
			Expanded:    map[int]bool{},
		},
		backend: b,
		opener:  opts.Opener,
		metrics: opts.Metrics,
		log:     lb,
		toasts:  tb,
		now:     opts.Now,
		logger:  logrus.WithField("component", "dashboard"),
	}
}

// Log exposes the activity panel buffer.
func (a *App) Log() *LogBuffer { return a.log }

// Toasts exposes the notification buffer.
func (a *App) Toasts() *ToastBuffer { return a.toasts }

// Snapshot returns a copy of the current state for rendering.
func (a *App) Snapshot() State {
	now := a.now()
	a.toasts.Prune(now)

	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.st
	s.Configs = append([]backend.Config(nil), a.st.Configs...)
	s.Devices = append([]Device(nil), a.st.Devices...)
	s.SessionKeys = make(map[int]string, len(a.st.SessionKeys))
	for k, v := range a.st.SessionKeys {
		s.SessionKeys[k] = v
	}
	s.Fetched = make(map[int]Fetched, len(a.st.Fetched))
	for k, v := range a.st.Fetched {
		s.Fetched[k] = v
	}
	s.Expanded = make(map[int]bool, len(a.st.Expanded))
	for k, v := range a.st.Expanded {
		s.Expanded[k] = v
	}
	if a.st.Modal != nil {
		m := *a.st.Modal
		m.Values = make(Form, len(a.st.Modal.Values))
		for k, v := range a.st.Modal.Values {
			m.Values[k] = v
		}
		s.Modal = &m
	}
	s.Backend = a.backend.Status()
	s.Log = a.log.Entries(nil)
	s.Toasts = a.toasts.Active(now)
	return s
}

// SetViewport records the browser geometry used to centre new windows.
func (a *App) SetViewport(vp Viewport) {
	a.mu.Lock()
	a.st.Viewport = vp
	a.mu.Unlock()
}

func (a *App) update(fn func(s *State)) {
	a.mu.Lock()
	fn(&a.st)
	a.mu.Unlock()
}

func (a *App) read() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.st
}

// rederive recomputes the device rows; callers hold a.mu.
func (a *App) rederive(s *State) {
	s.Devices = DeriveDevices(s.Flow, s.Configs, s.SessionKeys, s.Fetched)
}

func (a *App) notify(kind, message string) {
	a.toasts.Add(kind, message)
}

// setSessionKey caches key for config id; callers hold a.mu.
func (a *App) setSessionKey(s *State, id int, key string) {
	if _, ok := s.SessionKeys[id]; !ok {
		a.metrics.SessionKeyAdded()
	}
	s.SessionKeys[id] = key
}

// evictSessionKey drops the key of config id only; callers hold a.mu.
func (a *App) evictSessionKey(s *State, id int) {
	if _, ok := s.SessionKeys[id]; ok {
		delete(s.SessionKeys, id)
		a.metrics.SessionKeyRemoved()
	}
}

// Close releases per-tab resources such as cached session key gauges.
func (a *App) Close() {
	a.update(func(s *State) {
		for id := range s.SessionKeys {
			a.evictSessionKey(s, id)
		}
	})
}
