package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/icplatform/dashboard/internal/backend"
	"github.com/icplatform/dashboard/internal/config"
	"github.com/icplatform/dashboard/internal/dashboard"
	"github.com/icplatform/dashboard/internal/ui"
)

const (
	// TabHeader carries the tab id the page was rendered with. Each page
	// load is its own session, so two tabs never share an App.
	TabHeader = "X-Dashboard-Tab"
	// SessionCookie holds the most recently rendered tab id; it is only
	// consulted when a request carries no tab id.
	SessionCookie = "icdash_session"

	tabParam = "tab"
)

// Options carry process-wide collaborators into NewServer.
type Options struct {
	// Registry receives the service and backend metrics. A fresh registry
	// is used when nil.
	Registry *prometheus.Registry
	// Activity receives captured process logs served at /ui/logs.
	Activity *dashboard.LogBuffer
}

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	client   *backend.Client
	metrics  *Metrics
	registry *prometheus.Registry
	sessions *SessionStore
	hub      *liveHub
	activity *dashboard.LogBuffer
	proxy    *httputil.ReverseProxy
	upgrader websocket.Upgrader
	engine   *gin.Engine
	log      *logrus.Entry
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Activity == nil {
		opts.Activity = dashboard.NewLogBuffer(cfg.UI.LogCapacity)
	}

	backendMetrics := backend.NewMetrics(opts.Registry)
	client := backend.NewClient(&cfg.Backend, backendMetrics)
	proxy, err := newBackendProxy(client)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		client:   client,
		metrics:  NewMetrics(opts.Registry),
		registry: opts.Registry,
		hub:      newLiveHub(),
		activity: opts.Activity,
		proxy:    proxy,
		log:      logrus.WithField("component", "api"),
	}

	s.sessions = NewSessionStore(cfg.Server.SessionTTL, func(opener dashboard.Opener) *dashboard.App {
		return dashboard.New(client, dashboard.Options{
			Title:         cfg.UI.Title,
			ToastDuration: cfg.UI.ToastDuration,
			LogCapacity:   cfg.UI.LogCapacity,
			Opener:        opener,
			Metrics:       backendMetrics,
		})
	})
	s.sessions.OnCreate = func(sess *session) {
		sess.app.Log().OnAdd = s.hub.logPublisher(sess.id)
		s.metrics.sessions.Inc()
		s.log.WithField("session", sess.id).Debug("session created")
	}
	s.sessions.OnEvict = func(sess *session) {
		s.hub.drop(sess.id)
		s.metrics.sessions.Dec()
		s.log.WithField("session", sess.id).Debug("session evicted")
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	ginMode.Do(func() { gin.SetMode(gin.ReleaseMode) })
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	if origins := s.config.Server.CORSOrigins; len(origins) > 0 {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = origins
		cc.AllowCredentials = true
		r.Use(cors.New(cc))
	}

	// Health check
	r.GET("/health", s.handleHealth)
	r.GET(s.metricsPath(), gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// Dashboard
	r.GET("/", s.handlePage)
	r.POST("/ui/actions/:name", s.handleAction)
	r.GET("/ui/live", s.handleLive)
	r.GET("/ui/logs", s.handleLogs)

	// Launcher pages and the backend API are served by the backend.
	r.NoRoute(s.handleProxy)

	s.engine = r
}

func (s *Server) metricsPath() string {
	if p := s.config.Server.MetricsPath; p != "" {
		return p
	}
	return "/metrics"
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Sessions exposes the session store.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"backend": s.config.Backend.Endpoint,
			"flow":    s.config.Backend.Flow,
		}).Info("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.Close()
	return err
}

func (s *Server) sweepLoop(ctx context.Context) {
	interval := s.config.Server.SessionTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.log.WithField("evicted", n).Info("idle sessions evicted")
			}
		}
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	st := s.client.Status()
	backendStatus := gin.H{"connected": st.Connected}
	if st.LastError != "" {
		backendStatus["last_error"] = st.LastError
	}
	if !st.LastSeen.IsZero() {
		backendStatus["last_seen"] = st.LastSeen
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"flow":     s.client.Flow(),
		"backend":  backendStatus,
		"sessions": s.sessions.Len(),
	})
}

// sessionFromRequest resolves the tab id from the header, the query (for
// websockets) or, failing both, the cookie. An explicit but unknown tab id
// never falls back to the cookie, which may belong to another tab.
func (s *Server) sessionFromRequest(c *gin.Context) (*session, bool) {
	id := c.GetHeader(TabHeader)
	if id == "" {
		id = c.Query(tabParam)
	}
	if id == "" {
		var err error
		if id, err = c.Cookie(SessionCookie); err != nil {
			return nil, false
		}
	}
	return s.sessions.Get(id)
}

// newSession starts a tab session and points the fallback cookie at it.
func (s *Server) newSession(c *gin.Context) *session {
	sess := s.sessions.Create()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.id, 0, "/", "", false, true)
	return sess
}

// handlePage renders the full dashboard for the caller's tab.
func (s *Server) handlePage(c *gin.Context) {
	sess := s.newSession(c)
	state := sess.app.Snapshot()
	// Toasts on the page are played by the page itself.
	sess.app.Toasts().TakeUndelivered()

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := ui.Render(c.Writer, ui.Page(state, sess.id)); err != nil {
		s.log.WithError(err).Error("render page")
	}
}

// ToastPayload is a toast plus its rendered markup.
type ToastPayload struct {
	dashboard.Toast
	HTML string `json:"html"`
}

// ActionResponse tells the page what changed after an action.
type ActionResponse struct {
	Fragments map[string]string  `json:"fragments"`
	Toasts    []ToastPayload     `json:"toasts"`
	Launches  []dashboard.Launch `json:"launches"`
	Error     string             `json:"error,omitempty"`
	// Tab is the session the action ran in. It differs from the one the
	// page sent when that session had expired.
	Tab string `json:"tab"`
	// Restarted reports that the tab's session had expired; the requested
	// action was replaced by init so the page is repopulated.
	Restarted bool `json:"restarted,omitempty"`
}

const viewportPrefix = "_vp_"

var ginMode sync.Once

// handleAction dispatches a named action for the caller's tab and returns
// the re-rendered regions, new toasts and windows to open.
func (s *Server) handleAction(c *gin.Context) {
	name := c.Param("name")
	if !dashboard.Known(name) {
		s.metrics.actions.WithLabelValues("unknown", "rejected").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown action: " + name})
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := ActionResponse{}
	sess, ok := s.sessionFromRequest(c)
	if !ok {
		sess = s.newSession(c)
		if name != dashboard.ActionInit {
			s.log.WithField("action", name).Debug("tab session expired, re-initialising")
			name = dashboard.ActionInit
			resp.Restarted = true
		}
	}
	resp.Tab = sess.id
	args, vp := splitArgs(dashboard.FormFromValues(c.Request.PostForm))
	if vp.Width > 0 && vp.Height > 0 {
		sess.app.SetViewport(vp)
	}

	// The action outlives a closed tab; results land in the session.
	ctx := context.WithoutCancel(c.Request.Context())
	start := time.Now()
	err := sess.app.Dispatch(ctx, name, args)

	result := "ok"
	if err != nil {
		result = "error"
		resp.Error = err.Error()
		var ve *dashboard.ValidationError
		if errors.As(err, &ve) {
			result = "invalid"
		}
	}
	s.metrics.actions.WithLabelValues(name, result).Inc()
	s.log.WithFields(logrus.Fields{
		"session":  sess.id,
		"action":   name,
		"result":   result,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("action")

	fragments, rerr := ui.Fragments(sess.app.Snapshot())
	if rerr != nil {
		s.log.WithError(rerr).Error("render fragments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": rerr.Error()})
		return
	}
	resp.Fragments = fragments
	resp.Toasts = renderToasts(sess.app.Toasts().TakeUndelivered())
	resp.Launches = sess.launches.Drain()
	if resp.Launches == nil {
		resp.Launches = []dashboard.Launch{}
	}
	c.JSON(http.StatusOK, resp)
}

// splitArgs separates viewport geometry from action arguments.
func splitArgs(f dashboard.Form) (dashboard.Args, dashboard.Viewport) {
	args := dashboard.Args{}
	var vp dashboard.Viewport
	for k, v := range f {
		if !strings.HasPrefix(k, viewportPrefix) {
			args[k] = v
			continue
		}
		n, err := strconv.Atoi(strings.SplitN(v, ".", 2)[0])
		if err != nil {
			continue
		}
		switch strings.TrimPrefix(k, viewportPrefix) {
		case "left":
			vp.ScreenLeft = n
		case "top":
			vp.ScreenTop = n
		case "width":
			vp.Width = n
		case "height":
			vp.Height = n
		}
	}
	return args, vp
}

func renderToasts(toasts []dashboard.Toast) []ToastPayload {
	out := make([]ToastPayload, 0, len(toasts))
	for _, t := range toasts {
		html, err := ui.RenderString(ui.Toast(t))
		if err != nil {
			continue
		}
		out = append(out, ToastPayload{Toast: t, HTML: html})
	}
	return out
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).Round(time.Millisecond),
		})
		switch {
		case status >= 500:
			entry.Warn("request failed")
		default:
			entry.Debug("request")
		}
	}
}
