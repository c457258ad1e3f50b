package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/icplatform/dashboard/internal/config"
	"github.com/icplatform/dashboard/internal/dashboard"
)

// stubBackend answers the handful of backend routes the api tests touch
// and records every request path.
type stubBackend struct {
	mu    sync.Mutex
	paths []string
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.paths = append(b.paths, r.Method+" "+r.URL.RequestURI())
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/configs":
		io.WriteString(w, `[{"id":5,"name":"dev-5","login_url":"http://10.0.0.5","ssh_host":"10.0.0.5","ssh_user":"root","ssh_pass":"pw"}]`)
	case r.URL.Path == "/api/login":
		io.WriteString(w, `{"message":"ok","session_key":"config_5"}`)
	case r.URL.Path == "/api/vnc/5":
		io.WriteString(w, `{"address":"10.0.0.1:5901","pass":"x"}`)
	case r.URL.Path == "/api/vnc":
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>novnc</html>")
	case strings.HasPrefix(r.URL.Path, "/api/configs/"):
		io.WriteString(w, `{"message":"deleted"}`)
	default:
		http.NotFound(w, r)
	}
}

func (b *stubBackend) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}

func newTestServer(t *testing.T) (*Server, *stubBackend) {
	t.Helper()
	stub := &stubBackend{}
	backendSrv := httptest.NewServer(stub)
	t.Cleanup(backendSrv.Close)

	cfg := config.Default()
	cfg.Backend.Endpoint = backendSrv.URL
	cfg.Backend.Flow = config.FlowSession

	s, err := NewServer(cfg, Options{Registry: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(s.Sessions().Close)
	return s, stub
}

func do(t *testing.T, s *Server, method, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func doTab(t *testing.T, s *Server, tab, action string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ui/actions/"+action, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(TabHeader, tab)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func tabOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatal(err)
	}
	tab, ok := doc.Find(`meta[name="icdash-tab"]`).Attr("content")
	if !ok || tab == "" {
		t.Fatal("page carries no tab id")
	}
	return tab
}

func decodeAction(t *testing.T, rec *httptest.ResponseRecorder) ActionResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp ActionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["flow"] != "session" {
		t.Errorf("body = %v", body)
	}
}

func TestPageStartsTabSession(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}
	if !strings.Contains(rec.Body.String(), `id="view"`) {
		t.Error("page has no view region")
	}
	if !strings.Contains(rec.Body.String(), "'"+TabHeader+"'") {
		t.Error("page script does not send the tab header")
	}
	first := tabOf(t, rec)
	if first != cookies[0].Value {
		t.Errorf("tab %q does not match cookie %q", first, cookies[0].Value)
	}

	// A second tab of the same browser sends the cookie but gets its own App.
	second := tabOf(t, do(t, s, http.MethodGet, "/", nil, cookies))
	if second == first {
		t.Error("second page load reused the first tab's session")
	}
	if s.Sessions().Len() != 2 {
		t.Errorf("sessions = %d", s.Sessions().Len())
	}
}

func TestTabsDoNotShareState(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	pageA := do(t, s, http.MethodGet, "/", nil, nil)
	cookies := pageA.Result().Cookies()
	tabA := tabOf(t, pageA)
	tabB := tabOf(t, do(t, s, http.MethodGet, "/", nil, cookies))

	decodeAction(t, doTab(t, s, tabA, "init", url.Values{}, cookies))
	decodeAction(t, doTab(t, s, tabB, "init", url.Values{}, cookies))
	decodeAction(t, doTab(t, s, tabB, "switch-view", url.Values{"view": {"configs"}}, cookies))
	decodeAction(t, doTab(t, s, tabB, "edit-config", url.Values{"id": {"5"}}, cookies))
	vnc := decodeAction(t, doTab(t, s, tabB, "open-vnc", url.Values{"id": {"5"}, "item": {"vnc1"}}, cookies))
	if len(vnc.Launches) != 1 || vnc.Tab != tabB {
		t.Fatalf("tab B response = %+v", vnc)
	}

	resp := decodeAction(t, doTab(t, s, tabA, "toggle-details", url.Values{"id": {"5"}}, cookies))
	if resp.Tab != tabA || resp.Restarted {
		t.Errorf("tab = %q restarted = %v", resp.Tab, resp.Restarted)
	}
	if !strings.Contains(resp.Fragments["view"], `data-view="devices"`) {
		t.Errorf("tab A view changed: %s", resp.Fragments["view"])
	}
	if strings.Contains(resp.Fragments["modal"], "config-form") {
		t.Error("tab B's modal leaked into tab A")
	}
	if len(resp.Launches) != 0 {
		t.Errorf("tab A received tab B's launches: %+v", resp.Launches)
	}
}

func TestExpiredTabReinitialises(t *testing.T) {
	t.Parallel()
	s, stub := newTestServer(t)

	resp := decodeAction(t, doTab(t, s, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "refresh-device", url.Values{"id": {"5"}}, nil))
	if !resp.Restarted || resp.Tab == "" || resp.Tab == "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Fatalf("restarted = %v tab = %q", resp.Restarted, resp.Tab)
	}
	if !strings.Contains(resp.Fragments["view"], `data-device-id="5"`) {
		t.Errorf("view not repopulated: %s", resp.Fragments["view"])
	}
	for _, p := range stub.Paths() {
		if strings.HasPrefix(p, "GET /api/scrape") {
			t.Errorf("stale action reached the backend: %v", stub.Paths())
		}
	}

	// The new tab id is live for the next action.
	next := decodeAction(t, doTab(t, s, resp.Tab, "switch-view", url.Values{"view": {"configs"}}, nil))
	if next.Restarted || next.Tab != resp.Tab {
		t.Errorf("follow-up = %+v", next)
	}
}

func TestActionInitRendersDevices(t *testing.T) {
	t.Parallel()
	s, stub := newTestServer(t)
	page := do(t, s, http.MethodGet, "/", nil, nil)
	cookies := page.Result().Cookies()

	resp := decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/init", url.Values{}, cookies))
	if !strings.Contains(resp.Fragments["view"], `data-device-id="5"`) {
		t.Errorf("view fragment = %s", resp.Fragments["view"])
	}
	if !strings.Contains(resp.Fragments["log-panel"], "dev-5 登录成功") {
		t.Errorf("log fragment = %s", resp.Fragments["log-panel"])
	}
	if resp.Launches == nil || len(resp.Launches) != 0 {
		t.Errorf("launches = %+v", resp.Launches)
	}

	paths := stub.Paths()
	if len(paths) != 2 || paths[0] != "GET /api/configs" || paths[1] != "POST /api/login" {
		t.Errorf("backend calls = %v", paths)
	}
}

func TestActionUnknown(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/ui/actions/rm-rf", url.Values{}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if s.Sessions().Len() != 0 {
		t.Error("rejected action created a session")
	}
}

func TestActionOpenVNCReturnsLaunch(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	cookies := do(t, s, http.MethodGet, "/", nil, nil).Result().Cookies()
	decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/init", url.Values{}, cookies))

	form := url.Values{
		"id":         {"5"},
		"item":       {"vnc1"},
		"_vp_left":   {"0"},
		"_vp_top":    {"0"},
		"_vp_width":  {"1600"},
		"_vp_height": {"1000"},
	}
	resp := decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/open-vnc", form, cookies))
	if len(resp.Launches) != 1 {
		t.Fatalf("launches = %+v", resp.Launches)
	}
	l := resp.Launches[0]
	if l.URL != "/api/vnc?address=10.0.0.1%3A5901&pass=x" || l.Name != "webshell-vnc1" {
		t.Errorf("launch = %+v", l)
	}
	if l.Left != 800-525 || l.Top != 500-430 || !l.Center {
		t.Errorf("geometry = %d,%d", l.Left, l.Top)
	}

	blocked := decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/popup-blocked", url.Values{"kind": {"vnc"}}, cookies))
	if len(blocked.Toasts) != 1 || blocked.Toasts[0].Kind != dashboard.ToastError || !strings.Contains(blocked.Toasts[0].HTML, "无法打开VNC窗口") {
		t.Errorf("toasts = %+v", blocked.Toasts)
	}
}

func TestActionDeleteNeedsConfirmation(t *testing.T) {
	t.Parallel()
	s, stub := newTestServer(t)
	cookies := do(t, s, http.MethodGet, "/", nil, nil).Result().Cookies()
	decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/init", url.Values{}, cookies))

	decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/delete-config", url.Values{"id": {"5"}}, cookies))
	for _, p := range stub.Paths() {
		if strings.HasPrefix(p, "DELETE") {
			t.Fatalf("unconfirmed delete reached the backend: %v", stub.Paths())
		}
	}

	decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/delete-config", url.Values{"id": {"5"}, "confirmed": {"true"}}, cookies))
	var deleted bool
	for _, p := range stub.Paths() {
		if p == "DELETE /api/configs/5" {
			deleted = true
		}
	}
	if !deleted {
		t.Errorf("backend calls = %v", stub.Paths())
	}
}

func TestActionValidationError(t *testing.T) {
	t.Parallel()
	s, stub := newTestServer(t)
	cookies := do(t, s, http.MethodGet, "/", nil, nil).Result().Cookies()

	resp := decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/save-config", url.Values{"name": {"x"}, "login_url": {"http://bad host"}}, cookies))
	if resp.Error == "" {
		t.Error("validation error not reported")
	}
	if len(resp.Toasts) != 1 || resp.Toasts[0].Message != "登录URL格式不正确" {
		t.Errorf("toasts = %+v", resp.Toasts)
	}
	if len(stub.Paths()) != 0 {
		t.Errorf("backend calls = %v", stub.Paths())
	}
}

func TestProxyForwardsLauncherPages(t *testing.T) {
	t.Parallel()
	s, stub := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/vnc?address=10.0.0.1%3A5901&pass=x", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "novnc") {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	paths := stub.Paths()
	if len(paths) != 1 || paths[0] != "GET /api/vnc?address=10.0.0.1%3A5901&pass=x" {
		t.Errorf("forwarded = %v", paths)
	}

	if rec := do(t, s, http.MethodGet, "/nope", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	cookies := do(t, s, http.MethodGet, "/", nil, nil).Result().Cookies()
	decodeAction(t, do(t, s, http.MethodPost, "/ui/actions/init", url.Values{}, cookies))

	rec := do(t, s, http.MethodGet, "/metrics", nil, nil)
	body := rec.Body.String()
	for _, want := range []string{
		`icdashboard_actions_total{action="init",result="ok"} 1`,
		"icdashboard_sessions 1",
		`icdashboard_backend_requests_total{code="200",op="login"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestLogsEndpoint(t *testing.T) {
	t.Parallel()
	activity := dashboard.NewLogBuffer(10)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	InstallLogCapture(logger, activity, logrus.WarnLevel)

	logger.Info("ignored")
	logger.WithField("config_id", 3).Warn("refresh device")
	logger.Error("boom")

	cfg := config.Default()
	s, err := NewServer(cfg, Options{Registry: prometheus.NewRegistry(), Activity: activity})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodGet, "/ui/logs?level=warn", nil, nil)
	var body struct {
		Entries []dashboard.LogEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Entries) != 1 || body.Entries[0].Message != "refresh device config_id=3" {
		t.Errorf("entries = %+v", body.Entries)
	}
	if activity.Len() != 2 {
		t.Errorf("captured = %d, want warn and error only", activity.Len())
	}
}

func TestLiveStreamsLogEntries(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	page, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	page.Body.Close()
	cookies := page.Cookies()

	header := http.Header{}
	for _, c := range cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ui/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/ui/actions/init", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "log" && strings.Contains(msg.HTML, "dev-5 登录成功") {
			return
		}
	}
}

func TestLiveRequiresSession(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/ui/live", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
	if s.hub.count() != 0 {
		t.Error("client registered without a session")
	}
}
