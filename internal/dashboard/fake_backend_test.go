package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/icplatform/dashboard/internal/backend"
	"github.com/icplatform/dashboard/internal/config"
)

// fakeBackend is an in-memory stand-in for the device-management backend.
type fakeBackend struct {
	mu       sync.Mutex
	configs  []backend.Config
	requests []string
	bodies   map[string][]byte

	listFail     bool
	loginFail    map[int]bool
	scrapeStatus map[int]int
	scrapeItems  map[int][]backend.Component
	vnc          map[string]backend.VNCTarget
}

func newFakeBackend(configs ...backend.Config) *fakeBackend {
	return &fakeBackend{
		configs:      configs,
		bodies:       map[string][]byte{},
		loginFail:    map[int]bool{},
		scrapeStatus: map[int]int{},
		scrapeItems:  map[int][]backend.Component{},
		vnc:          map[string]backend.VNCTarget{},
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, key)
	f.bodies[key] = body

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && (path == "/api/configs" || path == "/api/devices"):
		if f.listFail {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, `{"error":"upstream"}`)
			return
		}
		json.NewEncoder(w).Encode(f.configs)

	case r.Method == http.MethodPost && path == "/api/configs":
		var c backend.Config
		json.Unmarshal(body, &c)
		max := 0
		for _, existing := range f.configs {
			if existing.ID > max {
				max = existing.ID
			}
		}
		c.ID = max + 1
		f.configs = append(f.configs, c)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(c)

	case strings.HasPrefix(path, "/api/configs/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(path, "/api/configs/"))
		for i, existing := range f.configs {
			if existing.ID != id {
				continue
			}
			if r.Method == http.MethodDelete {
				f.configs = append(f.configs[:i], f.configs[i+1:]...)
				w.Write([]byte(`{"message":"deleted"}`))
				return
			}
			var c backend.Config
			json.Unmarshal(body, &c)
			c.ID = id
			f.configs[i] = c
			json.NewEncoder(w).Encode(c)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"配置未找到"}`))

	case r.Method == http.MethodPost && path == "/api/login":
		var req struct {
			ConfigID int `json:"config_id"`
		}
		json.Unmarshal(body, &req)
		if f.loginFail[req.ConfigID] {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"登录失败: timeout"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"session_key": "config_" + strconv.Itoa(req.ConfigID)})

	case strings.HasPrefix(path, "/api/scrape/"), strings.HasPrefix(path, "/api/csmp/"):
		idStr := path[strings.LastIndex(path, "/")+1:]
		id, _ := strconv.Atoi(idStr)
		if status := f.scrapeStatus[id]; status != 0 {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"请先登录"}`))
			return
		}
		json.NewEncoder(w).Encode(f.scrapeItems[id])

	case r.Method == http.MethodPost && path == "/api/execute":
		var req backend.ExecuteRequest
		json.Unmarshal(body, &req)
		json.NewEncoder(w).Encode(backend.ExecuteResult{ItemID: req.ItemID, Command: req.Command, Result: "ok: " + req.Command, Status: "success"})

	case r.Method == http.MethodPost && path == "/api/test-ssh":
		w.Write([]byte(`{"success":true,"message":"SSH连接测试成功","result":"SSH连接测试成功\n"}`))

	case strings.HasPrefix(path, "/api/vnc/"):
		target, ok := f.vnc[path+"?"+r.URL.Query().Get("itemName")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"设备配置不存在"}`))
			return
		}
		json.NewEncoder(w).Encode(target)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBackend) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeBackend) Body(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

// FailLists makes config and device list requests fail with 502.
func (f *fakeBackend) FailLists(fail bool) {
	f.mu.Lock()
	f.listFail = fail
	f.mu.Unlock()
}

func (f *fakeBackend) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

type recordingOpener struct {
	launches []Launch
	blocked  bool
}

func (o *recordingOpener) Open(l Launch) bool {
	o.launches = append(o.launches, l)
	return !o.blocked
}

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T, flow config.Flow, fb *fakeBackend, opener Opener) *App {
	t.Helper()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	client := backend.NewClient(&config.BackendConfig{Endpoint: srv.URL, Timeout: 5 * time.Second, Flow: flow}, nil)
	return New(client, Options{
		Title:  "test",
		Opener: opener,
		Now:    func() time.Time { return testNow },
	})
}

func lastToast(t *testing.T, a *App) Toast {
	t.Helper()
	toasts := a.Snapshot().Toasts
	if len(toasts) == 0 {
		t.Fatal("expected a toast")
	}
	return toasts[len(toasts)-1]
}

func countRequests(reqs []string, prefix string) int {
	n := 0
	for _, r := range reqs {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}
