package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/icplatform/dashboard/internal/config"
	"github.com/sirupsen/logrus"
)

// Client calls the device-management backend. It never retries; every
// failure is returned to the caller as-is.
type Client struct {
	endpoint string
	flow     config.Flow
	client   *http.Client
	metrics  *Metrics
	log      *logrus.Entry
	mu       sync.Mutex

	connected bool
	lastError error
	lastSeen  time.Time
}

// NewClient creates a backend client for cfg. metrics may be nil.
func NewClient(cfg *config.BackendConfig, metrics *Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		flow:     cfg.Flow,
		client:   &http.Client{Timeout: timeout},
		metrics:  metrics,
		log:      logrus.WithField("component", "backend"),
	}
}

// Flow returns the backend contract this client speaks.
func (c *Client) Flow() config.Flow {
	return c.flow
}

// Status returns the current connection status
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	errStr := ""
	if c.lastError != nil {
		errStr = c.lastError.Error()
	}

	return ConnectionStatus{
		Connected: c.connected,
		LastError: errStr,
		LastSeen:  c.lastSeen,
	}
}

// ListConfigs fetches every config record.
func (c *Client) ListConfigs(ctx context.Context) ([]Config, error) {
	path := "/api/configs"
	if c.flow == config.FlowEmbedded {
		path = "/api/devices"
	}
	var configs []Config
	if err := c.do(ctx, "list_configs", http.MethodGet, path, nil, &configs); err != nil {
		return nil, err
	}
	if configs == nil {
		configs = []Config{}
	}
	return configs, nil
}

// CreateConfig stores a new config; the backend assigns the id.
func (c *Client) CreateConfig(ctx context.Context, cfg Config) error {
	return c.do(ctx, "create_config", http.MethodPost, "/api/configs", cfg, nil)
}

// UpdateConfig replaces config id.
func (c *Client) UpdateConfig(ctx context.Context, id int, cfg Config) error {
	return c.do(ctx, "update_config", http.MethodPut, "/api/configs/"+strconv.Itoa(id), cfg, nil)
}

// DeleteConfig removes config id.
func (c *Client) DeleteConfig(ctx context.Context, id int) error {
	return c.do(ctx, "delete_config", http.MethodDelete, "/api/configs/"+strconv.Itoa(id), nil, nil)
}

// Login asks the backend to log in to config id and returns the session key.
func (c *Client) Login(ctx context.Context, id int) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/api/login", loginRequest{ConfigID: id}, &resp); err != nil {
		return "", err
	}
	if resp.SessionKey == "" {
		return "", fmt.Errorf("login: %w: empty session_key", ErrDecode)
	}
	return resp.SessionKey, nil
}

// Scrape fetches the live component list of config id. A 401 answer is
// reported as ErrUnauthorized.
func (c *Client) Scrape(ctx context.Context, id int) ([]Component, error) {
	path := "/api/scrape/" + strconv.Itoa(id)
	if c.flow == config.FlowEmbedded {
		path = "/api/csmp/" + strconv.Itoa(id)
	}
	var items []Component
	if err := c.do(ctx, "scrape", http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []Component{}
	}
	return items, nil
}

// TestSSH asks the backend to open a throwaway SSH connection. A 5xx answer
// carrying a JSON verdict is returned as a failed result, not an error.
func (c *Client) TestSSH(ctx context.Context, req SSHTestRequest) (*SSHTestResult, error) {
	var result SSHTestResult
	err := c.do(ctx, "test_ssh", http.MethodPost, "/api/test-ssh", req, &result)
	if err != nil {
		if msg := ErrorMessage(err); msg != "" {
			return &SSHTestResult{Success: false, Error: msg}, nil
		}
		return nil, err
	}
	return &result, nil
}

// Execute runs a command against a component of config req.ConfigID.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	var result ExecuteResult
	if err := c.do(ctx, "execute", http.MethodPost, "/api/execute", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VNCAddress resolves the VNC endpoint of component itemName on config id.
func (c *Client) VNCAddress(ctx context.Context, id int, itemName string) (*VNCTarget, error) {
	path := "/api/vnc/" + strconv.Itoa(id) + "?itemName=" + EncodeURIComponent(itemName)
	var target VNCTarget
	if err := c.do(ctx, "vnc_address", http.MethodGet, path, nil, &target); err != nil {
		return nil, err
	}
	return &target, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.observe(op, "error", time.Since(start).Seconds())
		c.setError(err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.metrics.observe(op, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	c.markSeen()
	c.log.WithFields(logrus.Fields{
		"op":      op,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		herr := &HTTPError{Op: op, Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			herr.Message = eb.Error
		}
		return herr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}
	return nil
}

func (c *Client) markSeen() {
	c.mu.Lock()
	c.connected = true
	c.lastError = nil
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.connected = false
	c.lastError = err
	c.mu.Unlock()
}

// ProxyTarget is the backend base URL, for forwarding launcher pages.
func (c *Client) ProxyTarget() (*url.URL, error) {
	return url.Parse(c.endpoint)
}
