package backend

import "time"

// Config is a named device-access profile owned by the backend. Field names
// follow the backend's JSON contract exactly.
type Config struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	LoginURL  string      `json:"login_url"`
	DataURL   string      `json:"data_url,omitempty"`
	Username  string      `json:"username,omitempty"`
	Password  string      `json:"password,omitempty"`
	SSHHost   string      `json:"ssh_host,omitempty"`
	SSHUser   string      `json:"ssh_user,omitempty"`
	SSHPass   string      `json:"ssh_pass,omitempty"`
	SSHPort   string      `json:"ssh_port,omitempty"`
	VNCPass   string      `json:"vnc_pass,omitempty"`
	DevType   string      `json:"dev_type,omitempty"`
	TimeStamp string      `json:"time_stamp,omitempty"`
	Count     int         `json:"count,omitempty"`
	VM        []Component `json:"vm,omitempty"`
}

// Component is one item reported for a device: a VM, service or module.
type Component struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url,omitempty"`
	Status        string `json:"status"`
	CanExecute    bool   `json:"can_execute"`
	ComponentType string `json:"component_type,omitempty"`
	IPAddress     string `json:"ip_address,omitempty"`
}

// Label is the display name, falling back to title then id.
func (c Component) Label() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Title != "":
		return c.Title
	default:
		return c.ID
	}
}

// Running reports whether the backend marked the component as running.
func (c Component) Running() bool {
	return c.Status == "running"
}

type loginRequest struct {
	ConfigID int `json:"config_id"`
}

type loginResponse struct {
	Message    string `json:"message"`
	SessionKey string `json:"session_key"`
}

// SSHTestRequest is the body of POST /api/test-ssh
type SSHTestRequest struct {
	SSHHost string `json:"ssh_host"`
	SSHUser string `json:"ssh_user"`
	SSHPass string `json:"ssh_pass"`
	SSHPort string `json:"ssh_port"`
}

// SSHTestResult is the backend verdict for an SSH test
type SSHTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExecuteRequest is the body of POST /api/execute
type ExecuteRequest struct {
	ConfigID int    `json:"config_id"`
	ItemID   string `json:"item_id"`
	Command  string `json:"command"`
}

// ExecuteResult is the output of a remote command
type ExecuteResult struct {
	ItemID  string `json:"item_id"`
	Command string `json:"command"`
	Result  string `json:"result"`
	Status  string `json:"status"`
}

// VNCTarget is where a VNC viewer should connect
type VNCTarget struct {
	Address string `json:"address"`
	Pass    string `json:"pass"`
}

// ConnectionStatus represents the last observed backend reachability
type ConnectionStatus struct {
	Connected bool
	LastError string
	LastSeen  time.Time
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
