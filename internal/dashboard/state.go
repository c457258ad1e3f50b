package dashboard

import (
	"time"

	"github.com/icplatform/dashboard/internal/backend"
	"github.com/icplatform/dashboard/internal/config"
)

// View is the active top-level panel.
type View string

const (
	ViewDevices View = "devices"
	ViewConfigs View = "configs"
)

// DeviceStatus is the row state shown in the devices table.
type DeviceStatus string

const (
	StatusOnline  DeviceStatus = "online"
	StatusOffline DeviceStatus = "offline"
	// StatusWarning marks a device that needs a (re-)login before it can be
	// scraped.
	StatusWarning DeviceStatus = "warning"
)

// Label is the localized status text.
func (s DeviceStatus) Label() string {
	switch s {
	case StatusOnline:
		return "在线"
	case StatusWarning:
		return "需登录"
	default:
		return "离线"
	}
}

// Device is the client-side view of a Config plus its live data.
type Device struct {
	ID         int
	Name       string
	Type       string
	Status     DeviceStatus
	LoginURL   string
	ItemCount  int
	LastUpdate string
	Data       []backend.Component
}

// Fetched is the outcome of the last scrape of one device.
type Fetched struct {
	Data []backend.Component
	At   time.Time
	Err  bool
}

// ConfigModal is the open add/edit form. EditID is zero when adding.
type ConfigModal struct {
	Title  string
	EditID int
	Values Form
	Error  *ValidationError
}

// Viewport is the browser window geometry used to centre launched windows.
type Viewport struct {
	ScreenLeft int
	ScreenTop  int
	Width      int
	Height     int
}

// Launch asks the browser to open a window.
type Launch struct {
	Kind     string `json:"kind"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Features string `json:"features,omitempty"`
	Center   bool   `json:"center"`
	Left     int    `json:"left"`
	Top      int    `json:"top"`
}

// State is everything the render functions need. Values returned by
// App.Snapshot are copies and safe to read without locking.
type State struct {
	Title       string
	Flow        config.Flow
	View        View
	Configs     []backend.Config
	Devices     []Device
	SessionKeys map[int]string
	Fetched     map[int]Fetched
	SelectedID  int
	Expanded    map[int]bool
	Modal       *ConfigModal
	Viewport    Viewport

	Backend backend.ConnectionStatus
	Log     []LogEntry
	Toasts  []Toast
}

const timeLayout = "2006-01-02 15:04:05"

// DeriveDevices builds the device rows from configs, cached session keys and
// per-device scrape results. It is a pure function: the same inputs always
// produce the same rows, one per config, in config order.
func DeriveDevices(flow config.Flow, configs []backend.Config, keys map[int]string, fetched map[int]Fetched) []Device {
	devices := make([]Device, 0, len(configs))
	for _, c := range configs {
		d := Device{
			ID:         c.ID,
			Name:       c.Name,
			Type:       c.DevType,
			LoginURL:   c.LoginURL,
			LastUpdate: "-",
		}

		f, hasFetch := fetched[c.ID]

		switch flow {
		case config.FlowEmbedded:
			d.Status = StatusOnline
			d.Data = c.VM
			if c.TimeStamp != "" {
				d.LastUpdate = c.TimeStamp
			}
		default:
			if _, ok := keys[c.ID]; ok {
				d.Status = StatusOnline
			} else {
				d.Status = StatusWarning
			}
		}

		if hasFetch {
			if f.Err {
				if d.Status == StatusOnline {
					d.Status = StatusOffline
				}
			} else {
				d.Status = StatusOnline
				d.Data = f.Data
				d.LastUpdate = f.At.Format(timeLayout)
			}
		}

		if d.Data == nil {
			d.Data = []backend.Component{}
		}
		d.ItemCount = len(d.Data)
		devices = append(devices, d)
	}
	return devices
}

// DeviceTypeLabel maps backend device types to display names.
func DeviceTypeLabel(t string) string {
	switch t {
	case "csmp", "CSMP":
		return "CSMP"
	case "xc", "XC":
		return "信创"
	case "":
		return "未知"
	default:
		return t
	}
}

// ComponentStatusLabel is the display text of a component status.
func ComponentStatusLabel(c backend.Component) string {
	if c.Running() {
		return "运行中"
	}
	return "关闭"
}

func findConfig(configs []backend.Config, id int) (backend.Config, bool) {
	for _, c := range configs {
		if c.ID == id {
			return c, true
		}
	}
	return backend.Config{}, false
}

func findDevice(devices []Device, id int) (Device, bool) {
	for _, d := range devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}
