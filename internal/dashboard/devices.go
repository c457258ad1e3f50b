package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/icplatform/dashboard/internal/backend"
	"github.com/icplatform/dashboard/internal/config"
	"github.com/sirupsen/logrus"
)

// LoadDevices rebuilds the device rows wholesale. In the session flow every
// config is logged in one after another; a failed login is logged and the
// batch continues. The embedded flow needs no backend call.
func (a *App) LoadDevices(ctx context.Context) error {
	var configs []backend.Config
	a.update(func(s *State) {
		s.Fetched = map[int]Fetched{}
		configs = append(configs, s.Configs...)
		a.rederive(s)
	})

	if a.read().Flow != config.FlowSession {
		return nil
	}

	ok, failed := 0, 0
	for _, c := range configs {
		if a.login(ctx, c) {
			ok++
		} else {
			failed++
		}
	}
	if len(configs) > 0 {
		a.log.Infof(msgLoginBatchSummary, ok, failed)
	}
	return nil
}

// login logs in to one config and caches the session key. On failure any
// stale key for that config is dropped.
func (a *App) login(ctx context.Context, c backend.Config) bool {
	key, err := a.backend.Login(ctx, c.ID)
	if err != nil {
		a.logger.WithError(err).WithField("config_id", c.ID).Info("login failed")
		a.log.Errorf(msgLoginFailed+": %v", c.Name, err)
		a.update(func(s *State) {
			a.evictSessionKey(s, c.ID)
			a.rederive(s)
		})
		return false
	}
	a.log.Successf(msgLoginOK, c.Name)
	a.update(func(s *State) {
		a.setSessionKey(s, c.ID, key)
		a.rederive(s)
	})
	return true
}

// LoginDevice logs in to a single config again, typically after a 401.
func (a *App) LoginDevice(ctx context.Context, id int) error {
	c, ok := findConfig(a.read().Configs, id)
	if !ok {
		a.notify(ToastError, msgConfigMissing)
		return fmt.Errorf("config %d not found", id)
	}

	if !a.login(ctx, c) {
		a.notify(ToastError, fmt.Sprintf(msgLoginFailed, c.Name))
		return nil
	}
	a.notify(ToastSuccess, fmt.Sprintf(msgLoginOK, c.Name))
	return nil
}

// RefreshDevice scrapes one device and patches only that row. A 401 evicts
// that config's session key, and no other, and asks the user to log in
// again; it is not retried.
func (a *App) RefreshDevice(ctx context.Context, id int) error {
	d, ok := findDevice(a.read().Devices, id)
	if !ok {
		return nil
	}

	items, err := a.backend.Scrape(ctx, id)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		a.update(func(s *State) {
			a.evictSessionKey(s, id)
			delete(s.Fetched, id)
			a.rederive(s)
		})
		a.log.Warnf(msgReloginRequired, d.Name)
		a.notify(ToastWarning, fmt.Sprintf(msgReloginRequired, d.Name))
		return err
	case err != nil:
		a.logger.WithError(err).WithField("config_id", id).Warn("refresh device")
		a.update(func(s *State) {
			s.Fetched[id] = Fetched{At: a.now(), Err: true}
			a.rederive(s)
		})
		a.log.Errorf(msgRefreshFailed+": %v", d.Name, err)
		a.notify(ToastError, fmt.Sprintf(msgRefreshFailed, d.Name))
		return err
	}

	a.update(func(s *State) {
		s.Fetched[id] = Fetched{Data: items, At: a.now()}
		a.rederive(s)
	})
	a.log.Successf(msgRefreshed+" (%d)", d.Name, len(items))
	a.notify(ToastSuccess, fmt.Sprintf(msgRefreshed, d.Name))
	return nil
}

// ToggleDeviceDetails opens or closes the component sub-row of a device.
func (a *App) ToggleDeviceDetails(id int) {
	a.update(func(s *State) {
		if _, ok := findDevice(s.Devices, id); !ok {
			return
		}
		if s.Expanded[id] {
			delete(s.Expanded, id)
		} else {
			s.Expanded[id] = true
		}
	})
}

// ExecuteCommand runs command on component itemID of device id and appends
// the output to the activity panel.
func (a *App) ExecuteCommand(ctx context.Context, id int, itemID, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		a.notify(ToastWarning, msgCommandRequired)
		return &ValidationError{Field: "command", Message: msgCommandRequired}
	}

	d, ok := findDevice(a.read().Devices, id)
	if !ok {
		a.notify(ToastError, msgDeviceMissing)
		return fmt.Errorf("device %d not found", id)
	}
	var item *backend.Component
	for i := range d.Data {
		if d.Data[i].ID == itemID {
			item = &d.Data[i]
			break
		}
	}
	if item == nil || !item.CanExecute {
		a.notify(ToastError, msgExecuteFailed)
		return fmt.Errorf("component %q of device %d does not accept commands", itemID, id)
	}

	a.log.Infof("%s/%s $ %s", d.Name, item.Label(), command)
	res, err := a.backend.Execute(ctx, backend.ExecuteRequest{ConfigID: id, ItemID: itemID, Command: command})
	if err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{"config_id": id, "item_id": itemID}).Warn("execute")
		a.log.Errorf("%s: %v", msgExecuteFailed, err)
		a.notify(ToastError, msgExecuteFailed)
		return err
	}
	a.log.Successf("%s/%s:\n%s", d.Name, item.Label(), strings.TrimRight(res.Result, "\n"))
	a.notify(ToastSuccess, msgExecuteOK)
	return nil
}

// OpenWebShell opens the backend's WebShell page for a device in a centred
// 1000x700 window. Incomplete SSH settings send the user to the config.
func (a *App) OpenWebShell(ctx context.Context, id int) error {
	st := a.read()
	d, ok := findDevice(st.Devices, id)
	if !ok {
		a.notify(ToastError, msgDeviceMissing)
		return nil
	}
	c, ok := findConfig(st.Configs, id)
	if !ok {
		a.notify(ToastError, msgConfigMissing)
		return nil
	}
	if c.SSHHost == "" || c.SSHUser == "" || c.SSHPass == "" {
		a.notify(ToastWarning, msgSSHIncomplete)
		return a.SelectDeviceConfig(ctx, id)
	}

	url := backend.WebShellURL(st.Flow, backend.WebShellParams{
		DeviceID:   c.ID,
		DeviceName: d.Name,
		Host:       c.SSHHost,
		User:       c.SSHUser,
		Pass:       c.SSHPass,
		Port:       c.SSHPort,
	})
	l := centredWindow(LaunchWebShell, url, "webshell-"+strconv.Itoa(id), 1000, 700, st.Viewport)
	if !a.opener.Open(l) {
		a.notify(ToastError, msgWebShellBlocked)
		return nil
	}
	a.log.Infof("WebShell: %s (%s@%s)", d.Name, c.SSHUser, c.SSHHost)
	return nil
}

// OpenVNC resolves the VNC address of component itemName and opens the
// noVNC page in a centred 1050x860 window.
func (a *App) OpenVNC(ctx context.Context, id int, itemName string) error {
	st := a.read()
	if _, ok := findDevice(st.Devices, id); !ok {
		a.notify(ToastError, msgDeviceMissing)
		return nil
	}
	if _, ok := findConfig(st.Configs, id); !ok {
		a.notify(ToastError, msgConfigMissing)
		return nil
	}

	target, err := a.backend.VNCAddress(ctx, id, itemName)
	if err != nil {
		a.logger.WithError(err).WithField("config_id", id).Warn("vnc address")
		msg := msgVNCFailed
		var he *backend.HTTPError
		if errors.As(err, &he) {
			msg = msgVNCJumpFailed
			if he.Message != "" {
				msg = he.Message
			}
		}
		a.log.Errorf("VNC %s: %v", itemName, err)
		a.notify(ToastError, msg)
		return err
	}

	l := centredWindow(LaunchVNC, backend.VNCURL(*target), "webshell-"+itemName, 1050, 860, a.read().Viewport)
	if !a.opener.Open(l) {
		a.notify(ToastError, msgVNCBlocked)
		return nil
	}
	a.log.Infof("VNC: %s -> %s", itemName, target.Address)
	return nil
}

// JumpToLogin opens the origin of a config's login URL in a new tab.
func (a *App) JumpToLogin(id int) error {
	c, ok := findConfig(a.read().Configs, id)
	if !ok {
		a.notify(ToastError, msgConfigMissing)
		return nil
	}
	if strings.TrimSpace(c.LoginURL) == "" {
		a.notify(ToastWarning, msgNoLoginURL)
		return nil
	}
	a.opener.Open(Launch{Kind: LaunchLogin, URL: loginOrigin(c.LoginURL), Name: "_blank"})
	a.notify(ToastInfo, fmt.Sprintf(msgLoginPageOpened, c.Name))
	return nil
}

// PopupBlocked reports a window the browser refused to open.
func (a *App) PopupBlocked(kind string) {
	switch kind {
	case LaunchWebShell:
		a.notify(ToastError, msgWebShellBlocked)
	case LaunchVNC:
		a.notify(ToastError, msgVNCBlocked)
	default:
		a.notify(ToastError, msgWebShellBlocked)
	}
}

// ClearLog empties the activity panel.
func (a *App) ClearLog() {
	a.log.Clear()
	a.notify(ToastInfo, msgLogCleared)
}
