package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/icplatform/dashboard/internal/backend"
)

// Init performs the first load of a fresh tab.
func (a *App) Init(ctx context.Context) error {
	return a.LoadConfigs(ctx)
}

// LoadConfigs replaces the cached configs with a fresh list from the
// backend, then reloads devices when there are any.
func (a *App) LoadConfigs(ctx context.Context) error {
	configs, err := a.backend.ListConfigs(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("load configs")
		a.log.Errorf("%s: %v", msgLoadConfigsFailed, err)
		a.notify(ToastError, msgLoadConfigsFailed)
		return err
	}

	a.update(func(s *State) {
		s.Configs = configs
		present := make(map[int]bool, len(configs))
		for _, c := range configs {
			present[c.ID] = true
		}
		for id := range s.SessionKeys {
			if !present[id] {
				a.evictSessionKey(s, id)
			}
		}
		for id := range s.Fetched {
			if !present[id] {
				delete(s.Fetched, id)
			}
		}
		for id := range s.Expanded {
			if !present[id] {
				delete(s.Expanded, id)
			}
		}
		if !present[s.SelectedID] {
			s.SelectedID = 0
		}
		a.rederive(s)
	})

	if len(configs) > 0 {
		return a.LoadDevices(ctx)
	}
	return nil
}

// SwitchView changes the active panel. Entering the devices view reloads
// devices; entering the configs view only re-renders cached data.
func (a *App) SwitchView(ctx context.Context, v View) error {
	switch v {
	case ViewDevices, ViewConfigs:
	default:
		return fmt.Errorf("unknown view %q", v)
	}
	a.update(func(s *State) { s.View = v })
	if v == ViewDevices {
		return a.LoadDevices(ctx)
	}
	return nil
}

// ShowConfigModal opens the config form: empty for id 0, pre-filled from
// the cached config otherwise.
func (a *App) ShowConfigModal(id int) {
	a.update(func(s *State) {
		if id == 0 {
			s.Modal = &ConfigModal{Title: titleAddConfig, Values: Form{}}
			return
		}
		c, ok := findConfig(s.Configs, id)
		if !ok {
			return
		}
		s.Modal = &ConfigModal{Title: titleEditConfig, EditID: id, Values: configToForm(c)}
	})
}

// HideModals closes any open form.
func (a *App) HideModals() {
	a.update(func(s *State) { s.Modal = nil })
}

// SelectConfig highlights config id in the configs view.
func (a *App) SelectConfig(id int) {
	a.update(func(s *State) {
		if _, ok := findConfig(s.Configs, id); ok {
			s.SelectedID = id
		}
	})
}

// SelectDeviceConfig jumps from a device row to its config.
func (a *App) SelectDeviceConfig(ctx context.Context, id int) error {
	if err := a.SwitchView(ctx, ViewConfigs); err != nil {
		return err
	}
	a.SelectConfig(id)
	return nil
}

// SaveConfig validates f and creates or updates the config. Invalid input
// never reaches the backend. On success the list is reloaded from the
// backend rather than patched locally.
func (a *App) SaveConfig(ctx context.Context, f Form) error {
	values := Form{}
	for k, v := range f {
		values[k] = v
	}

	if err := validateConfigForm(values); err != nil {
		var ve *ValidationError
		errors.As(err, &ve)
		a.update(func(s *State) {
			if s.Modal != nil {
				s.Modal.Values = f
				s.Modal.Error = ve
			}
		})
		a.notify(ToastError, ve.Message)
		return err
	}

	cfg := formToConfig(values)
	editID := cfg.ID
	if m := a.read().Modal; m != nil {
		editID = m.EditID
	}

	var err error
	if editID > 0 {
		cfg.ID = editID
		err = a.backend.UpdateConfig(ctx, editID, cfg)
	} else {
		cfg.ID = 0
		err = a.backend.CreateConfig(ctx, cfg)
	}
	if err != nil {
		a.logger.WithError(err).WithField("config_id", editID).Warn("save config")
		a.log.Errorf("%s: %v", msgSaveFailed, err)
		a.notify(ToastError, msgSaveFailed)
		return err
	}

	// The config is saved even when the reload fails; LoadConfigs reports
	// that on its own and the modal must close so it is not submitted twice.
	a.LoadConfigs(ctx)
	a.HideModals()
	if editID > 0 {
		a.log.Successf("%s: %s", msgUpdated, cfg.Name)
		a.notify(ToastSuccess, msgUpdated)
	} else {
		a.log.Successf("%s: %s", msgCreated, cfg.Name)
		a.notify(ToastSuccess, msgCreated)
	}
	return nil
}

// DeleteConfig removes config id after the user confirms. Without
// confirmation nothing is sent.
func (a *App) DeleteConfig(ctx context.Context, id int, c Confirmer) error {
	if c == nil || !c.Confirm(msgDeleteConfirm) {
		return nil
	}

	if err := a.backend.DeleteConfig(ctx, id); err != nil {
		a.logger.WithError(err).WithField("config_id", id).Warn("delete config")
		a.log.Errorf("%s: %v", msgDeleteFailed, err)
		a.notify(ToastError, msgDeleteFailed)
		return err
	}

	a.LoadConfigs(ctx)
	a.update(func(s *State) {
		if s.SelectedID == id {
			s.SelectedID = 0
		}
	})
	a.log.Successf("%s (#%d)", msgDeleted, id)
	a.notify(ToastSuccess, msgDeleted)
	return nil
}

// TestSSH asks the backend to try the SSH credentials in f.
func (a *App) TestSSH(ctx context.Context, f Form) error {
	req := backend.SSHTestRequest{
		SSHHost: strings.TrimSpace(f["ssh_host"]),
		SSHUser: strings.TrimSpace(f["ssh_user"]),
		SSHPass: f["ssh_pass"],
		SSHPort: strings.TrimSpace(f["ssh_port"]),
	}
	if req.SSHHost == "" {
		a.notify(ToastError, msgSSHHostRequired)
		return &ValidationError{Field: "ssh_host", Message: msgSSHHostRequired}
	}
	if req.SSHUser == "" {
		a.notify(ToastError, msgSSHUserRequired)
		return &ValidationError{Field: "ssh_user", Message: msgSSHUserRequired}
	}
	if req.SSHPort == "" {
		req.SSHPort = "22"
	}

	target := fmt.Sprintf("%s@%s:%s", req.SSHUser, req.SSHHost, req.SSHPort)
	res, err := a.backend.TestSSH(ctx, req)
	if err != nil {
		a.logger.WithError(err).Warn("test ssh")
		a.log.Errorf("%s %s: %v", msgSSHTestFailed, target, err)
		a.notify(ToastError, msgSSHTestFailed)
		return err
	}
	if !res.Success {
		a.log.Errorf("%s %s: %s", msgSSHTestFailed, target, res.Error)
		a.notify(ToastError, fmt.Sprintf("%s: %s", msgSSHTestFailed, res.Error))
		return nil
	}
	a.log.Successf("%s %s: %s", msgSSHTestOK, target, strings.TrimSpace(res.Result))
	a.notify(ToastSuccess, msgSSHTestOK)
	return nil
}
