package dashboard

import (
	"context"
	"fmt"
	"strconv"
)

// Action names. Render functions attach them to elements; Dispatch routes
// them to App operations.
const (
	ActionInit          = "init"
	ActionSwitchView    = "switch-view"
	ActionAddConfig     = "add-config"
	ActionEditConfig    = "edit-config"
	ActionSaveConfig    = "save-config"
	ActionDeleteConfig  = "delete-config"
	ActionSelectConfig  = "select-config"
	ActionHideModals    = "hide-modals"
	ActionTestSSH       = "test-ssh"
	ActionReloadConfigs = "reload-configs"
	ActionLoadDevices   = "load-devices"
	ActionLoginDevice   = "login-device"
	ActionRefreshDevice = "refresh-device"
	ActionToggleDetails = "toggle-details"
	ActionExecute       = "execute"
	ActionOpenWebShell  = "open-webshell"
	ActionOpenVNC       = "open-vnc"
	ActionJumpToLogin   = "jump-to-login"
	ActionPopupBlocked  = "popup-blocked"
	ActionClearLog      = "clear-log"
)

// Args are the arguments that came with an action: data-arg-* attributes
// of the element plus any form fields.
type Args map[string]string

// Int parses key as an integer.
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", key, err)
	}
	return n, nil
}

// Bool reports whether key is set to a true value.
func (a Args) Bool(key string) bool {
	b, _ := strconv.ParseBool(a[key])
	return b
}

// Form returns the args as config-form fields.
func (a Args) Form() Form {
	f := Form{}
	for k, v := range a {
		f[k] = v
	}
	return f
}

type actionFunc func(ctx context.Context, a *App, args Args) error

func withID(fn func(ctx context.Context, a *App, id int, args Args) error) actionFunc {
	return func(ctx context.Context, a *App, args Args) error {
		id, err := args.Int("id")
		if err != nil {
			return err
		}
		return fn(ctx, a, id, args)
	}
}

var actions = map[string]actionFunc{
	ActionInit: func(ctx context.Context, a *App, _ Args) error {
		return a.Init(ctx)
	},
	ActionSwitchView: func(ctx context.Context, a *App, args Args) error {
		return a.SwitchView(ctx, View(args["view"]))
	},
	ActionAddConfig: func(_ context.Context, a *App, _ Args) error {
		a.ShowConfigModal(0)
		return nil
	},
	ActionEditConfig: withID(func(_ context.Context, a *App, id int, _ Args) error {
		a.ShowConfigModal(id)
		return nil
	}),
	ActionSaveConfig: func(ctx context.Context, a *App, args Args) error {
		return a.SaveConfig(ctx, args.Form())
	},
	ActionDeleteConfig: withID(func(ctx context.Context, a *App, id int, args Args) error {
		return a.DeleteConfig(ctx, id, ConfirmFunc(func(string) bool {
			return args.Bool("confirmed")
		}))
	}),
	ActionSelectConfig: withID(func(_ context.Context, a *App, id int, _ Args) error {
		a.SelectConfig(id)
		return nil
	}),
	ActionHideModals: func(_ context.Context, a *App, _ Args) error {
		a.HideModals()
		return nil
	},
	ActionTestSSH: func(ctx context.Context, a *App, args Args) error {
		return a.TestSSH(ctx, args.Form())
	},
	ActionReloadConfigs: func(ctx context.Context, a *App, _ Args) error {
		return a.LoadConfigs(ctx)
	},
	ActionLoadDevices: func(ctx context.Context, a *App, _ Args) error {
		return a.LoadDevices(ctx)
	},
	ActionLoginDevice: withID(func(ctx context.Context, a *App, id int, _ Args) error {
		return a.LoginDevice(ctx, id)
	}),
	ActionRefreshDevice: withID(func(ctx context.Context, a *App, id int, _ Args) error {
		return a.RefreshDevice(ctx, id)
	}),
	ActionToggleDetails: withID(func(_ context.Context, a *App, id int, _ Args) error {
		a.ToggleDeviceDetails(id)
		return nil
	}),
	ActionExecute: withID(func(ctx context.Context, a *App, id int, args Args) error {
		return a.ExecuteCommand(ctx, id, args["item"], args["command"])
	}),
	ActionOpenWebShell: withID(func(ctx context.Context, a *App, id int, _ Args) error {
		return a.OpenWebShell(ctx, id)
	}),
	ActionOpenVNC: withID(func(ctx context.Context, a *App, id int, args Args) error {
		return a.OpenVNC(ctx, id, args["item"])
	}),
	ActionJumpToLogin: withID(func(_ context.Context, a *App, id int, _ Args) error {
		return a.JumpToLogin(id)
	}),
	ActionPopupBlocked: func(_ context.Context, a *App, args Args) error {
		a.PopupBlocked(args["kind"])
		return nil
	},
	ActionClearLog: func(_ context.Context, a *App, _ Args) error {
		a.ClearLog()
		return nil
	},
}

// ErrUnknownAction is returned by Dispatch for names it does not route.
type ErrUnknownAction string

func (e ErrUnknownAction) Error() string { return "unknown action " + strconv.Quote(string(e)) }

// Known reports whether name is a routable action.
func Known(name string) bool {
	_, ok := actions[name]
	return ok
}

// Dispatch runs the named action. Actions on one App run one at a time.
func (a *App) Dispatch(ctx context.Context, name string, args Args) error {
	fn, ok := actions[name]
	if !ok {
		return ErrUnknownAction(name)
	}

	a.actionMu.Lock()
	defer a.actionMu.Unlock()
	return fn(ctx, a, args)
}
