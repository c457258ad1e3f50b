package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/icplatform/dashboard/internal/backend"
)

// Form holds submitted config-form fields keyed by their JSON names.
type Form map[string]string

// FormFromValues collects submitted values. Hyphenated field names are
// accepted as aliases of the underscore names.
func FormFromValues(v url.Values) Form {
	f := Form{}
	for key, vals := range v {
		if len(vals) == 0 {
			continue
		}
		f[strings.ReplaceAll(key, "-", "_")] = vals[0]
	}
	return f
}

// ValidationError is a local form error; no backend call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeURL trims raw, prefixes http:// when no scheme is given and
// checks that the result parses as an absolute URL with a host.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	if strings.ContainsAny(u.Host, " \t") {
		return "", fmt.Errorf("url %q has an invalid host", raw)
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err != nil || n > 65535 {
			return "", fmt.Errorf("url %q has an invalid port", raw)
		}
	}
	return s, nil
}

// loginOrigin reduces a login URL to scheme://host. Unparseable input is
// returned with the scheme defaulted.
func loginOrigin(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	return u.Scheme + "://" + u.Host
}

var urlFields = []struct {
	name    string
	invalid string
}{
	{"login_url", msgLoginURLInvalid},
	{"data_url", msgDataURLInvalid},
}

// validateConfigForm normalises URL fields in place and checks required
// fields. It returns the first problem found.
func validateConfigForm(f Form) error {
	for _, field := range urlFields {
		v := f[field.name]
		if v == "" {
			continue
		}
		norm, err := NormalizeURL(v)
		if err != nil {
			return &ValidationError{Field: field.name, Message: field.invalid}
		}
		f[field.name] = norm
	}
	if strings.TrimSpace(f["name"]) == "" {
		return &ValidationError{Field: "name", Message: msgNameRequired}
	}
	if f["login_url"] == "" {
		return &ValidationError{Field: "login_url", Message: msgLoginURLRequired}
	}
	return nil
}

func formToConfig(f Form) backend.Config {
	cfg := backend.Config{
		Name:     strings.TrimSpace(f["name"]),
		LoginURL: f["login_url"],
		DataURL:  f["data_url"],
		Username: f["username"],
		Password: f["password"],
		SSHHost:  strings.TrimSpace(f["ssh_host"]),
		SSHUser:  f["ssh_user"],
		SSHPass:  f["ssh_pass"],
		SSHPort:  strings.TrimSpace(f["ssh_port"]),
		VNCPass:  f["vnc_pass"],
		DevType:  f["dev_type"],
	}
	if id, err := strconv.Atoi(f["id"]); err == nil {
		cfg.ID = id
	}
	return cfg
}

// configToForm pre-fills the edit form from a cached config.
func configToForm(c backend.Config) Form {
	return Form{
		"id":        strconv.Itoa(c.ID),
		"name":      c.Name,
		"login_url": c.LoginURL,
		"data_url":  c.DataURL,
		"username":  c.Username,
		"password":  c.Password,
		"ssh_host":  c.SSHHost,
		"ssh_user":  c.SSHUser,
		"ssh_pass":  c.SSHPass,
		"ssh_port":  c.SSHPort,
		"vnc_pass":  c.VNCPass,
		"dev_type":  c.DevType,
	}
}
