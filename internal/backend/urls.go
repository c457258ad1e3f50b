package backend

import (
	"strconv"
	"strings"

	"github.com/icplatform/dashboard/internal/config"
)

// EncodeURIComponent escapes s the way browsers' encodeURIComponent does,
// which is what the backend's launcher pages decode.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// formEncode escapes s the way URLSearchParams does: spaces as '+', '*'
// kept and '~' escaped.
func formEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		}
	}
	return b.String()
}

// WebShellParams are the query parameters of the WebShell launcher page.
type WebShellParams struct {
	DeviceID   int
	DeviceName string
	Host       string
	User       string
	Pass       string
	Port       string
}

// WebShellURL builds the launcher URL; parameter order and names are fixed
// by the backend page. An empty port defaults to 22.
func WebShellURL(flow config.Flow, p WebShellParams) string {
	path := "/webshell"
	if flow == config.FlowEmbedded {
		path = "/api/webshell"
	}
	port := p.Port
	if port == "" {
		port = "22"
	}
	pairs := [][2]string{
		{"deviceId", strconv.Itoa(p.DeviceID)},
		{"deviceName", p.DeviceName},
		{"host", p.Host},
		{"user", p.User},
		{"pass", p.Pass},
		{"port", port},
	}
	var b strings.Builder
	b.WriteString(path)
	for i, kv := range pairs {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(formEncode(kv[1]))
	}
	return b.String()
}

// VNCURL builds the noVNC launcher URL for target.
func VNCURL(target VNCTarget) string {
	return "/api/vnc?address=" + EncodeURIComponent(target.Address) + "&pass=" + EncodeURIComponent(target.Pass)
}
