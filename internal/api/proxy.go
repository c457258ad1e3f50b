package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/icplatform/dashboard/internal/backend"
)

// newBackendProxy forwards requests to the backend so launcher URLs, which
// are relative, resolve against the dashboard's own origin. Websocket
// upgrades pass through.
func newBackendProxy(client *backend.Client) (*httputil.ReverseProxy, error) {
	target, err := client.ProxyTarget()
	if err != nil {
		return nil, fmt.Errorf("backend endpoint: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend endpoint %q is not an absolute URL", target.String())
	}

	log := logrus.WithField("component", "proxy")
	p := httputil.NewSingleHostReverseProxy(target)
	direct := p.Director
	p.Director = func(r *http.Request) {
		direct(r)
		r.Host = target.Host
	}
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).WithField("path", r.URL.Path).Warn("backend unreachable")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, `{"error":%q}`, "后端服务不可用")
	}
	return p, nil
}

// proxied reports whether path belongs to the backend.
func proxied(path string) bool {
	return strings.HasPrefix(path, "/api/") ||
		path == "/webshell" || strings.HasPrefix(path, "/webshell/")
}

func (s *Server) handleProxy(c *gin.Context) {
	if !proxied(c.Request.URL.Path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	s.proxy.ServeHTTP(c.Writer, c.Request)
}
