package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/icplatform/dashboard/internal/dashboard"
)

// activityHook mirrors process log records into a LogBuffer so they can be
// read back over GET /ui/logs.
type activityHook struct {
	buf    *dashboard.LogBuffer
	levels []logrus.Level
}

func (h *activityHook) Levels() []logrus.Level { return h.levels }

func (h *activityHook) Fire(e *logrus.Entry) error {
	h.buf.Add(panelLevel(e.Level), formatEntry(e))
	return nil
}

func panelLevel(l logrus.Level) string {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return dashboard.LevelError
	case logrus.WarnLevel:
		return dashboard.LevelWarn
	default:
		return dashboard.LevelInfo
	}
}

// formatEntry renders the message followed by its fields in key order.
func formatEntry(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(e.Message)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	return b.String()
}

// InstallLogCapture adds a hook to logger that copies records at level
// min or more severe into buf.
func InstallLogCapture(logger *logrus.Logger, buf *dashboard.LogBuffer, min logrus.Level) {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= min {
			levels = append(levels, l)
		}
	}
	logger.AddHook(&activityHook{buf: buf, levels: levels})
}

// handleLogs returns captured process logs, optionally filtered with
// ?level=warn,error.
func (s *Server) handleLogs(c *gin.Context) {
	var levels []string
	if q := c.Query("level"); q != "" && q != "all" {
		for _, l := range strings.Split(q, ",") {
			if l = strings.TrimSpace(l); l != "" {
				levels = append(levels, l)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": s.activity.Entries(levels),
	})
}
