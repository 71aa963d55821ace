// Package logfields defines canonical log field name constants to avoid drift
// across packages.
package logfields

import "log/slog"

const (
	KeyPageID      = "page_id"
	KeyTaskID      = "task_id"
	KeyEventType   = "event_type"
	KeyEventAction = "event_action"
	KeyWorkspace   = "workspace"
	KeyPipeline    = "pipeline"
	KeyJobID       = "job_id"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"

	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PageID(id string) slog.Attr       { return slog.String(KeyPageID, id) }
func TaskID(id string) slog.Attr       { return slog.String(KeyTaskID, id) }
func EventType(t string) slog.Attr     { return slog.String(KeyEventType, t) }
func EventAction(a string) slog.Attr   { return slog.String(KeyEventAction, a) }
func Workspace(w string) slog.Attr     { return slog.String(KeyWorkspace, w) }
func Pipeline(p string) slog.Attr      { return slog.String(KeyPipeline, p) }
func JobID(id string) slog.Attr        { return slog.String(KeyJobID, id) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
