package diagnostics

import (
	"time"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Diagnostic side channel
// ============================================================

// Diagnostic describes a request the editor ignored, e.g. an update of an id
// that does not exist. None of these are fatal.
type Diagnostic struct {
	Time     time.Time `json:"time"`
	Session  string    `json:"session,omitempty"`
	Source   string    `json:"source"`
	Op       string    `json:"op"`
	ObjectID string    `json:"objectId,omitempty"`
	Message  string    `json:"message"`
}

type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// LogReporter writes diagnostics to the fiber logger at warn level.
type LogReporter struct{}

func (LogReporter) Report(d Diagnostic) {
	if d.ObjectID != "" {
		log.Warnf("[%s] %s %s: %s", d.Source, d.Op, d.ObjectID, d.Message)
		return
	}
	log.Warnf("[%s] %s: %s", d.Source, d.Op, d.Message)
}

// Multi fans a diagnostic out to several reporters, skipping nil ones.
func Multi(reporters ...Reporter) Reporter {
	var out []Reporter
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return ReporterFunc(func(d Diagnostic) {
		for _, r := range out {
			r.Report(d)
		}
	})
}

// WithSession stamps every diagnostic passing through with a session id.
func WithSession(r Reporter, session string) Reporter {
	return ReporterFunc(func(d Diagnostic) {
		d.Session = session
		r.Report(d)
	})
}
