package bollywood

import (
	"fmt"
	"os"
	"time"
)

// Logger is a small, dependency-free logging seam, deliberately kept
// agnostic of any particular structured-logging library so that a host
// application can plug in whatever it already uses. Modeled on
// go-supervise's injectable Logger: a handful of Printf-style methods
// rather than a field-based structured API.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stderrLogger is the default Logger, writing timestamped lines to
// stderr — the same sink the teacher's fmt.Printf calls used, just
// leveled and swappable.
type stderrLogger struct{}

func (stderrLogger) logf(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s [%s] %s\n", time.Now().Format(time.RFC3339Nano), level, msg)
}

func (l stderrLogger) Debugf(format string, args ...interface{}) { l.logf("DEBUG", format, args...) }
func (l stderrLogger) Infof(format string, args ...interface{})  { l.logf("INFO", format, args...) }
func (l stderrLogger) Warnf(format string, args ...interface{})  { l.logf("WARN", format, args...) }
func (l stderrLogger) Errorf(format string, args ...interface{}) { l.logf("ERROR", format, args...) }

// DefaultLogger is used by an ActorSystem unless overridden via
// WithLogger.
var DefaultLogger Logger = stderrLogger{}

// nopLogger discards everything; useful in tests.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NopLogger discards all log output.
var NopLogger Logger = nopLogger{}
