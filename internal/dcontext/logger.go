package dcontext

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger provides a leveled-logging interface, matching the subset of
// logrus's interface the engine actually uses.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

// WithLogger returns a context carrying the provided logger.
func WithLogger(ctx Context, logger Logger) Context {
	return WithValue(ctx, loggerKey, logger)
}

// WithFields returns a logger derived from ctx's current logger (or the
// standard logrus logger, if none is set) with the given fields attached,
// without mutating ctx. A logger attached via WithLogger that is not
// backed by logrus is not used here; the standard logrus logger is used
// instead.
func WithFields(ctx Context, fields map[string]interface{}) Logger {
	return &entry{logrusEntry(ctx).WithFields(logrus.Fields(fields))}
}

// WithField is a single-field convenience wrapper around WithFields.
func WithField(ctx Context, key string, value interface{}) Logger {
	return WithFields(ctx, map[string]interface{}{key: value})
}

// GetLogger returns the logger carried by ctx, falling back to the
// standard logrus logger when none was attached.
func GetLogger(ctx Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(Logger); ok {
			return l
		}
	}
	return &entry{logrusEntry(ctx)}
}

func logrusEntry(ctx Context) *logrus.Entry {
	if ctx != nil {
		switch l := ctx.Value(loggerKey).(type) {
		case *logrus.Entry:
			return l
		case *entry:
			return l.Entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// entry adapts *logrus.Entry to the narrower Logger interface.
type entry struct {
	*logrus.Entry
}

var _ Logger = (*entry)(nil)

// Sprint is a small helper kept for call sites that log a formatted key,
// mirroring the teacher's GetLoggerWithField(ctx, key, value) convenience.
func Sprint(v interface{}) string {
	return fmt.Sprint(v)
}
