package zod2jsonschema

// Logger receives progress and diagnostics. Implementations decide how to
// render each level; Debugf is reserved for verbose detail.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}

// NopLogger discards everything.
var NopLogger Logger = nopLogger{}

func orNop(l Logger) Logger {
	if l == nil {
		return NopLogger
	}
	return l
}
