package obs

import "github.com/yanun0323/logs"

// Logger is the logging handle injected into engine components.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Logs returns a Logger backed by the logs package.
func Logs() Logger {
	return logsLogger{}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type logsLogger struct{}

func (logsLogger) Infof(format string, args ...any)  { logs.Infof(format, args...) }
func (logsLogger) Errorf(format string, args ...any) { logs.Errorf(format, args...) }

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
