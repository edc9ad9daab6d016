package sketch

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// loggerPtr holds the active logger. The model is silent by default.
var loggerPtr atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.Nop()
	loggerPtr.Store(&l)
}

// SetLogger replaces the package logger. Passing nil restores the silent
// default. Only debug-level events are emitted: refused segmentations,
// cascade removals and cache recomputation.
func SetLogger(l *zerolog.Logger) {
	if l == nil {
		nop := zerolog.Nop()
		l = &nop
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
func Logger() *zerolog.Logger {
	return loggerPtr.Load()
}
