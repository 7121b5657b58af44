package driver

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the driver packages' logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the logger shared by the catalog and the bundled
// driver implementations. This must be called before any drivers are loaded.
func SetLogger(l *zap.Logger) {
	logger = l
}
