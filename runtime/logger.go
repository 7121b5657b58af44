package runtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/mci-runtime/dispatch"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/driver/luadrv"
	"github.com/wippyai/mci-runtime/driver/wasmdrv"
	"github.com/wippyai/mci-runtime/parser"
	"github.com/wippyai/mci-runtime/registry"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the runtime package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs l into the runtime package and every package below
// it, each under its own name.
// This must be called before any runtime operations.
func SetLogger(l *zap.Logger) {
	logger = l
	registry.SetLogger(l.Named("registry"))
	parser.SetLogger(l.Named("parser"))
	dispatch.SetLogger(l.Named("dispatch"))
	driver.SetLogger(l.Named("driver"))
	luadrv.SetLogger(l.Named("luadrv"))
	wasmdrv.SetLogger(l.Named("wasmdrv"))
}
