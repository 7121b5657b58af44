package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/dispatch"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/parser"
	"github.com/wippyai/mci-runtime/registry"
	"github.com/wippyai/mci-runtime/transcoder"
)

// Config configures a System.
type Config struct {
	// Catalog lists the installed drivers. Required.
	Catalog *driver.Catalog
	// Tables supplies device-type command tables ahead of the built-in
	// ones. Nil uses the built-in tables only.
	Tables cmdtable.Source
	// Logger is installed into every package of the engine. Nil keeps the
	// current package loggers.
	Logger   *zap.Logger
	Notifier dispatch.Notifier
	Observer dispatch.Observer
	// DeviceIDFloor is the lowest device id handed out.
	DeviceIDFloor mmsys.DeviceID
	// ArenaLimit caps each address space the engine creates: the per-command
	// arena of SendString, legacy driver spaces and marshaling scratch.
	ArenaLimit uint32
}

func (c Config) withDefaults() Config {
	if c.DeviceIDFloor == 0 {
		c.DeviceIDFloor = mmsys.FirstDeviceID
	}
	if c.ArenaLimit == 0 {
		c.ArenaLimit = memory.DefaultLimit
	}
	return c
}

// System is one command engine: a session registry, its command tables and
// a dispatcher. It is safe for concurrent use.
type System struct {
	registry *registry.Registry
	parser   *parser.Parser
	dispatch *dispatch.Dispatcher
	limit    uint32
}

// New creates a System with no open sessions.
func New(cfg Config) (*System, error) {
	if cfg.Catalog == nil {
		return nil, errors.New(errors.PhaseRegistry, errors.KindInternal).
			Detail("no driver catalog").
			Build()
	}
	cfg = cfg.withDefaults()
	if cfg.Logger != nil {
		SetLogger(cfg.Logger)
	}

	reg := registry.New(registry.Config{
		Loader:     cfg.Catalog,
		Floor:      cfg.DeviceIDFloor,
		ArenaLimit: cfg.ArenaLimit,
	})
	return &System{
		registry: reg,
		parser: parser.New(parser.Config{
			Tables:   cmdtable.NewStore(cmdtable.Layered(cfg.Tables, cmdtable.Builtin())),
			Sessions: reg,
			Catalog:  cfg.Catalog,
		}),
		dispatch: dispatch.New(dispatch.Config{
			Registry:     reg,
			Catalog:      cfg.Catalog,
			Marshaler:    transcoder.NewMarshaler(nil),
			Notifier:     cfg.Notifier,
			Observer:     cfg.Observer,
			ScratchLimit: cfg.ArenaLimit,
		}),
		limit: cfg.ArenaLimit,
	}, nil
}

// SendString parses and executes one command line and returns its textual
// result. retSize bounds the result of every verb like a caller's buffer
// would, zero meaning parser.DefaultReturnSize; a result that does not fit
// is returned truncated along with a parameter overflow error. errors.CodeOf
// maps the error to its numeric status. "close all" succeeds once every
// session is closed even when some close notifications failed; those are
// counted in Stats().Warnings.
func (s *System) SendString(ctx context.Context, command string, retSize uint32) (out string, err error) {
	as := memory.Get(s.limit)
	defer memory.Put(as)
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("command panicked",
				zap.String("command", command),
				zap.Any("panic", r))
			out, err = "", errors.New(errors.PhaseDispatch, errors.KindInternal).
				Detail("panic: %s", fmt.Sprint(r)).
				Build()
		}
	}()

	inv, err := s.parser.Parse(ctx, command, as, retSize)
	if err != nil {
		return "", err
	}
	defer inv.Release(as)
	return s.dispatch.Execute(ctx, inv, as)
}

// SendCommand dispatches a binary command whose parameter block the caller
// has laid out in c.Mem.
func (s *System) SendCommand(ctx context.Context, c dispatch.Call) (uint32, error) {
	return s.dispatch.Send(ctx, c)
}

// Resolve maps a device name to its id.
func (s *System) Resolve(name string) (mmsys.DeviceID, error) {
	return s.registry.Resolve(name)
}

// Sessions returns the open sessions ordered by device id.
func (s *System) Sessions() []*registry.Session {
	return s.registry.Sessions()
}

// Stats returns the dispatcher's counters.
func (s *System) Stats() dispatch.Stats {
	return s.dispatch.Stats()
}

// Close closes every session without notifications. The System rejects
// opens afterwards.
func (s *System) Close(ctx context.Context) error {
	return s.registry.Shutdown(ctx)
}
