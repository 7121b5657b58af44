package dispatch

import (
	"context"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/registry"
	"github.com/wippyai/mci-runtime/transcoder"
)

// Offsets shared by the flat and legacy open blocks.
const (
	openDeviceID = 4
	openType     = 8
	openElement  = 12
	openAlias    = 16
)

// Catalog is what the dispatcher needs to know about installed drivers.
type Catalog interface {
	Installed() []string
	IsInstalled(deviceType string) bool
	DeviceTypeFor(path string) (string, bool)
}

// Notifier receives the completion of calls made with the notify flag.
type Notifier interface {
	Notify(ctx context.Context, device mmsys.DeviceID, msg mmsys.Message, status uint32)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, device mmsys.DeviceID, msg mmsys.Message, status uint32)

func (f NotifierFunc) Notify(ctx context.Context, device mmsys.DeviceID, msg mmsys.Message, status uint32) {
	f(ctx, device, msg, status)
}

// Config wires a Dispatcher.
type Config struct {
	Registry  *registry.Registry
	Catalog   Catalog
	Marshaler *transcoder.Marshaler
	Notifier  Notifier
	Observer  Observer
	// ScratchLimit caps the flat address space used when a legacy caller
	// reaches a flat driver. Zero means memory.DefaultLimit.
	ScratchLimit uint32
}

// Call is one binary command. Params is the address of the parameter block
// in Mem, laid out for the caller's Convention, or 0 for none.
type Call struct {
	Mem mciruntime.AddressSpace
	// DeviceType names the device type of a sysinfo query whose block
	// carries no type id.
	DeviceType string
	Device     mmsys.DeviceID
	Message    mmsys.Message
	Flags      uint32
	Params     uint32
	Convention driver.Convention
}

// Dispatcher routes calls to drivers, marshaling parameter blocks when the
// caller and the driver disagree on convention. It is safe for concurrent
// use.
type Dispatcher struct {
	registry  *registry.Registry
	catalog   Catalog
	marshaler *transcoder.Marshaler
	notifier  Notifier
	observer  Observer
	stats     counters
	breakKey  atomic.Uint32
	scratch   uint32
}

// New creates a dispatcher. A nil Marshaler uses the default descriptors.
func New(cfg Config) *Dispatcher {
	m := cfg.Marshaler
	if m == nil {
		m = transcoder.NewMarshaler(nil)
	}
	return &Dispatcher{
		registry:  cfg.Registry,
		catalog:   cfg.Catalog,
		marshaler: m,
		notifier:  cfg.Notifier,
		observer:  cfg.Observer,
		scratch:   cfg.ScratchLimit,
	}
}

// Send dispatches a binary call and returns the driver's raw result. STATUS
// and GETDEVCAPS results lose their return-encoding tag, and resource values
// stored in the block are reduced to their low word. A non-zero status is
// returned as an error whose code is that status.
func (d *Dispatcher) Send(ctx context.Context, c Call) (uint32, error) {
	tr := d.begin(c.Device, c.Message)
	raw, err := d.route(ctx, tr, c)
	if err != nil {
		return 0, d.finish(ctx, tr, c.Flags, err)
	}

	tr.to(StateFormatting)
	if c.Message == mmsys.MsgStatus || c.Message == mmsys.MsgGetDevCaps {
		if raw&mmsys.ReturnResource != 0 || raw&mmsys.ReturnResourceDriver != 0 {
			if err := stripResource(c.Mem, c.Params); err != nil {
				return 0, d.finish(ctx, tr, c.Flags, err)
			}
		}
		raw = mmsys.StripTag(raw)
	}
	return raw, d.finish(ctx, tr, c.Flags, nil)
}

// route resolves and delivers a call, handling the centrally answered
// messages itself.
func (d *Dispatcher) route(ctx context.Context, tr *trace, c Call) (uint32, error) {
	tr.to(StateResolving)
	d.stats.calls.Inc()

	switch c.Message {
	case mmsys.MsgOpen:
		return d.open(ctx, tr, c)
	case mmsys.MsgClose:
		return 0, d.close(ctx, tr, c)
	case mmsys.MsgSysInfo:
		return d.sysInfo(ctx, c)
	case mmsys.MsgBreak:
		return 0, d.setBreak(c)
	}

	if c.Device == mmsys.AllDevices {
		return 0, errors.CannotUseAll(c.Message.String())
	}
	s, err := d.registry.FindByID(c.Device)
	if err != nil {
		return 0, err
	}
	return d.deliver(ctx, tr, s, c)
}

// deliver sends c to s's driver, marshaling the block across conventions.
func (d *Dispatcher) deliver(ctx context.Context, tr *trace, s *registry.Session, c Call) (uint32, error) {
	target, handle := c.Mem, c.Params

	var guard *transcoder.Guard
	if c.Convention != s.Convention && c.Params != 0 {
		tr.to(StateMarshaling)
		var err error
		switch s.Convention {
		case driver.Legacy:
			guard, err = d.marshaler.ToLegacy(s.Kind(), c.Message, c.Flags, c.Mem, c.Params, s.Legacy)
			target = s.Legacy
		default:
			flat := memory.Get(d.scratch)
			defer memory.Put(flat)
			guard, err = d.marshaler.ToFlat(s.Kind(), c.Message, c.Flags, c.Mem, c.Params, flat)
			target = flat
		}
		if err != nil {
			return 0, err
		}
		handle = guard.Handle()
		if guard.Mapped() {
			d.stats.marshaled.Inc()
		} else {
			target = c.Mem
		}
		Logger().Debug("block marshaled",
			zap.Uint32("device", uint32(s.ID)),
			zap.Stringer("message", c.Message),
			zap.Stringer("driver", s.Convention),
			zap.Bool("mapped", guard.Mapped()))
	}

	tr.to(StateSent)
	raw := s.Driver.Send(ctx, driver.Request{
		Mem:     target,
		Message: c.Message,
		P1:      c.Flags,
		P2:      handle,
	})

	if guard != nil && guard.Mapped() {
		tr.to(StateUnmarshaling)
	}
	if err := guard.Release(); err != nil {
		return 0, err
	}
	if status := errors.Status(raw); status != errors.CodeOK {
		return raw, errors.Driver(status)
	}
	return raw, nil
}

// open opens a session from a binary open block, then completes it.
func (d *Dispatcher) open(ctx context.Context, tr *trace, c Call) (uint32, error) {
	if c.Params == 0 {
		return 0, nullBlock(c.Message)
	}
	req, err := d.openRequest(c)
	if err != nil {
		return 0, err
	}
	s, err := d.registry.Open(ctx, req)
	if err != nil {
		return 0, err
	}
	tr.device = s.ID
	if c.Convention == driver.Legacy {
		err = c.Mem.WriteU16(c.Params+openDeviceID, uint16(s.ID))
	} else {
		err = c.Mem.WriteU32(c.Params+openDeviceID, uint32(s.ID))
	}
	if err != nil {
		d.unwind(ctx, s)
		return 0, err
	}
	return d.complete(ctx, tr, s, c)
}

// complete sends the open notification to a new session's driver. A
// failure unwinds the session.
func (d *Dispatcher) complete(ctx context.Context, tr *trace, s *registry.Session, c Call) (uint32, error) {
	s.SetBreakKey(d.breakKey.Load())
	c.Message = mmsys.MsgOpenDriver
	c.Device = s.ID
	raw, err := d.deliver(ctx, tr, s, c)
	if err != nil {
		d.unwind(ctx, s)
		return 0, err
	}
	d.stats.opens.Inc()
	return raw, nil
}

func (d *Dispatcher) unwind(ctx context.Context, s *registry.Session) {
	if err := d.registry.Unwind(ctx, s.ID); err != nil {
		Logger().Warn("open unwind failed",
			zap.Uint32("device", uint32(s.ID)),
			zap.Error(err))
	}
}

func (d *Dispatcher) openRequest(c Call) (registry.OpenRequest, error) {
	var req registry.OpenRequest
	req.Flags = c.Flags

	str := func(offset uint32) (string, error) {
		addr, err := c.Mem.ReadU32(c.Params + offset)
		if err != nil {
			return "", err
		}
		return memory.ReadCString(c.Mem, addr)
	}

	var err error
	if c.Flags&mmsys.OpenType != 0 {
		if c.Flags&mmsys.OpenTypeID != 0 {
			id, rerr := c.Mem.ReadU32(c.Params + openType)
			if rerr != nil {
				return req, rerr
			}
			name, ok := mmsys.DeviceTypeName(id & 0xFFFF)
			if !ok {
				return req, errors.New(errors.PhaseDispatch, errors.KindDeviceNotInstalled).
					Value(id).
					Detail("unknown device type id %d", id).
					Build()
			}
			req.DeviceType = name
		} else if req.DeviceType, err = str(openType); err != nil {
			return req, err
		}
	}
	if c.Flags&mmsys.OpenElement != 0 && c.Flags&mmsys.OpenElementID == 0 {
		if req.Element, err = str(openElement); err != nil {
			return req, err
		}
	}
	if c.Flags&mmsys.OpenAlias != 0 {
		if req.Alias, err = str(openAlias); err != nil {
			return req, err
		}
	}

	if req.DeviceType == "" {
		if req.Element == "" {
			return req, errors.New(errors.PhaseDispatch, errors.KindMissingDeviceName).
				Detail("open names neither a device type nor an element").
				Build()
		}
		dt, ok := "", false
		if d.catalog != nil {
			dt, ok = d.catalog.DeviceTypeFor(req.Element)
		}
		if !ok {
			return req, errors.ExtensionNotFound(req.Element)
		}
		req.DeviceType = dt
	}
	return req, nil
}

// close closes one session or all of them, sending each driver the close
// notification first. A failed notification while closing all devices is
// counted as a warning and does not fail the command.
func (d *Dispatcher) close(ctx context.Context, tr *trace, c Call) error {
	notify := func(ctx context.Context, s *registry.Session) error {
		nc := c
		nc.Message = mmsys.MsgCloseDriver
		nc.Device = s.ID
		_, err := d.deliver(ctx, tr, s, nc)
		return err
	}
	if c.Device == mmsys.AllDevices {
		warning, err := d.registry.CloseAll(ctx, notify)
		if warning != nil {
			d.stats.warnings.Inc()
		}
		if err != nil {
			return err
		}
		d.stats.closes.Inc()
		return nil
	}
	if err := d.registry.Close(ctx, c.Device, notify); err != nil {
		return err
	}
	d.stats.closes.Inc()
	return nil
}

// finish records the outcome, posts the completion notification and moves
// the trace to its final state.
func (d *Dispatcher) finish(ctx context.Context, tr *trace, flags uint32, err error) error {
	if flags&mmsys.FlagNotify != 0 && d.notifier != nil {
		status := mmsys.NotifySuccessful
		if err != nil {
			status = mmsys.NotifyFailure
		}
		d.notifier.Notify(ctx, tr.device, tr.message, status)
	}
	if err != nil {
		d.stats.failures.Inc()
		return tr.fail(err)
	}
	tr.to(StateDone)
	return nil
}

func stripResource(mem mciruntime.Memory, params uint32) error {
	if params == 0 {
		return nil
	}
	v, err := mem.ReadU32(params + 4)
	if err != nil {
		return err
	}
	return mem.WriteU32(params+4, v&0xFFFF)
}

func nullBlock(msg mmsys.Message) error {
	return errors.New(errors.PhaseDispatch, errors.KindNullParameterBlock).
		Path(msg.String()).
		Detail("message needs a parameter block").
		Build()
}
