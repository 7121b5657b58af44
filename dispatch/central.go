package dispatch

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/registry"
)

// Sysinfo block offsets.
const (
	sysInfoBuffer     = 4
	sysInfoSize       = 8
	sysInfoNumber     = 12
	sysInfoDeviceType = 16
)

// sysInfo answers a sysinfo query from the registry and the catalog. The
// answer is written as text into the block's return buffer.
func (d *Dispatcher) sysInfo(ctx context.Context, c Call) (uint32, error) {
	if c.Params == 0 {
		return 0, nullBlock(c.Message)
	}
	word := func(off uint32) (uint32, error) { return c.Mem.ReadU32(c.Params + off) }
	buf, err := word(sysInfoBuffer)
	if err != nil {
		return 0, err
	}
	size, err := word(sysInfoSize)
	if err != nil {
		return 0, err
	}
	number, err := word(sysInfoNumber)
	if err != nil {
		return 0, err
	}
	typeID, err := word(sysInfoDeviceType)
	if err != nil {
		return 0, err
	}

	q := sysInfoQuery{
		deviceType: strings.ToLower(c.DeviceType),
		all:        c.Device == mmsys.AllDevices,
		open:       c.Flags&mmsys.SysInfoOpen != 0,
		number:     number,
	}
	if q.deviceType == "" && !q.all {
		if name, ok := mmsys.DeviceTypeName(typeID & 0xFFFF); ok {
			q.deviceType = name
		} else if s, err := d.registry.FindByID(c.Device); err == nil {
			q.deviceType = s.DeviceType
		}
	}

	var answer string
	switch {
	case c.Flags&mmsys.SysInfoQuantity != 0:
		answer = strconv.Itoa(len(d.names(q)))
	case c.Flags&mmsys.SysInfoName != 0:
		names := d.names(q)
		if number == 0 || int(number) > len(names) {
			return 0, errors.New(errors.PhaseDispatch, errors.KindInternal).
				Code(errors.CodeOutOfRange).
				Value(number).
				Detail("sysinfo name %d of %d", number, len(names)).
				Build()
		}
		answer = names[number-1]
	case c.Flags&mmsys.SysInfoInstallName != 0:
		s, err := d.installed(c)
		if err != nil {
			return 0, err
		}
		answer = s.DeviceType
	default:
		return 0, errors.New(errors.PhaseDispatch, errors.KindMissingParameter).
			Path(c.Message.String()).
			Detail("sysinfo needs quantity, name or installname").
			Build()
	}

	if buf == 0 || size == 0 {
		return 0, errors.New(errors.PhaseDispatch, errors.KindMissingParameter).
			Detail("sysinfo has no return buffer").
			Build()
	}
	truncated, err := memory.PutBuffer(c.Mem, buf, size, answer)
	if err != nil {
		return 0, err
	}
	if truncated {
		return 0, overflow(answer, size)
	}
	return 0, nil
}

type sysInfoQuery struct {
	deviceType string
	number     uint32
	all        bool
	open       bool
}

// names lists the devices a query covers: open session names or installed
// device types.
func (d *Dispatcher) names(q sysInfoQuery) []string {
	var out []string
	if q.open {
		for _, s := range d.registry.Sessions() {
			if q.all || s.DeviceType == q.deviceType {
				out = append(out, s.Name())
			}
		}
		return out
	}
	if d.catalog == nil {
		return nil
	}
	for _, t := range d.catalog.Installed() {
		if q.all || t == q.deviceType {
			out = append(out, t)
		}
	}
	return out
}

// installed finds the session an installname query is about. On the string
// path the device name arrives as the call's device type.
func (d *Dispatcher) installed(c Call) (*registry.Session, error) {
	if c.DeviceType != "" {
		return d.registry.FindByName(c.DeviceType)
	}
	return d.registry.FindByID(c.Device)
}

// setBreak changes a session's break key. Targeting every device sets the
// key new sessions start with.
func (d *Dispatcher) setBreak(c Call) error {
	var key uint32
	if c.Flags&mmsys.BreakOff == 0 && c.Flags&mmsys.BreakKey != 0 {
		if c.Params == 0 {
			return nullBlock(c.Message)
		}
		var err error
		if c.Convention == driver.Legacy {
			var k uint16
			k, err = c.Mem.ReadU16(c.Params + 4)
			key = uint32(k)
		} else {
			key, err = c.Mem.ReadU32(c.Params + 4)
		}
		if err != nil {
			return err
		}
	}

	if c.Device == mmsys.AllDevices {
		d.breakKey.Store(key)
		Logger().Debug("default break key set", zap.Uint32("key", key))
		return nil
	}
	s, err := d.registry.FindByID(c.Device)
	if err != nil {
		return err
	}
	s.SetBreakKey(key)
	Logger().Debug("break key set",
		zap.Uint32("device", uint32(s.ID)),
		zap.Uint32("key", key))
	return nil
}

// DefaultBreakKey returns the break key new sessions start with.
func (d *Dispatcher) DefaultBreakKey() uint32 {
	return d.breakKey.Load()
}
