package dispatch

import (
	"context"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/parser"
	"github.com/wippyai/mci-runtime/transcoder"
)

const blockSize = parser.SlotCount * 4

// Execute dispatches a parsed command whose strings live in as and returns
// its reply as text. An invocation that opened a session is completed with
// the open notification, or unwound if that fails.
func (d *Dispatcher) Execute(ctx context.Context, inv *parser.Invocation, as mciruntime.AddressSpace) (string, error) {
	msg := inv.Message()
	tr := d.begin(inv.Device, msg)

	reply, err := d.execute(ctx, tr, inv, as)
	if err != nil {
		return "", d.finish(ctx, tr, inv.Flags, err)
	}

	tr.to(StateFormatting)
	var strs driver.StringTable
	if inv.Session != nil {
		strs, _ = inv.Session.Strings()
	}
	text, err := FormatReturn(reply, strs, inv.ReturnSize)
	return text, d.finish(ctx, tr, inv.Flags, err)
}

func (d *Dispatcher) execute(ctx context.Context, tr *trace, inv *parser.Invocation, as mciruntime.AddressSpace) (Reply, error) {
	allocs := transcoder.NewAllocationList()
	defer allocs.FreeAndRelease(as)

	addr, err := allocs.Alloc(as, blockSize, 4)
	if err == nil {
		data := inv.Data
		if inv.Opened {
			data[1] = uint32(inv.Device)
		}
		err = writeBlock(as, addr, &data)
	}
	if err != nil {
		if inv.Opened {
			d.unwind(ctx, inv.Session)
		}
		return Reply{}, err
	}

	c := Call{
		Mem:        as,
		DeviceType: inv.DeviceType,
		Device:     inv.Device,
		Message:    inv.Message(),
		Flags:      inv.Flags,
		Params:     addr,
		Convention: driver.Flat,
	}

	var raw uint32
	if inv.Opened {
		tr.to(StateResolving)
		d.stats.calls.Inc()
		raw, err = d.complete(ctx, tr, inv.Session, c)
	} else {
		raw, err = d.route(ctx, tr, c)
	}
	if err != nil {
		return Reply{}, err
	}

	r := Reply{Raw: raw, Return: inv.Command.Return}
	if err := readBlock(as, addr, &r.Data); err != nil {
		return Reply{}, err
	}
	if inv.ReturnBuffer != 0 {
		if r.Text, err = memory.ReadCString(as, inv.ReturnBuffer); err != nil {
			return Reply{}, err
		}
	}
	if inv.Opened {
		// The device id is the reply whatever the driver left in the block.
		r.Data[1], r.Raw = uint32(inv.Device), 0
	}
	return r, nil
}

func writeBlock(mem mciruntime.Memory, addr uint32, data *[parser.SlotCount]uint32) error {
	for i, v := range data {
		if err := mem.WriteU32(addr+uint32(i)*4, v); err != nil {
			return err
		}
	}
	return nil
}

func readBlock(mem mciruntime.Memory, addr uint32, data *[parser.SlotCount]uint32) error {
	for i := range data {
		v, err := mem.ReadU32(addr + uint32(i)*4)
		if err != nil {
			return err
		}
		data[i] = v
	}
	return nil
}
