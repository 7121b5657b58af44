package luadrv

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
)

// installModules registers the mem and mci globals.
func (d *Driver) installModules() {
	L := d.L

	mem := L.NewTable()
	L.SetFuncs(mem, map[string]lua.LGFunction{
		"read8":       d.memRead8,
		"read16":      d.memRead16,
		"read32":      d.memRead32,
		"write8":      d.memWrite8,
		"write16":     d.memWrite16,
		"write32":     d.memWrite32,
		"slot":        d.memSlot,
		"setslot":     d.memSetSlot,
		"readstring":  d.memReadString,
		"writestring": d.memWriteString,
	})
	L.SetGlobal("mem", mem)

	mci := L.NewTable()
	msg := L.NewTable()
	for _, m := range mmsys.Messages() {
		msg.RawSetString(m.String(), lua.LNumber(m))
	}
	mci.RawSetString("msg", msg)

	for name, v := range map[string]uint32{
		"NOTIFY": mmsys.FlagNotify,
		"WAIT":   mmsys.FlagWait,
		"FROM":   mmsys.FlagFrom,
		"TO":     mmsys.FlagTo,
		"TRACK":  mmsys.FlagTrack,

		"RETURN_INTEGER":         mmsys.ReturnInteger,
		"RETURN_RESOURCE":        mmsys.ReturnResource,
		"RETURN_RESOURCE_DRIVER": mmsys.ReturnResourceDriver,
		"RETURN_COLONIZED3":      mmsys.ReturnColonized3,
		"RETURN_COLONIZED4":      mmsys.ReturnColonized4,

		"MODE_STOP":   mmsys.ModeStop,
		"MODE_PLAY":   mmsys.ModePlay,
		"MODE_RECORD": mmsys.ModeRecord,
		"MODE_PAUSE":  mmsys.ModePause,
		"TRUE":        mmsys.True,
		"FALSE":       mmsys.False,

		"ERR_UNSUPPORTED":   errors.CodeUnsupportedFunction,
		"ERR_MISSING_PARAM": errors.CodeMissingParameter,
		"ERR_BAD_CONSTANT":  errors.CodeBadConstant,
		"ERR_OUT_OF_RANGE":  errors.CodeOutOfRange,
		"ERR_CUSTOM_BASE":   errors.CodeCustomDriverBase,
	} {
		mci.RawSetString(name, lua.LNumber(v))
	}
	L.SetFuncs(mci, map[string]lua.LGFunction{
		"log": d.log,
	})
	L.SetGlobal("mci", mci)
}

func (d *Driver) space(L *lua.LState) mciruntime.AddressSpace {
	if d.mem == nil {
		L.RaiseError("no parameter block outside send")
	}
	return d.mem
}

func checkU32(L *lua.LState, n int) uint32 {
	return uint32(int64(L.CheckNumber(n)))
}

func (d *Driver) raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func (d *Driver) memRead8(L *lua.LState) int {
	v, err := d.space(L).ReadU8(checkU32(L, 1))
	if err != nil {
		return d.raise(L, err)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (d *Driver) memRead16(L *lua.LState) int {
	v, err := d.space(L).ReadU16(checkU32(L, 1))
	if err != nil {
		return d.raise(L, err)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (d *Driver) memRead32(L *lua.LState) int {
	v, err := d.space(L).ReadU32(checkU32(L, 1))
	if err != nil {
		return d.raise(L, err)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (d *Driver) memWrite8(L *lua.LState) int {
	if err := d.space(L).WriteU8(checkU32(L, 1), uint8(checkU32(L, 2))); err != nil {
		return d.raise(L, err)
	}
	return 0
}

func (d *Driver) memWrite16(L *lua.LState) int {
	if err := d.space(L).WriteU16(checkU32(L, 1), uint16(checkU32(L, 2))); err != nil {
		return d.raise(L, err)
	}
	return 0
}

func (d *Driver) memWrite32(L *lua.LState) int {
	if err := d.space(L).WriteU32(checkU32(L, 1), checkU32(L, 2)); err != nil {
		return d.raise(L, err)
	}
	return 0
}

// memSlot reads the 32-bit slot i of the parameter block at addr.
func (d *Driver) memSlot(L *lua.LState) int {
	addr, i := checkU32(L, 1), checkU32(L, 2)
	v, err := d.space(L).ReadU32(addr + 4*i)
	if err != nil {
		return d.raise(L, err)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (d *Driver) memSetSlot(L *lua.LState) int {
	addr, i := checkU32(L, 1), checkU32(L, 2)
	if err := d.space(L).WriteU32(addr+4*i, checkU32(L, 3)); err != nil {
		return d.raise(L, err)
	}
	return 0
}

func (d *Driver) memReadString(L *lua.LState) int {
	s, err := memory.ReadCString(d.space(L), checkU32(L, 1))
	if err != nil {
		return d.raise(L, err)
	}
	L.Push(lua.LString(s))
	return 1
}

// memWriteString copies s into the size-byte buffer at addr and returns
// whether it was truncated.
func (d *Driver) memWriteString(L *lua.LState) int {
	addr, size := checkU32(L, 1), checkU32(L, 2)
	s := L.CheckString(3)
	truncated, err := memory.PutBuffer(d.space(L), addr, size, s)
	if err != nil {
		return d.raise(L, err)
	}
	L.Push(lua.LBool(truncated))
	return 1
}

func (d *Driver) log(L *lua.LState) int {
	Logger().Debug(L.CheckString(1),
		zap.String("script", d.script),
		zap.Uint32("device", uint32(d.params.DeviceID)))
	return 0
}
