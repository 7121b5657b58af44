package luadrv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
)

// Script is a compiled driver script. One Script can back any number of
// sessions; each session runs it in its own interpreter state.
type Script struct {
	name  string
	proto *lua.FunctionProto
}

// Compile parses and compiles a driver script.
func Compile(name, src string) (*Script, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, compileError(name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, compileError(name, err)
	}
	return &Script{name: name, proto: proto}, nil
}

// Load reads and compiles a driver script from disk.
func Load(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, compileError(path, err)
	}
	return Compile(filepath.Base(path), string(src))
}

// Name returns the chunk name the script was compiled under.
func (s *Script) Name() string {
	return s.name
}

// Option configures drivers created by Factory.
type Option func(*config)

type config struct {
	table []byte
}

// WithCommandTable gives every session the encoded command table data.
func WithCommandTable(data []byte) Option {
	return func(c *config) {
		c.table = data
	}
}

// Factory returns a driver.Factory that opens one interpreter per session.
func Factory(s *Script, opts ...Option) driver.Factory {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(ctx context.Context, p driver.OpenParams) (driver.Driver, error) {
		d, err := open(ctx, s, p, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// Driver is a flat-convention driver implemented by a Lua script.
//
// The script defines global functions:
//
//	function open(device) return 0 end        -- optional
//	function send(msg, p1, p2) return 0 end   -- required
//	function close() end                       -- optional
//
// and may define a global strings table mapping resource ids to text.
// Calls into one Driver are serialized.
type Driver struct {
	mu     sync.Mutex
	L      *lua.LState
	mem    mciruntime.AddressSpace
	script string
	table  []byte
	params driver.OpenParams
	closed bool
}

func open(ctx context.Context, s *Script, p driver.OpenParams, cfg config) (*Driver, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	d := &Driver{L: L, script: s.name, table: cfg.table, params: p}

	if err := openLibs(L); err != nil {
		L.Close()
		return nil, d.loadError(err, "cannot open standard libraries")
	}
	d.installModules()

	L.SetContext(ctx)
	defer L.RemoveContext()

	L.Push(L.NewFunctionFromProto(s.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, d.loadError(err, "script failed")
	}
	if L.GetGlobal("send").Type() != lua.LTFunction {
		L.Close()
		return nil, d.loadError(nil, "script defines no send function")
	}

	if fn := L.GetGlobal("open"); fn.Type() == lua.LTFunction {
		dev := L.NewTable()
		dev.RawSetString("type", lua.LString(p.DeviceType))
		dev.RawSetString("alias", lua.LString(p.Alias))
		dev.RawSetString("element", lua.LString(p.Element))
		dev.RawSetString("id", lua.LNumber(p.DeviceID))
		dev.RawSetString("flags", lua.LNumber(p.Flags))

		code, err := d.call(fn, dev)
		if err != nil {
			L.Close()
			return nil, d.loadError(err, "open failed")
		}
		if code != 0 {
			L.Close()
			return nil, errors.Driver(code)
		}
	}

	Logger().Debug("lua driver opened",
		zap.String("script", s.name),
		zap.String("type", p.DeviceType),
		zap.Uint32("device", uint32(p.DeviceID)))
	return d, nil
}

func openLibs(L *lua.LState) error {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return err
		}
	}
	return nil
}

// call runs fn and converts its first result into a status word. A nil or
// missing result is success.
func (d *Driver) call(fn lua.LValue, args ...lua.LValue) (uint32, error) {
	if err := d.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return 0, err
	}
	ret := d.L.Get(-1)
	d.L.Pop(1)
	switch v := ret.(type) {
	case lua.LNumber:
		return uint32(int64(v)), nil
	case lua.LBool:
		if v {
			return 0, nil
		}
		return errors.CodeDriverInternal, nil
	}
	return 0, nil
}

func (d *Driver) Convention() driver.Convention {
	return driver.Flat
}

// Send runs the script's send function. Script errors are reported as a
// driver-internal status.
func (d *Driver) Send(ctx context.Context, req driver.Request) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.CodeInvalidDeviceID
	}

	d.mem = req.Mem
	d.L.SetContext(ctx)
	defer func() {
		d.mem = nil
		d.L.RemoveContext()
	}()

	code, err := d.call(d.L.GetGlobal("send"),
		lua.LNumber(req.Message),
		lua.LNumber(req.P1),
		lua.LNumber(req.P2))
	if err != nil {
		Logger().Warn("lua driver send failed",
			zap.String("script", d.script),
			zap.Stringer("message", req.Message),
			zap.Error(err))
		return errors.CodeDriverInternal
	}
	return code
}

// Close runs the script's close function, if any, and releases the
// interpreter. Further calls fail.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	defer d.L.Close()

	fn := d.L.GetGlobal("close")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	d.L.SetContext(ctx)
	if _, err := d.call(fn); err != nil {
		return errors.Wrap(errors.PhaseDriver, errors.KindDriver, err, "close failed in "+d.script)
	}
	return nil
}

// CommandTable returns the table given with WithCommandTable, or nil.
func (d *Driver) CommandTable() []byte {
	return d.table
}

// String looks id up in the script's strings table.
func (d *Driver) String(id uint32) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", false
	}
	tbl, ok := d.L.GetGlobal("strings").(*lua.LTable)
	if !ok {
		return "", false
	}
	s, ok := tbl.RawGetInt(int(id)).(lua.LString)
	return string(s), ok
}

func (d *Driver) loadError(cause error, detail string) error {
	b := errors.New(errors.PhaseDriver, errors.KindCannotLoadDriver).
		Path(d.script).
		Detail("%s", detail)
	if cause != nil {
		b = b.Cause(cause)
	}
	return b.Build()
}

func compileError(name string, cause error) error {
	return errors.New(errors.PhaseDriver, errors.KindCannotLoadDriver).
		Path(name).
		Cause(cause).
		Detail("cannot compile driver script").
		Build()
}

var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.TableProvider = (*Driver)(nil)
	_ driver.StringTable   = (*Driver)(nil)
)
