package wasmdrv

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
)

// Driver is a legacy-convention driver running in its own module instance.
// Parameter blocks for it live in the guest's linear memory.
type Driver struct {
	mu      sync.Mutex
	mod     api.Module
	space   space
	send    api.Function
	closeFn api.Function
	name    string
	device  uint32
	closed  bool
}

func (m *Module) instantiate(ctx context.Context, p driver.OpenParams) (*Driver, error) {
	// Anonymous so several sessions of one module can coexist.
	mod, err := m.runtime.InstantiateModule(ctx, m.compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, loadError(m.name, err, "instantiate failed")
	}

	d := &Driver{
		mod:     mod,
		send:    mod.ExportedFunction(ExportSend),
		closeFn: mod.ExportedFunction(ExportClose),
		name:    m.name,
		device:  uint32(p.DeviceID),
	}
	d.space = space{
		Memory: &Memory{Mem: mod.ExportedMemory(ExportMemory)},
		allocator: &allocator{
			mu:      &d.mu,
			allocFn: mod.ExportedFunction(ExportAlloc),
			freeFn:  mod.ExportedFunction(ExportFree),
			name:    m.name,
		},
	}

	if open := mod.ExportedFunction(ExportOpen); open != nil {
		results, err := open.Call(ctx, uint64(p.DeviceID), uint64(p.Flags))
		if err != nil {
			mod.Close(ctx)
			return nil, loadError(m.name, err, "mci_open trapped")
		}
		if code := uint32(results[0]); code != 0 {
			mod.Close(ctx)
			return nil, errors.Driver(code)
		}
	}

	Logger().Debug("wasm driver instantiated",
		zap.String("module", m.name),
		zap.String("type", p.DeviceType),
		zap.Uint32("device", d.device),
		zap.Uint32("memory", d.space.Size()))
	return d, nil
}

func (d *Driver) Convention() driver.Convention {
	return driver.Legacy
}

// AddressSpace returns the guest's linear memory and allocator.
func (d *Driver) AddressSpace() mciruntime.AddressSpace {
	return d.space
}

// Send calls mci_send. A trap is reported as a driver-internal status.
func (d *Driver) Send(ctx context.Context, req driver.Request) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.CodeInvalidDeviceID
	}
	results, err := d.send.Call(ctx, uint64(req.Message), uint64(req.P1), uint64(req.P2))
	if err != nil {
		Logger().Warn("wasm driver trapped",
			zap.String("module", d.name),
			zap.Uint32("device", d.device),
			zap.Stringer("message", req.Message),
			zap.Error(err))
		return errors.CodeDriverInternal
	}
	return uint32(results[0])
}

// Close calls mci_close, if exported, and closes the instance.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	var callErr error
	if d.closeFn != nil {
		if _, err := d.closeFn.Call(ctx); err != nil {
			callErr = errors.Wrap(errors.PhaseDriver, errors.KindDriver, err, "mci_close trapped in "+d.name)
		}
	}
	if err := d.mod.Close(ctx); err != nil && callErr == nil {
		return err
	}
	return callErr
}

var (
	_ driver.Driver               = (*Driver)(nil)
	_ driver.AddressSpaceProvider = (*Driver)(nil)
)
