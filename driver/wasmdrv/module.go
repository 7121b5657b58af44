package wasmdrv

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
)

// Guest export names.
const (
	ExportMemory = "memory"
	ExportAlloc  = "mci_alloc" // (size, align i32) -> ptr i32
	ExportFree   = "mci_free"  // (ptr, size, align i32), optional
	ExportSend   = "mci_send"  // (msg, p1, p2 i32) -> result i32
	ExportOpen   = "mci_open"  // (device, flags i32) -> status i32, optional
	ExportClose  = "mci_close" // (), optional
)

// Config holds runtime configuration for compiled driver modules.
type Config struct {
	// MemoryLimitPages caps each guest's linear memory (64KiB pages).
	MemoryLimitPages uint32
}

// Module is a compiled driver module. Each session instantiates it afresh.
type Module struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	name     string
}

// Compile compiles wasm and checks that it exports the driver interface.
func Compile(ctx context.Context, name string, wasm []byte, cfg *Config) (*Module, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, loadError(name, err, "compile failed")
	}
	if err := checkExports(compiled); err != nil {
		rt.Close(ctx)
		return nil, loadError(name, nil, err.Error())
	}
	return &Module{runtime: rt, compiled: compiled, name: name}, nil
}

// LoadFile reads and compiles a driver module from disk.
func LoadFile(ctx context.Context, path string, cfg *Config) (*Module, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, err, "cannot read module")
	}
	return Compile(ctx, filepath.Base(path), wasm, cfg)
}

type signature struct {
	params, results int
	optional        bool
}

var exportSignatures = map[string]signature{
	ExportAlloc: {params: 2, results: 1},
	ExportFree:  {params: 3, results: 0, optional: true},
	ExportSend:  {params: 3, results: 1},
	ExportOpen:  {params: 2, results: 1, optional: true},
	ExportClose: {params: 0, results: 0, optional: true},
}

func checkExports(m wazero.CompiledModule) error {
	if _, ok := m.ExportedMemories()[ExportMemory]; !ok {
		return errors.New(errors.PhaseDriver, errors.KindCannotLoadDriver).
			Detail("module does not export %q", ExportMemory).
			Build()
	}
	funcs := m.ExportedFunctions()
	for name, sig := range exportSignatures {
		def, ok := funcs[name]
		if !ok {
			if sig.optional {
				continue
			}
			return errors.New(errors.PhaseDriver, errors.KindCannotLoadDriver).
				Detail("module does not export %q", name).
				Build()
		}
		if !allI32(def.ParamTypes(), sig.params) || !allI32(def.ResultTypes(), sig.results) {
			return errors.New(errors.PhaseDriver, errors.KindCannotLoadDriver).
				Detail("export %q has the wrong signature", name).
				Build()
		}
	}
	return nil
}

func allI32(types []api.ValueType, n int) bool {
	if len(types) != n {
		return false
	}
	for _, t := range types {
		if t != api.ValueTypeI32 {
			return false
		}
	}
	return true
}

// Name returns the module's name.
func (m *Module) Name() string {
	return m.name
}

// Factory returns a driver.Factory that instantiates the module per session.
func (m *Module) Factory() driver.Factory {
	return func(ctx context.Context, p driver.OpenParams) (driver.Driver, error) {
		d, err := m.instantiate(ctx, p)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// Close releases the runtime and every instance still open.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

func loadError(name string, cause error, detail string) error {
	b := errors.New(errors.PhaseDriver, errors.KindCannotLoadDriver).
		Path(name).
		Detail("%s", detail)
	if cause != nil {
		b = b.Cause(cause)
	}
	return b.Build()
}
