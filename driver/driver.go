package driver

import (
	"context"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/mmsys"
)

// Convention is the parameter-passing layout a driver expects.
type Convention uint8

const (
	// Flat drivers take 4-byte fields everywhere.
	Flat Convention = iota
	// Legacy drivers take 2-byte handles and integers in some fields and
	// read parameter blocks from their own address space.
	Legacy
)

func (c Convention) String() string {
	if c == Legacy {
		return "legacy"
	}
	return "flat"
}

// OpenParams describes the session a driver is being opened for.
type OpenParams struct {
	DeviceType string
	Alias      string
	Element    string
	DeviceID   mmsys.DeviceID
	Flags      uint32
}

// Request is one synchronous driver call. P2 is an address in Mem, or 0 when
// the message carries no parameter block.
type Request struct {
	Mem     mciruntime.AddressSpace
	Message mmsys.Message
	P1      uint32
	P2      uint32
}

// Driver is the uniform contract every device driver exposes.
//
// Send returns a raw result: a zero low word is success, anything else an
// error code; the high word may carry a return-encoding tag.
type Driver interface {
	Convention() Convention
	Send(ctx context.Context, req Request) uint32
	Close(ctx context.Context) error
}

// Loader opens drivers by device type.
type Loader interface {
	Load(ctx context.Context, p OpenParams) (Driver, error)
}

// ExtensionResolver infers a device type from an element's file name.
type ExtensionResolver interface {
	DeviceTypeFor(path string) (string, bool)
}

// TableProvider is implemented by drivers that ship their own command table.
// A nil result means the driver uses the device type's table.
type TableProvider interface {
	CommandTable() []byte
}

// StringTable is implemented by drivers that resolve their own resource strings.
type StringTable interface {
	String(id uint32) (string, bool)
}

// AddressSpaceProvider is implemented by legacy drivers that own their memory.
// Parameter blocks for the driver are marshaled into this space.
type AddressSpaceProvider interface {
	AddressSpace() mciruntime.AddressSpace
}

// Funcs builds a Driver from plain functions. A nil CloseFn closes as a no-op.
type Funcs struct {
	SendFn  func(ctx context.Context, req Request) uint32
	CloseFn func(ctx context.Context) error
	Conv    Convention
}

func (f *Funcs) Convention() Convention {
	return f.Conv
}

func (f *Funcs) Send(ctx context.Context, req Request) uint32 {
	if f.SendFn == nil {
		return 0
	}
	return f.SendFn(ctx, req)
}

func (f *Funcs) Close(ctx context.Context) error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn(ctx)
}

var _ Driver = (*Funcs)(nil)
