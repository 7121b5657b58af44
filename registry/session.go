package registry

import (
	"go.uber.org/atomic"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/resource"
)

// Session is one open driver instance. Fields other than the break key are
// fixed once the session is visible to lookups.
type Session struct {
	Driver driver.Driver
	// Table is the driver's own command table, or nil.
	Table *cmdtable.Table
	// Legacy is the address space legacy-convention parameter blocks live
	// in; nil for flat drivers.
	Legacy     mciruntime.AddressSpace
	DeviceType string
	Alias      string
	Element    string
	breakKey   atomic.Uint32
	handle     resource.Handle
	ID         mmsys.DeviceID
	OpenFlags  uint32
	Convention driver.Convention
}

// Kind returns the layout kind used to pick marshal descriptors.
func (s *Session) Kind() mmsys.DeviceKind {
	return mmsys.KindOf(s.DeviceType)
}

// Name returns the name the session is best known by.
func (s *Session) Name() string {
	switch {
	case s.Alias != "":
		return s.Alias
	case s.Element != "":
		return s.Element
	}
	return s.DeviceType
}

// BreakKey returns the virtual key that interrupts a wait on this session.
func (s *Session) BreakKey() uint32 {
	return s.breakKey.Load()
}

// SetBreakKey changes the session's break key. Zero disables it.
func (s *Session) SetBreakKey(key uint32) {
	s.breakKey.Store(key)
}

// Strings returns the driver's resource string table, if it has one.
func (s *Session) Strings() (driver.StringTable, bool) {
	st, ok := s.Driver.(driver.StringTable)
	return st, ok
}
