package transcoder

import (
	"sync"

	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/mmsys"
)

// Mapping is how a descriptor converts its block: a Program or a Custom
// mapping.
type Mapping interface {
	mapping()
}

// Custom names a hand-written mapping for blocks bytecode cannot express.
type Custom uint8

const (
	// CustomOpen maps OPEN and OPEN_DRIVER: strings chosen by flags plus a
	// device-specific trailing extension.
	CustomOpen Custom = iota + 1
	// CustomInfo maps INFO and its return buffer.
	CustomInfo
	// CustomSysInfo maps SYSINFO and its return buffer.
	CustomSysInfo
)

func (Custom) mapping() {}

func (c Custom) String() string {
	switch c {
	case CustomOpen:
		return "open"
	case CustomInfo:
		return "info"
	case CustomSysInfo:
		return "sysinfo"
	}
	return "custom"
}

// Descriptor describes how one message's parameter block is marshaled for
// one device kind.
type Descriptor struct {
	Mapping    Mapping
	Message    mmsys.Message
	Kind       mmsys.DeviceKind
	LegacySize uint32
	// Retain keeps a back-pointer to the source block so results written by
	// the driver are copied back on release.
	Retain bool
}

type descKey struct {
	kind mmsys.DeviceKind
	msg  mmsys.Message
}

// Table is an immutable set of descriptors keyed by device kind and message.
type Table struct {
	entries map[descKey]*Descriptor
}

// NewTable validates descs and indexes them. Program sizes must match the
// declared legacy size and each (kind, message) pair may appear once.
func NewTable(descs []Descriptor) (*Table, error) {
	t := &Table{entries: make(map[descKey]*Descriptor, len(descs))}
	for i := range descs {
		d := descs[i]
		k := descKey{d.Kind, d.Message}
		if _, dup := t.entries[k]; dup {
			return nil, descriptorError(d, "duplicate descriptor")
		}
		switch m := d.Mapping.(type) {
		case Program:
			if got := m.Size(true); got != d.LegacySize {
				return nil, descriptorError(d, "program legacy size %d, declared %d", got, d.LegacySize)
			}
		case Custom:
			if m < CustomOpen || m > CustomSysInfo {
				return nil, descriptorError(d, "unknown custom mapping %d", uint8(m))
			}
		default:
			return nil, descriptorError(d, "descriptor has no mapping")
		}
		t.entries[k] = &d
	}
	return t, nil
}

// Lookup finds the descriptor for kind and msg, falling back to the generic
// kind. A miss means the message has no block to marshal.
func (t *Table) Lookup(kind mmsys.DeviceKind, msg mmsys.Message) (*Descriptor, bool) {
	if d, ok := t.entries[descKey{kind, msg}]; ok {
		return d, true
	}
	d, ok := t.entries[descKey{mmsys.KindGeneric, msg}]
	return d, ok
}

// Len returns the number of descriptors.
func (t *Table) Len() int {
	return len(t.entries)
}

func descriptorError(d Descriptor, format string, args ...any) error {
	return errors.New(errors.PhaseMarshal, errors.KindInternal).
		Path(d.Kind.String(), d.Message.String()).
		Detail(format, args...).
		Build()
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the built-in descriptors.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		t, err := NewTable(builtinDescriptors())
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

func builtinDescriptors() []Descriptor {
	copyOf := func(kind mmsys.DeviceKind, msg mmsys.Message, size uint32, retain bool) Descriptor {
		return Descriptor{Kind: kind, Message: msg, LegacySize: size, Retain: retain, Mapping: MustDecode(0, size)}
	}
	program := func(kind mmsys.DeviceKind, msg mmsys.Message, code, size uint32, retain bool) Descriptor {
		return Descriptor{Kind: kind, Message: msg, LegacySize: size, Retain: retain, Mapping: MustDecode(code, size)}
	}
	custom := func(msg mmsys.Message, c Custom, size uint32) Descriptor {
		return Descriptor{Kind: mmsys.KindGeneric, Message: msg, LegacySize: size, Retain: true, Mapping: c}
	}

	g := mmsys.KindGeneric
	descs := []Descriptor{
		custom(mmsys.MsgOpen, CustomOpen, openBaseSize),
		custom(mmsys.MsgOpenDriver, CustomOpen, openBaseSize),
		custom(mmsys.MsgInfo, CustomInfo, infoSize),
		custom(mmsys.MsgSysInfo, CustomSysInfo, sysInfoSize),

		copyOf(g, mmsys.MsgClose, 4, false),
		copyOf(g, mmsys.MsgCloseDriver, 4, false),
		copyOf(g, mmsys.MsgStop, 4, false),
		copyOf(g, mmsys.MsgPause, 4, false),
		copyOf(g, mmsys.MsgResume, 4, false),
		copyOf(g, mmsys.MsgCue, 4, false),
		copyOf(g, mmsys.MsgRealize, 4, false),
		copyOf(g, mmsys.MsgUpdate, 4, false),
		copyOf(g, mmsys.MsgCut, 4, false),
		copyOf(g, mmsys.MsgCopy, 4, false),
		copyOf(g, mmsys.MsgPaste, 4, false),
		copyOf(g, mmsys.MsgPlay, 12, false),
		copyOf(g, mmsys.MsgRecord, 12, false),
		copyOf(g, mmsys.MsgDelete, 12, false),
		copyOf(g, mmsys.MsgSeek, 8, false),
		copyOf(g, mmsys.MsgStep, 8, false),
		copyOf(g, mmsys.MsgSpin, 12, false),
		copyOf(g, mmsys.MsgSet, 12, false),
		copyOf(g, mmsys.MsgStatus, 16, true),
		copyOf(g, mmsys.MsgGetDevCaps, 12, true),
		program(g, mmsys.MsgBreak, 0x21B, 8, false),
		program(g, mmsys.MsgSave, 0x7B, 8, false),
		program(g, mmsys.MsgLoad, 0x7B, 8, false),

		// input and output shrink to 16 bits; the wave format fields keep
		// their padded 32-bit layout.
		program(mmsys.KindWaveAudio, mmsys.MsgSet, 0xFFF22BBB, 40, false),
		copyOf(mmsys.KindSequencer, mmsys.MsgSet, 32, false),
	}

	for _, k := range []mmsys.DeviceKind{mmsys.KindDigitalVideo, mmsys.KindAnimation, mmsys.KindOverlay} {
		descs = append(descs,
			program(k, mmsys.MsgPut, 0x1111B, 12, true),
			program(k, mmsys.MsgWhere, 0x1111B, 12, true),
			program(k, mmsys.MsgFreeze, 0x1111B, 12, false),
			program(k, mmsys.MsgUnfreeze, 0x1111B, 12, false),
		)
	}
	descs = append(descs,
		program(mmsys.KindDigitalVideo, mmsys.MsgWindow, 0x722B, 12, false),
		program(mmsys.KindAnimation, mmsys.MsgWindow, 0x722B, 12, false),
		program(mmsys.KindOverlay, mmsys.MsgWindow, 0x726B, 14, false),
	)
	return descs
}
