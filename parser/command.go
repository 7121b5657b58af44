package parser

import (
	"context"
	"strings"

	"go.uber.org/zap"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/registry"
	"github.com/wippyai/mci-runtime/transcoder"
)

// Verbs the parser resolves without an open session, or by opening one.
const (
	verbOpen    = "open"
	verbSysInfo = "sysinfo"
)

// Fixed slots of the open and sysinfo blocks.
const (
	openTypeSlot      = 2
	openElementSlot   = 3
	openAliasSlot     = 4
	sysInfoDeviceSlot = 4
)

// DefaultReturnSize is the return buffer size used when Parse is given none.
const DefaultReturnSize = 128

// Sessions is the part of the registry the parser needs.
type Sessions interface {
	Open(ctx context.Context, req registry.OpenRequest) (*registry.Session, error)
	Unwind(ctx context.Context, id mmsys.DeviceID) error
	FindByName(name string) (*registry.Session, error)
}

// Catalog answers which device types are installed and which type a file
// extension belongs to.
type Catalog interface {
	IsInstalled(deviceType string) bool
	DeviceTypeFor(path string) (string, bool)
}

// Config wires a Parser to its collaborators.
type Config struct {
	Tables   *cmdtable.Store
	Sessions Sessions
	Catalog  Catalog
}

// Parser turns command strings into invocations.
type Parser struct {
	tables   *cmdtable.Store
	sessions Sessions
	catalog  Catalog
}

// New creates a parser. A nil Tables uses the built-in tables.
func New(cfg Config) *Parser {
	tables := cfg.Tables
	if tables == nil {
		tables = cmdtable.NewStore(nil)
	}
	return &Parser{
		tables:   tables,
		sessions: cfg.Sessions,
		catalog:  cfg.Catalog,
	}
}

// Invocation is a parsed command ready to dispatch.
type Invocation struct {
	// Session is the target session; nil for the all-devices id and for
	// sysinfo.
	Session *registry.Session
	Command *cmdtable.Command
	// DeviceType names the type a sysinfo query is about.
	DeviceType string
	allocs     *transcoder.AllocationList
	Options
	Device mmsys.DeviceID
	// ReturnBuffer is the string return buffer, when the verb returns a
	// string. ReturnSize bounds the textual result of every verb.
	ReturnBuffer uint32
	ReturnSize   uint32
	// Opened is set when parsing opened Session. The session is not yet
	// confirmed: the dispatcher completes or unwinds it.
	Opened bool
}

// Message returns the invocation's message id.
func (inv *Invocation) Message() mmsys.Message {
	return inv.Command.Message
}

// Release frees the strings and return buffer written while parsing.
func (inv *Invocation) Release(as mciruntime.AddressSpace) {
	if inv.allocs == nil {
		return
	}
	inv.allocs.FreeAndRelease(as)
	inv.allocs = nil
}

// Parse parses line into an invocation whose parameter block lives in as.
// For open it creates the session through the registry before the verb is
// looked up; if a later step fails that session is unwound. retSize sizes
// the string return buffer, zero meaning DefaultReturnSize.
func (p *Parser) Parse(ctx context.Context, line string, as mciruntime.AddressSpace, retSize uint32) (*Invocation, error) {
	verb, rest := splitWord(line)
	if verb == "" {
		return nil, errors.New(errors.PhaseParse, errors.KindMissingParameter).
			Code(errors.CodeMissingCommandString).
			Detail("empty command").
			Build()
	}
	path := []string{verb}

	device, args, err := nextToken(rest, path)
	if err != nil {
		return nil, err
	}
	if device == "" || strings.EqualFold(device, "new") {
		return nil, errors.New(errors.PhaseParse, errors.KindMissingDeviceName).
			Path(path...).
			Detail("command needs a device name").
			Build()
	}

	inv := &Invocation{allocs: transcoder.NewAllocationList()}
	var open *openTarget

	switch {
	case verb == verbSysInfo:
		inv.DeviceType = strings.ToLower(device)
		if inv.DeviceType == "all" {
			inv.Device = mmsys.AllDevices
			inv.DeviceType = ""
		}
	case verb == verbOpen && strings.EqualFold(device, "all"):
		inv.Release(as)
		return nil, errors.CannotUseAll(verb)
	case verb == verbOpen:
		open, err = p.openTarget(device, args, path)
		if err != nil {
			inv.Release(as)
			return nil, err
		}
		s, err := p.sessions.Open(ctx, registry.OpenRequest{
			DeviceType: open.deviceType,
			Alias:      open.alias,
			Element:    open.element,
		})
		if err != nil {
			inv.Release(as)
			return nil, err
		}
		inv.Session, inv.Device, inv.Opened = s, s.ID, true
	case strings.EqualFold(device, "all"):
		inv.Device = mmsys.AllDevices
	default:
		s, err := p.sessions.FindByName(device)
		if err != nil {
			inv.Release(as)
			return nil, err
		}
		inv.Session, inv.Device = s, s.ID
	}

	if err := p.build(inv, verb, args, open, as, retSize); err != nil {
		inv.Release(as)
		if inv.Opened {
			if uerr := p.sessions.Unwind(ctx, inv.Device); uerr != nil {
				Logger().Warn("unwind after failed open",
					zap.Uint32("device", uint32(inv.Device)),
					zap.Error(uerr))
			}
		}
		return nil, err
	}

	Logger().Debug("command parsed",
		zap.String("verb", verb),
		zap.Uint32("device", uint32(inv.Device)),
		zap.Stringer("message", inv.Message()),
		zap.Uint32("flags", inv.Flags))
	return inv, nil
}

func (p *Parser) build(inv *Invocation, verb, args string, open *openTarget, as mciruntime.AddressSpace, retSize uint32) error {
	cmd, err := p.lookup(inv, verb)
	if err != nil {
		return err
	}
	inv.Command = cmd

	opts, err := ParseOptions(cmd, args, as, inv.allocs)
	if err != nil {
		return err
	}
	inv.Options = opts

	if retSize == 0 {
		retSize = DefaultReturnSize
	}
	inv.ReturnSize = retSize
	if cmd.Return == cmdtable.ReturnString {
		buf, err := inv.allocs.Alloc(as, retSize, 1)
		if err != nil {
			return err
		}
		if err := as.WriteU8(buf, 0); err != nil {
			return err
		}
		inv.ReturnBuffer = buf
		inv.Data[1], inv.Data[2] = buf, retSize
	}

	switch {
	case open != nil:
		return p.fillOpen(inv, open, as)
	case verb == verbSysInfo && inv.DeviceType != "":
		if id, ok := mmsys.DeviceTypeID(inv.DeviceType); ok {
			inv.Data[sysInfoDeviceSlot] = id
		}
	}
	return nil
}

// lookup finds verb in the session's own table, then its device type's
// table, then the core table.
func (p *Parser) lookup(inv *Invocation, verb string) (*cmdtable.Command, error) {
	if s := inv.Session; s != nil {
		if cmd, ok := s.Table.FindVerb(verb); ok {
			return cmd, nil
		}
		t, err := p.tables.Lookup(s.DeviceType)
		if err != nil {
			return nil, err
		}
		if cmd, ok := t.FindVerb(verb); ok {
			return cmd, nil
		}
	}
	core, err := p.tables.Core()
	if err != nil {
		return nil, err
	}
	if cmd, ok := core.FindVerb(verb); ok {
		return cmd, nil
	}
	return nil, errors.UnrecognizedCommand(nil, verb)
}

type openTarget struct {
	deviceType string
	element    string
	alias      string
	// typeFromArgs is set when the type came from a type keyword, which
	// the option parser already stores.
	typeFromArgs bool
}

// openTarget works out what an open command names. The device token is
// type!element, an installed device type, or an element; a type keyword in
// args is used only when the token gives no type, and the element's
// extension is the last resort.
func (p *Parser) openTarget(device, args string, path []string) (*openTarget, error) {
	t := &openTarget{}
	if i := strings.IndexByte(device, '!'); i >= 0 {
		t.deviceType, t.element = device[:i], device[i+1:]
	} else if p.catalog != nil && p.catalog.IsInstalled(device) {
		t.deviceType = device
	} else {
		t.element = device
	}

	kw, err := scanKeywords(args, path, "type", "alias")
	if err != nil {
		return nil, err
	}
	t.alias = kw["alias"]
	if t.deviceType == "" && kw["type"] != "" {
		t.deviceType, t.typeFromArgs = kw["type"], true
	}

	if t.deviceType == "" {
		if p.catalog != nil {
			if dt, ok := p.catalog.DeviceTypeFor(t.element); ok {
				t.deviceType = dt
			}
		}
		if t.deviceType == "" {
			return nil, errors.ExtensionNotFound(t.element)
		}
	}
	t.deviceType = strings.ToLower(t.deviceType)
	return t, nil
}

// fillOpen stores the type and element the device token named, unless the
// arguments already set them. The type keyword loses to type!element.
func (p *Parser) fillOpen(inv *Invocation, t *openTarget, as mciruntime.AddressSpace) error {
	if !t.typeFromArgs {
		ptr, err := p.storeString(inv, as, t.deviceType)
		if err != nil {
			return err
		}
		inv.Data[openTypeSlot] = ptr
		inv.Flags |= mmsys.OpenType
	}
	if t.element != "" && inv.Flags&mmsys.OpenElement == 0 {
		ptr, err := p.storeString(inv, as, t.element)
		if err != nil {
			return err
		}
		inv.Data[openElementSlot] = ptr
		inv.Flags |= mmsys.OpenElement
	}
	if t.alias != "" && inv.Flags&mmsys.OpenAlias == 0 {
		ptr, err := p.storeString(inv, as, t.alias)
		if err != nil {
			return err
		}
		inv.Data[openAliasSlot] = ptr
		inv.Flags |= mmsys.OpenAlias
	}
	return nil
}

func (p *Parser) storeString(inv *Invocation, as mciruntime.AddressSpace, s string) (uint32, error) {
	op := optionParser{as: as, allocs: inv.allocs}
	return op.store(s)
}

// scanKeywords finds the values following the given keywords in args.
// Matching is on whole tokens, ignoring case; values follow the quoting
// rules of any other token.
func scanKeywords(args string, path []string, keywords ...string) (map[string]string, error) {
	out := make(map[string]string, len(keywords))
	for args != "" {
		tok, rest, err := nextToken(args, path)
		if err != nil {
			return nil, err
		}
		args = rest
		for _, kw := range keywords {
			if !strings.EqualFold(tok, kw) {
				continue
			}
			val, after, err := nextToken(args, path)
			if err != nil {
				return nil, err
			}
			if _, seen := out[kw]; !seen {
				out[kw] = val
			}
			args = after
			break
		}
	}
	return out, nil
}
