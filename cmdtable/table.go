package cmdtable

import (
	"github.com/wippyai/mci-runtime/cmdtable/internal/binary"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/mmsys"
)

// Command is one verb's run of entries, from its CommandHead up to but not
// including its EndCommand.
type Command struct {
	Name    string
	Message mmsys.Message
	Return  ReturnType
	// Args holds the argument entries in table order, Constant and
	// EndConstant markers included.
	Args []Entry
}

// Table is a decoded, validated, immutable command table.
type Table struct {
	deviceType string
	entries    []Entry
	commands   []*Command
	verbs      map[string]*Command
	size       int
}

// DeviceType returns the device type the table was loaded for.
func (t *Table) DeviceType() string {
	return t.deviceType
}

// FindVerb looks up a verb by exact, case-preserving name. Only CommandHead
// names are indexed; argument keywords never match.
func (t *Table) FindVerb(name string) (*Command, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t.verbs[name]
	return c, ok
}

// Commands returns the table's verbs in table order.
func (t *Table) Commands() []*Command {
	out := make([]*Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// Entries returns a copy of every decoded entry, terminators included.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Size returns the encoded length of the table in bytes.
func (t *Table) Size() int {
	return t.size
}

// Decode parses and validates an encoded command table.
func Decode(deviceType string, data []byte) (*Table, error) {
	r := binary.NewReader(data)
	t := &Table{
		deviceType: deviceType,
		verbs:      make(map[string]*Command),
		size:       len(data),
	}

	var (
		cur     *Command
		inGroup bool
		prev    Kind = KindEndCommand
	)

	for {
		offset := r.Position()
		name, err := r.ReadCString()
		if err != nil {
			return nil, tableError(deviceType, offset, "truncated entry name", err)
		}
		flag, err := r.ReadU32LE()
		if err != nil {
			return nil, tableError(deviceType, offset, "truncated flag word", err)
		}
		raw, err := r.ReadU16LE()
		if err != nil {
			return nil, tableError(deviceType, offset, "truncated kind", err)
		}
		kind := Kind(raw)
		if !kind.valid() {
			return nil, errors.InvalidTable(deviceType, offset, "unknown entry kind "+kind.String())
		}
		e := Entry{Name: name, Flag: flag, Kind: kind, Offset: offset}
		t.entries = append(t.entries, e)

		invalid := func(detail string) error {
			return errors.InvalidTable(deviceType, offset, detail)
		}

		switch kind {
		case KindCommandHead:
			if cur != nil {
				return nil, invalid("command " + cur.Name + " is missing its end_command")
			}
			if name == "" {
				return nil, invalid("command head has no name")
			}
			if flag == 0 {
				return nil, invalid("command head " + name + " has no message id")
			}
			cur = &Command{Name: name, Message: mmsys.Message(flag)}

		case KindReturn:
			if prev != KindCommandHead {
				return nil, invalid("return entry must directly follow a command head")
			}
			rt := ReturnType(flag)
			if !rt.valid() {
				return nil, invalid("unknown return type " + rt.String())
			}
			cur.Return = rt

		case KindString, KindInteger, KindFlag, KindRect:
			if cur == nil {
				return nil, invalid(kind.String() + " entry outside a command")
			}
			if kind == KindString && inGroup {
				return nil, invalid("string entry inside a constant group")
			}
			cur.Args = append(cur.Args, e)

		case KindConstant:
			if cur == nil {
				return nil, invalid("constant entry outside a command")
			}
			if inGroup {
				return nil, invalid("nested constant group")
			}
			inGroup = true
			cur.Args = append(cur.Args, e)

		case KindEndConstant:
			if !inGroup {
				return nil, invalid("end_constant without constant")
			}
			inGroup = false
			cur.Args = append(cur.Args, e)

		case KindEndCommand:
			if name != "" {
				return nil, invalid("end_command entry has a name")
			}
			if cur == nil {
				return nil, invalid("end_command outside a command")
			}
			if inGroup {
				return nil, invalid("constant group open at end_command")
			}
			t.commands = append(t.commands, cur)
			if _, dup := t.verbs[cur.Name]; !dup {
				t.verbs[cur.Name] = cur
			}
			cur = nil

		case KindEndCommandList:
			if name != "" {
				return nil, invalid("end_command_list entry has a name")
			}
			if cur != nil {
				return nil, invalid("command " + cur.Name + " is missing its end_command")
			}
			if r.Len() != 0 {
				return nil, invalid("trailing data after end_command_list")
			}
			return t, nil
		}
		prev = kind
	}
}

func tableError(deviceType string, offset int, detail string, cause error) error {
	e := errors.InvalidTable(deviceType, offset, detail)
	e.Cause = cause
	return e
}
