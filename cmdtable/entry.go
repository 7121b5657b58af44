package cmdtable

import "fmt"

// Kind is the opcode of a command table entry.
type Kind uint16

const (
	KindCommandHead    Kind = 0
	KindString         Kind = 1
	KindInteger        Kind = 2
	KindEndCommand     Kind = 3
	KindReturn         Kind = 4
	KindFlag           Kind = 5
	KindEndCommandList Kind = 6
	KindRect           Kind = 7
	KindConstant       Kind = 8
	KindEndConstant    Kind = 9
)

func (k Kind) String() string {
	switch k {
	case KindCommandHead:
		return "command_head"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindEndCommand:
		return "end_command"
	case KindReturn:
		return "return"
	case KindFlag:
		return "flag"
	case KindEndCommandList:
		return "end_command_list"
	case KindRect:
		return "rect"
	case KindConstant:
		return "constant"
	case KindEndConstant:
		return "end_constant"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

func (k Kind) valid() bool {
	return k <= KindEndConstant
}

// Entry is one decoded opcode entry.
//
// For a CommandHead, Flag is the message id. For an Integer inside a
// Constant group, Flag is the constant's value rather than a flag word.
type Entry struct {
	Name   string
	Flag   uint32
	Kind   Kind
	Offset int
}

// Slots returns how many data slots the entry occupies in a parameter block,
// independent of whether the entry is matched. inGroup reports whether the
// entry sits inside a Constant group.
func (e Entry) Slots(inGroup bool) int {
	switch e.Kind {
	case KindInteger:
		if inGroup {
			return 0
		}
		return 1
	case KindString, KindEndConstant:
		return 1
	case KindRect:
		return 4
	}
	return 0
}

// ReturnType is the value kind a verb hands back.
type ReturnType uint32

const (
	ReturnNone    ReturnType = 0
	ReturnString  ReturnType = ReturnType(KindString)
	ReturnInteger ReturnType = ReturnType(KindInteger)
	ReturnRect    ReturnType = ReturnType(KindRect)
)

func (r ReturnType) String() string {
	switch r {
	case ReturnNone:
		return "none"
	case ReturnString:
		return "string"
	case ReturnInteger:
		return "integer"
	case ReturnRect:
		return "rect"
	}
	return fmt.Sprintf("return(%d)", uint32(r))
}

func (r ReturnType) valid() bool {
	switch r {
	case ReturnNone, ReturnString, ReturnInteger, ReturnRect:
		return true
	}
	return false
}

// FirstSlot is the first data slot free for arguments. Slot 0 always holds
// the notification target; return values occupy the slots before FirstSlot.
func (r ReturnType) FirstSlot() int {
	switch r {
	case ReturnInteger:
		return 2
	case ReturnString:
		return 3
	case ReturnRect:
		return 5
	}
	return 1
}
