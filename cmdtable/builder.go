package cmdtable

import (
	"github.com/wippyai/mci-runtime/cmdtable/internal/binary"
	"github.com/wippyai/mci-runtime/mmsys"
)

// Builder authors an encoded command table.
//
//	b := cmdtable.NewBuilder()
//	b.Command("play", mmsys.MsgPlay, cmdtable.ReturnNone).
//		Flag("notify", mmsys.FlagNotify).
//		Integer("from", mmsys.FlagFrom).
//		End()
//	data := b.Bytes()
//
// The builder does not validate; Decode does.
type Builder struct {
	w *binary.Writer
}

// NewBuilder creates an empty table builder.
func NewBuilder() *Builder {
	return &Builder{w: binary.NewWriter()}
}

// Entry appends a raw entry.
func (b *Builder) Entry(name string, flag uint32, kind Kind) *Builder {
	b.w.WriteCString(name)
	b.w.WriteU32LE(flag)
	b.w.WriteU16LE(uint16(kind))
	return b
}

// Command starts a verb run. A ReturnNone verb gets no return entry.
func (b *Builder) Command(name string, msg mmsys.Message, ret ReturnType) *CommandBuilder {
	b.Entry(name, uint32(msg), KindCommandHead)
	if ret != ReturnNone {
		b.Entry("", uint32(ret), KindReturn)
	}
	return &CommandBuilder{b: b}
}

// Bytes terminates the list and returns the encoded table. The builder must
// not be used afterwards.
func (b *Builder) Bytes() []byte {
	b.Entry("", 0, KindEndCommandList)
	return b.w.Bytes()
}

// CommandBuilder appends argument entries to one verb run.
type CommandBuilder struct {
	b *Builder
}

func (c *CommandBuilder) Flag(name string, flag uint32) *CommandBuilder {
	c.b.Entry(name, flag, KindFlag)
	return c
}

// Integer adds an integer keyword. Inside a constant group flag is the
// constant's value.
func (c *CommandBuilder) Integer(name string, flag uint32) *CommandBuilder {
	c.b.Entry(name, flag, KindInteger)
	return c
}

func (c *CommandBuilder) String(name string, flag uint32) *CommandBuilder {
	c.b.Entry(name, flag, KindString)
	return c
}

func (c *CommandBuilder) Rect(name string, flag uint32) *CommandBuilder {
	c.b.Entry(name, flag, KindRect)
	return c
}

// Constant opens a constant group. An empty name makes the group's values
// usable as bare keywords.
func (c *CommandBuilder) Constant(name string, flag uint32) *CommandBuilder {
	c.b.Entry(name, flag, KindConstant)
	return c
}

func (c *CommandBuilder) EndConstant() *CommandBuilder {
	c.b.Entry("", 0, KindEndConstant)
	return c
}

// Notify adds the notify and wait flags every verb accepts.
func (c *CommandBuilder) Notify() *CommandBuilder {
	return c.Flag("notify", mmsys.FlagNotify).Flag("wait", mmsys.FlagWait)
}

// End closes the verb run.
func (c *CommandBuilder) End() *Builder {
	c.b.Entry("", 0, KindEndCommand)
	return c.b
}
