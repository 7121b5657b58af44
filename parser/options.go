package parser

import (
	"strconv"
	"strings"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/transcoder"
)

// SlotCount is the number of 32-bit data slots in a parameter block.
const SlotCount = 16

// Options is a verb's parsed arguments: the data slots of its parameter
// block and the flags naming which of them are set.
type Options struct {
	Data  [SlotCount]uint32
	Flags uint32
}

// ParseOptions matches args against cmd's argument entries and fills a
// parameter block. String arguments are written into as and recorded in
// allocs; the caller frees them once the block is no longer used.
func ParseOptions(cmd *cmdtable.Command, args string, as mciruntime.AddressSpace, allocs *transcoder.AllocationList) (Options, error) {
	p := optionParser{cmd: cmd, as: as, allocs: allocs, path: []string{cmd.Name}}
	if err := p.parse(strings.TrimLeft(args, " ")); err != nil {
		return Options{}, err
	}
	return p.opts, nil
}

type optionParser struct {
	cmd    *cmdtable.Command
	as     mciruntime.AddressSpace
	allocs *transcoder.AllocationList
	path   []string
	opts   Options
}

func (p *optionParser) parse(args string) error {
	for args != "" {
		rest, err := p.next(args)
		if err != nil {
			return err
		}
		args = strings.TrimLeft(rest, " ")
	}
	return nil
}

// next consumes one argument from args. The argument run is rescanned from
// its first entry every time, so slot positions depend only on where an
// entry sits in the table.
func (p *optionParser) next(args string) (string, error) {
	var (
		offset  = p.cmd.Return.FirstSlot()
		inGroup bool
		group   uint32
	)

	for _, e := range p.cmd.Args {
		width := e.Slots(inGroup)
		if offset+width > SlotCount {
			return "", errors.ParserInternal(p.path, offset+width-1)
		}

		switch e.Kind {
		case cmdtable.KindConstant:
			inGroup, group = true, e.Flag
			if e.Name != "" && hasKeyword(args, e.Name) {
				// A group name on its own sets the group flag.
				p.opts.Flags |= group
				return args[len(e.Name):], nil
			}
			continue

		case cmdtable.KindEndConstant:
			if inGroup {
				tok, rest := splitWord(args)
				if v, ok := parseInt(tok); ok {
					p.opts.Data[offset] = v
					p.opts.Flags |= group
					return rest, nil
				}
			}
			inGroup, group = false, 0
			offset += width
			continue
		}

		if !(e.Kind == cmdtable.KindString && e.Name == "") && !hasKeyword(args, e.Name) {
			offset += width
			continue
		}
		rest := strings.TrimLeft(args[len(e.Name):], " ")

		switch e.Kind {
		case cmdtable.KindFlag:
			p.opts.Flags |= e.Flag
			return rest, nil

		case cmdtable.KindInteger:
			if inGroup {
				p.opts.Data[offset] |= e.Flag
				p.opts.Flags |= group
				return rest, nil
			}
			p.opts.Flags |= e.Flag
			tok, after := splitWord(rest)
			v, ok := parseInt(tok)
			if !ok {
				return "", errors.BadInteger(p.path, tok)
			}
			p.opts.Data[offset] = v
			return after, nil

		case cmdtable.KindRect:
			p.opts.Flags |= e.Flag
			for i := 0; i < 4; i++ {
				var tok string
				tok, rest = splitWord(rest)
				v, ok := parseInt(tok)
				if !ok {
					return "", errors.BadInteger(p.path, tok)
				}
				p.opts.Data[offset+i] = v
			}
			return rest, nil

		case cmdtable.KindString:
			p.opts.Flags |= e.Flag
			tok, after, err := nextToken(rest, p.path)
			if err != nil {
				return "", err
			}
			ptr, err := p.store(tok)
			if err != nil {
				return "", err
			}
			p.opts.Data[offset] = ptr
			return after, nil
		}
		offset += width
	}

	word, _ := splitWord(args)
	return "", errors.UnrecognizedCommand(p.path, word)
}

func (p *optionParser) store(s string) (uint32, error) {
	ptr, err := memory.WriteCString(p.as, s)
	if err != nil {
		return 0, err
	}
	p.allocs.Add(ptr, uint32(len(s))+1, 1)
	return ptr, nil
}

// parseInt reads a decimal integer with an optional minus sign, or a
// hexadecimal one with a 0x prefix. Negative values keep their two's
// complement bits.
func parseInt(tok string) (uint32, bool) {
	if tok == "" {
		return 0, false
	}
	if len(tok) > 2 && (tok[:2] == "0x" || tok[:2] == "0X") {
		v, err := strconv.ParseUint(tok[2:], 16, 32)
		return uint32(v), err == nil
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || v < -1<<31 || v > 1<<32-1 {
		return 0, false
	}
	return uint32(v), true
}
