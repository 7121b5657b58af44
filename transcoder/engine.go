package transcoder

import (
	"encoding/binary"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
)

var le = binary.LittleEndian

// transform converts in, laid out for the inLegacy convention, into out,
// laid out for the other one. With rehome set, string fields are copied from
// src into dst and the copies recorded in allocs, and zeroed fields are
// cleared. Otherwise both are left in out as they are.
func transform(p Program, in []byte, inLegacy bool, out []byte,
	src, dst mciruntime.AddressSpace, rehome bool, allocs *AllocationList) error {
	var i, o uint32
	for _, f := range p.Fields {
		iw, ow := f.Width(inLegacy), f.Width(!inLegacy)
		if uint64(i)+uint64(iw) > uint64(len(in)) || uint64(o)+uint64(ow) > uint64(len(out)) {
			return errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
				Detail("%s field at offset %d overruns the block", f.Kind, i).
				Build()
		}
		switch f.Kind {
		case FieldCopy:
			copy(out[o:o+ow], in[i:i+iw])
		case FieldSigned:
			if inLegacy {
				le.PutUint32(out[o:], uint32(int32(int16(le.Uint16(in[i:])))))
			} else {
				le.PutUint16(out[o:], uint16(int16(int32(le.Uint32(in[i:])))))
			}
		case FieldUnsigned:
			if inLegacy {
				le.PutUint32(out[o:], uint32(le.Uint16(in[i:])))
			} else {
				le.PutUint16(out[o:], uint16(le.Uint32(in[i:])))
			}
		case FieldZero:
			if rehome {
				le.PutUint32(out[o:], 0)
			}
		case FieldString:
			if rehome {
				ptr, err := rehomeString(src, le.Uint32(in[i:]), dst, allocs)
				if err != nil {
					return err
				}
				le.PutUint32(out[o:], ptr)
			}
		}
		i += iw
		o += ow
	}
	return nil
}

// rehomeString copies the string at addr in src into dst. Null stays null.
func rehomeString(src mciruntime.Memory, addr uint32, dst mciruntime.AddressSpace, allocs *AllocationList) (uint32, error) {
	if addr == 0 {
		return 0, nil
	}
	s, err := memory.ReadCString(src, addr)
	if err != nil {
		return 0, err
	}
	ptr, err := memory.WriteCString(dst, s)
	if err != nil {
		return 0, err
	}
	allocs.Add(ptr, uint32(len(s))+1, 1)
	return ptr, nil
}

// readBlock copies n bytes at addr into a pooled buffer, so the result stays
// valid while either address space is written.
func readBlock(mem mciruntime.Memory, addr, n uint32) (*[]byte, error) {
	data, err := mem.Read(addr, n)
	if err != nil {
		return nil, err
	}
	buf := getBlock(n)
	copy(*buf, data)
	return buf, nil
}
