package dispatch

import (
	"fmt"
	"strconv"

	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/mmsys"
)

// Reply is what a command returns besides its status.
type Reply struct {
	Data [16]uint32
	// Text is the string a string-returning verb wrote.
	Text   string
	Return cmdtable.ReturnType
	Raw    uint32
}

// FormatReturn renders a successful reply as text. Integer returns are
// read from slot 1 and interpreted by the result's return-encoding tag; rect
// returns come from slots 1 to 4. strs resolves driver resource strings and
// may be nil. When size is non-zero the text must fit a buffer of size bytes
// with its terminator; longer text is truncated and reported as a parameter
// overflow.
func FormatReturn(r Reply, strs driver.StringTable, size uint32) (string, error) {
	var out string
	switch r.Return {
	case cmdtable.ReturnNone:
		return "", nil
	case cmdtable.ReturnString:
		out = r.Text
	case cmdtable.ReturnRect:
		out = fmt.Sprintf("%d %d %d %d",
			int32(r.Data[1]), int32(r.Data[2]), int32(r.Data[3]), int32(r.Data[4]))
	default:
		out = formatInteger(r.Raw, r.Data[1], strs)
	}

	if size != 0 && uint32(len(out)) >= size {
		return out[:size-1], overflow(out, size)
	}
	return out, nil
}

func formatInteger(raw, v uint32, strs driver.StringTable) string {
	tag := mmsys.Tag(raw)
	switch {
	case tag&mmsys.ReturnResourceDriver != 0:
		if strs != nil {
			if s, ok := strs.String(resourceID(v)); ok {
				return s
			}
		}
		if s, ok := mmsys.CoreString(resourceID(v)); ok {
			return s
		}
	case tag&mmsys.ReturnResource != 0:
		if s, ok := mmsys.CoreString(resourceID(v)); ok {
			return s
		}
	case tag&mmsys.ReturnColonized3 != 0:
		return fmt.Sprintf("%02d:%02d:%02d", byte(v), byte(v>>8), byte(v>>16))
	case tag&mmsys.ReturnColonized4 != 0:
		return fmt.Sprintf("%02d:%02d:%02d:%02d", byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return strconv.FormatUint(uint64(v), 10)
}

// resourceID extracts the string id of a resource-returned value: the high
// word carries the id and the low word the plain value. A value with an
// empty high word is taken as the id itself.
func resourceID(v uint32) uint32 {
	if id := v >> 16; id != 0 {
		return id
	}
	return v
}

func overflow(text string, size uint32) error {
	return errors.New(errors.PhaseFormat, errors.KindParamOverflow).
		Value(len(text)).
		Detail("%d bytes do not fit a %d byte buffer", len(text), size).
		Build()
}
