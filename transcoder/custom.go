package transcoder

import (
	"bytes"

	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
)

// Custom block layouts. Both conventions share offsets; the device id and
// device type fields keep a zero high half on the legacy side.
const (
	openBaseSize = 20 // callback, device id, type, element, alias
	infoSize     = 12 // callback, return buffer, buffer size
	sysInfoSize  = 20 // info fields, number, device type

	openDeviceID = 4
	openType     = 8
	openElement  = 12
	openAlias    = 16

	bufferAddr = 4
	bufferSize = 8

	sysInfoDeviceType = 16
)

// openExtension returns the size of the device-specific fields that follow
// the common open block.
func openExtension(kind mmsys.DeviceKind) uint32 {
	switch kind {
	case mmsys.KindWaveAudio:
		return 4 // buffer seconds
	case mmsys.KindDigitalVideo, mmsys.KindAnimation, mmsys.KindOverlay:
		return 8 // window style, parent window
	}
	return 0
}

func (g *Guard) custom(c Custom) error {
	switch c {
	case CustomOpen:
		return g.open()
	case CustomInfo:
		return g.buffer(infoSize)
	case CustomSysInfo:
		return g.buffer(sysInfoSize)
	}
	return nil
}

func (g *Guard) releaseCustom(c Custom, back uint32) error {
	switch c {
	case CustomOpen:
		return g.releaseOpen(back)
	case CustomInfo, CustomSysInfo:
		return g.releaseBuffer(back)
	}
	return nil
}

func (g *Guard) open() error {
	size := openBaseSize + openExtension(g.kind)
	blk, err := readBlock(g.src, g.srcAddr, size)
	if err != nil {
		return err
	}
	defer putBlock(blk)
	b := *blk

	if !g.srcLegacy {
		// 16-bit device id followed by a reserved word.
		le.PutUint32(b[openDeviceID:], uint32(uint16(le.Uint32(b[openDeviceID:]))))
	}

	strs := []struct {
		offset uint32
		set    bool
	}{
		{openType, g.flags&mmsys.OpenType != 0 && g.flags&mmsys.OpenTypeID == 0},
		{openElement, g.flags&mmsys.OpenElement != 0 && g.flags&mmsys.OpenElementID == 0},
		{openAlias, g.flags&mmsys.OpenAlias != 0},
	}
	for _, s := range strs {
		if !s.set {
			continue
		}
		ptr, err := rehomeString(g.src, le.Uint32(b[s.offset:]), g.dst, g.allocs)
		if err != nil {
			return err
		}
		le.PutUint32(b[s.offset:], ptr)
	}
	return g.place(b)
}

func (g *Guard) releaseOpen(back uint32) error {
	if g.srcLegacy {
		id, err := g.dst.ReadU32(g.handle + openDeviceID)
		if err != nil {
			return err
		}
		return g.src.WriteU16(back+openDeviceID, uint16(id))
	}
	id, err := g.dst.ReadU16(g.handle + openDeviceID)
	if err != nil {
		return err
	}
	return g.src.WriteU32(back+openDeviceID, uint32(id))
}

// buffer maps a block whose second field is a caller-owned return buffer. A
// buffer of the same size is allocated in the driver's space.
func (g *Guard) buffer(size uint32) error {
	blk, err := readBlock(g.src, g.srcAddr, size)
	if err != nil {
		return err
	}
	defer putBlock(blk)
	b := *blk

	if size > sysInfoDeviceType && !g.srcLegacy {
		le.PutUint32(b[sysInfoDeviceType:], uint32(uint16(le.Uint32(b[sysInfoDeviceType:]))))
	}

	addr, n := le.Uint32(b[bufferAddr:]), le.Uint32(b[bufferSize:])
	var buf uint32
	if addr != 0 && n != 0 {
		buf, err = g.allocs.Alloc(g.dst, n, 1)
		if err != nil {
			return err
		}
		if err := g.dst.WriteU8(buf, 0); err != nil {
			return err
		}
	}
	le.PutUint32(b[bufferAddr:], buf)
	g.retBuf, g.retSize = buf, n
	return g.place(b)
}

// releaseBuffer copies the driver's answer into the caller's buffer.
func (g *Guard) releaseBuffer(back uint32) error {
	if g.retBuf == 0 {
		return nil
	}
	addr, err := g.src.ReadU32(back + bufferAddr)
	if err != nil || addr == 0 {
		return err
	}
	data, err := g.dst.Read(g.retBuf, g.retSize)
	if err != nil {
		return err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	_, err = memory.PutBuffer(g.src, addr, g.retSize, string(data))
	return err
}
