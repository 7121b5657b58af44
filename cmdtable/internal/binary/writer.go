package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer provides buffered writing utilities for command-table encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteCString writes s followed by a NUL terminator.
func (w *Writer) WriteCString(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// WriteU32LE writes a little-endian uint32.
func (w *Writer) WriteU32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteU16LE writes a little-endian uint16.
func (w *Writer) WriteU16LE(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}
