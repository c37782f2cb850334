// Package codegen implements the Code Emitter and CodeGen (spec §4.7): it
// walks Sema-IR and writes the little-endian opcode stream the game's
// virtual machine consumes, recording label/file references in a
// reloc.Table so they can be patched once every file's layout is known.
package codegen

import (
	"encoding/binary"
	"math"
)

// Datatype tag assignments (spec §6, fixed by the target VM).
const (
	tagI32   = 0x01
	tagVar   = 0x02
	tagLvar  = 0x03
	tagI8    = 0x04
	tagI16   = 0x05
	tagQ11_4 = 0x06
)

// TextLabelSize and StringSize are the fixed-width raw-byte encodings used
// for TEXT_LABEL and STRING arguments respectively. Unlike every other
// argument kind, these carry no datatype tag — they are written as a raw,
// zero-padded byte run whose width is fixed by the target engine.
const (
	TextLabelSize = 8
	StringSize    = 128
)

// Emitter owns the accumulating byte buffer and tracks the running offset
// used for relocation bookkeeping.
type Emitter struct {
	buf []byte
}

// NewEmitter constructs an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Offset returns the current write position (== len(Bytes())).
func (e *Emitter) Offset() int64 { return int64(len(e.buf)) }

// Bytes returns the accumulated buffer. Valid only after all writes;
// callers must not retain the slice across further Emit* calls, since
// append may reallocate.
func (e *Emitter) Bytes() []byte { return e.buf }

func (e *Emitter) writeByte(b byte) { e.buf = append(e.buf, b) }

func (e *Emitter) writeU16LE(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Emitter) writeU32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// EmitOpcode writes a command's 16-bit little-endian opcode, with the high
// bit set when notFlag is true (spec §4.7).
func (e *Emitter) EmitOpcode(id uint16, notFlag bool) {
	v := id
	if notFlag {
		v |= 0x8000
	}
	e.writeU16LE(v)
}

// EmitEOAL writes the null-byte terminator that closes a variadic
// argument list.
func (e *Emitter) EmitEOAL() {
	e.writeByte(0)
}

// EmitI8 writes datatype tag 04 plus a raw signed byte.
func (e *Emitter) EmitI8(v int8) int64 {
	e.writeByte(tagI8)
	payload := e.Offset()
	e.writeByte(byte(v))
	return payload
}

// EmitI16 writes datatype tag 05 plus a raw little-endian i16.
func (e *Emitter) EmitI16(v int16) int64 {
	e.writeByte(tagI16)
	payload := e.Offset()
	e.writeU16LE(uint16(v))
	return payload
}

// EmitI32 writes datatype tag 01 plus a raw little-endian i32. Returns the
// offset of the payload (after the tag byte), which is what fixups patch.
func (e *Emitter) EmitI32(v int32) int64 {
	e.writeByte(tagI32)
	payload := e.Offset()
	e.writeU32LE(uint32(v))
	return payload
}

// EmitInt writes v using the smallest of the three integer encodings that
// can represent it (spec §4.7: "smallest of 8/16/32-bit").
func (e *Emitter) EmitInt(v int32) int64 {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return e.EmitI8(int8(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return e.EmitI16(int16(v))
	default:
		return e.EmitI32(v)
	}
}

// clampQ11_4 clamps f to the representable Q11.4 range.
func clampQ11_4(f float64) float64 {
	const lo, hi = -2048.0, 2047.9375
	switch {
	case f < lo:
		return lo
	case f > hi:
		return hi
	default:
		return f
	}
}

// EmitQ11_4 writes datatype tag 06 plus f encoded as 16-bit Q11.4
// fixed-point, two's complement (spec §4.7). Values are clamped to the
// representable range and truncated toward zero at sub-resolution
// (rounding toward -infinity for positives, toward +infinity for
// negatives, which is the same operation).
func (e *Emitter) EmitQ11_4(f float64) int64 {
	f = clampQ11_4(f)
	fixed := int32(math.Trunc(f * 16))
	e.writeByte(tagQ11_4)
	payload := e.Offset()
	e.writeU16LE(uint16(int16(fixed)))
	return payload
}

// EmitVar writes datatype tag 02 plus a global variable's byte offset.
func (e *Emitter) EmitVar(byteOffset uint16) int64 {
	e.writeByte(tagVar)
	payload := e.Offset()
	e.writeU16LE(byteOffset)
	return payload
}

// EmitLvar writes datatype tag 03 plus a local variable's storage index.
func (e *Emitter) EmitLvar(index uint16) int64 {
	e.writeByte(tagLvar)
	payload := e.Offset()
	e.writeU16LE(index)
	return payload
}

// EmitRawBytes writes data verbatim, zero-padding (or truncating, should
// data somehow exceed padTo — the caller is expected to have already
// validated length) up to padTo total bytes. Used for TEXT_LABEL and
// STRING arguments, which carry no datatype tag (spec §4.7).
func (e *Emitter) EmitRawBytes(data []byte, padTo int) {
	n := len(data)
	if n > padTo {
		n = padTo
	}
	e.buf = append(e.buf, data[:n]...)
	for i := n; i < padTo; i++ {
		e.writeByte(0)
	}
}

// Patch overwrites the 4 bytes at offset with v, little-endian. Used to
// resolve label/filename fixups once relocation has run.
func (e *Emitter) Patch(offset int64, v int32) {
	binary.LittleEndian.PutUint32(e.buf[offset:offset+4], uint32(v))
}
