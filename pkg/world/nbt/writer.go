// Package nbt writes the big-endian Named Binary Tag format used by region
// files.
package nbt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Tag types.
const (
	TagEnd byte = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

type frame struct {
	list      bool
	elem      byte
	remaining int32
}

// Writer streams tags to an io.Writer. The first error is kept and every
// later call becomes a no-op; check Err once at the end.
//
// Inside a list opened by BeginList tags are written as unnamed payloads
// and the name argument is ignored.
type Writer struct {
	w     io.Writer
	err   error
	stack []frame
	buf   [8]byte
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *Writer) u8(v byte) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

func (w *Writer) u16(v uint16) {
	binary.BigEndian.PutUint16(w.buf[:2], v)
	w.write(w.buf[:2])
}

func (w *Writer) u32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

func (w *Writer) u64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

func (w *Writer) str(s string) {
	if len(s) > math.MaxUint16 {
		w.fail(fmt.Errorf("nbt: string of %d bytes is too long", len(s)))
		return
	}
	w.u16(uint16(len(s)))
	w.write([]byte(s))
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// header writes the tag type and name, or checks the element type when the
// tag is a list element.
func (w *Writer) header(tag byte, name string) {
	if n := len(w.stack); n > 0 && w.stack[n-1].list {
		f := &w.stack[n-1]
		switch {
		case f.elem != tag:
			w.fail(fmt.Errorf("nbt: tag %d in list of %d", tag, f.elem))
		case f.remaining == 0:
			w.fail(fmt.Errorf("nbt: list overflows its length"))
		}
		f.remaining--
		return
	}
	w.u8(tag)
	w.str(name)
}

// WriteTagByte writes a TAG_Byte.
func (w *Writer) WriteTagByte(name string, v byte) {
	w.header(TagByte, name)
	w.u8(v)
}

// WriteShort writes a TAG_Short.
func (w *Writer) WriteShort(name string, v int16) {
	w.header(TagShort, name)
	w.u16(uint16(v))
}

// WriteInt writes a TAG_Int.
func (w *Writer) WriteInt(name string, v int32) {
	w.header(TagInt, name)
	w.u32(uint32(v))
}

// WriteLong writes a TAG_Long.
func (w *Writer) WriteLong(name string, v int64) {
	w.header(TagLong, name)
	w.u64(uint64(v))
}

// WriteFloat writes a TAG_Float.
func (w *Writer) WriteFloat(name string, v float32) {
	w.header(TagFloat, name)
	w.u32(math.Float32bits(v))
}

// WriteDouble writes a TAG_Double.
func (w *Writer) WriteDouble(name string, v float64) {
	w.header(TagDouble, name)
	w.u64(math.Float64bits(v))
}

// WriteString writes a TAG_String.
func (w *Writer) WriteString(name, v string) {
	w.header(TagString, name)
	w.str(v)
}

// WriteByteArray writes a TAG_Byte_Array.
func (w *Writer) WriteByteArray(name string, v []byte) {
	w.header(TagByteArray, name)
	w.u32(uint32(len(v)))
	w.write(v)
}

// WriteIntArray writes a TAG_Int_Array.
func (w *Writer) WriteIntArray(name string, v []int32) {
	w.header(TagIntArray, name)
	w.u32(uint32(len(v)))
	for _, x := range v {
		w.u32(uint32(x))
	}
}

// WriteLongArray writes a TAG_Long_Array.
func (w *Writer) WriteLongArray(name string, v []int64) {
	w.header(TagLongArray, name)
	w.u32(uint32(len(v)))
	for _, x := range v {
		w.u64(uint64(x))
	}
}

// BeginCompound opens a TAG_Compound; close it with EndCompound.
func (w *Writer) BeginCompound(name string) {
	w.header(TagCompound, name)
	w.stack = append(w.stack, frame{})
}

// EndCompound writes TAG_End and closes the innermost compound.
func (w *Writer) EndCompound() {
	w.u8(TagEnd)
	w.pop(false)
}

// BeginList opens a TAG_List of n elements of type elem. Write the n
// elements, then close it with EndList.
func (w *Writer) BeginList(name string, elem byte, n int32) {
	w.header(TagList, name)
	if n == 0 {
		elem = TagEnd
	}
	w.u8(elem)
	w.u32(uint32(n))
	w.stack = append(w.stack, frame{list: true, elem: elem, remaining: n})
}

// EndList closes the innermost list. It fails if elements are missing.
func (w *Writer) EndList() {
	if n := len(w.stack); n > 0 && w.stack[n-1].list && w.stack[n-1].remaining != 0 {
		w.fail(fmt.Errorf("nbt: list closed with %d elements missing", w.stack[n-1].remaining))
	}
	w.pop(true)
}

func (w *Writer) pop(list bool) {
	n := len(w.stack)
	if n == 0 || w.stack[n-1].list != list {
		w.fail(fmt.Errorf("nbt: unbalanced end of container"))
		return
	}
	w.stack = w.stack[:n-1]
}
