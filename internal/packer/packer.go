// Package packer copies variable-length results into a caller-provided
// fixed-capacity buffer with exact-fit/overflow accounting.
package packer

import "errors"

// ErrOverflow is returned when an append does not fit in the remaining
// capacity. The write is rejected whole; nothing is partially copied.
var ErrOverflow = errors.New("packer: buffer overflow")

// Writer is a cursor over a fixed-capacity byte slice.
//
// Appends either fit completely or fail with ErrOverflow; bytes written by
// earlier appends stay valid either way. Filling the buffer to exactly zero
// remaining capacity is success, not overflow.
type Writer struct {
	buf []byte
	n   int
}

// NewWriter creates a writer over buf. The writer owns buf[0:cap] for the
// duration of the packing pass; len(buf) is the capacity.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Append copies p into the buffer, or returns ErrOverflow if p does not fit.
func (w *Writer) Append(p []byte) error {
	if len(p) > len(w.buf)-w.n {
		return ErrOverflow
	}
	copy(w.buf[w.n:], p)
	w.n += len(p)
	return nil
}

// AppendByte copies a single byte into the buffer.
func (w *Writer) AppendByte(b byte) error {
	if w.n == len(w.buf) {
		return ErrOverflow
	}
	w.buf[w.n] = b
	w.n++
	return nil
}

// AppendString copies s into the buffer, or returns ErrOverflow.
func (w *Writer) AppendString(s string) error {
	if len(s) > len(w.buf)-w.n {
		return ErrOverflow
	}
	copy(w.buf[w.n:], s)
	w.n += len(s)
	return nil
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.n }

// Remaining returns the capacity left.
func (w *Writer) Remaining() int { return len(w.buf) - w.n }

// Bytes returns the written prefix of the buffer.
func (w *Writer) Bytes() []byte { return w.buf[:w.n] }
