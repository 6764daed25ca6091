package bthome

import "fmt"

// Writer appends bytes to a fixed-capacity buffer.
//
// Every write checks the remaining capacity first and fails with
// ErrPayloadTooLarge without writing anything when it would not fit, so a
// failed write never leaves a partial record behind.
type Writer struct {
	buf []byte
	cap int
}

// NewWriter returns a Writer that accepts at most capacity bytes.
func NewWriter(capacity int) *Writer {
	return &Writer{
		buf: make([]byte, 0, capacity),
		cap: capacity,
	}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Remaining returns the number of bytes that can still be written.
func (w *Writer) Remaining() int { return w.cap - len(w.buf) }

// Bytes returns a copy of the written bytes.
func (w *Writer) Bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	if err := w.ensure(1); err != nil {
		return err
	}
	w.buf = append(w.buf, b)
	return nil
}

// Write appends p in full or not at all.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.ensure(len(p)); err != nil {
		return 0, err
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// WriteUintLE appends the low size bytes of v, least significant first.
// Negative raw values are written in two's complement.
func (w *Writer) WriteUintLE(v uint32, size int) error {
	if size < 1 || size > 4 { //nolint:mnd // BTHome values are 1 to 4 bytes
		return fmt.Errorf("bthome: invalid value size %d", size)
	}
	if err := w.ensure(size); err != nil {
		return err
	}
	for i := 0; i < size; i++ {
		w.buf = append(w.buf, byte(v>>(8*i))) //nolint:mnd // byte shift
	}
	return nil
}

func (w *Writer) ensure(n int) error {
	if n > w.Remaining() {
		return fmt.Errorf("%w: need %d bytes, %d left of %d", ErrPayloadTooLarge, n, w.Remaining(), w.cap)
	}
	return nil
}
