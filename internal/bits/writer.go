package bits

// Writer accumulates bits MSB-first into a byte slice.
// It is the mirror image of Reader and is used to build bitstreams for
// fixtures and round-trip checks.
type Writer struct {
	buf   []byte
	acc   uint64
	accN  uint
	total uint64
}

// PutBits writes the low n bits of v. n must be 0-32.
func (w *Writer) PutBits(v uint32, n uint) {
	if n == 0 {
		return
	}
	w.acc = w.acc<<n | uint64(v)&(1<<n-1)
	w.accN += n
	w.total += uint64(n)
	for w.accN >= 8 {
		w.accN -= 8
		w.buf = append(w.buf, byte(w.acc>>w.accN))
	}
	w.acc &= 1<<w.accN - 1
}

// PutSigned writes v as an n-bit two's complement value.
func (w *Writer) PutSigned(v int32, n uint) {
	w.PutBits(uint32(v), n)
}

// Put1Bit writes a single bit.
func (w *Writer) Put1Bit(b uint8) {
	w.PutBits(uint32(b&1), 1)
}

// PutUnary writes count 1 bits followed by a terminating 0 bit.
func (w *Writer) PutUnary(count int) {
	for range count {
		w.Put1Bit(1)
	}
	w.Put1Bit(0)
}

// ByteAlign pads with zero bits to the next byte boundary.
func (w *Writer) ByteAlign() {
	if w.accN > 0 {
		w.PutBits(0, 8-w.accN)
	}
}

// BitLen returns the number of bits written.
func (w *Writer) BitLen() uint64 {
	return w.total
}

// Bytes returns the written bytes, padding a trailing partial byte with zeros.
// The writer remains usable; the padding is not committed.
func (w *Writer) Bytes() []byte {
	out := make([]byte, len(w.buf), len(w.buf)+1)
	copy(out, w.buf)
	if w.accN > 0 {
		out = append(out, byte(w.acc<<(8-w.accN)))
	}
	return out
}
