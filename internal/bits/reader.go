// Package bits implements MSB-first bit-level reading and writing.
package bits

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated indicates the source ended before a requested bit count
// could be satisfied.
var ErrTruncated = errors.New("bits: truncated stream")

// DefaultBufferSize is the read-ahead size used when the source does not
// already implement io.ByteReader.
const DefaultBufferSize = 64 * 1024

// Reader reads bits from an underlying byte source, most significant bit first.
//
// Bits are pulled from the source one byte at a time and only when a read
// needs them, so the reader never blocks on bytes it does not consume.
// The cache holds right-aligned unconsumed bits; the next bit to be read is
// bit (cached-1).
//
// Errors are sticky: after the first failure every read returns zero and
// Err reports the failure. Callers check Err at natural checkpoints instead
// of after every field.
type Reader struct {
	src    io.ByteReader
	cache  uint64 // unconsumed bits, right-aligned
	cached uint   // number of valid bits in cache (0-64)
	pos    uint64 // total bits consumed
	err    error
}

// NewReader creates a Reader over src with the default buffer size.
func NewReader(src io.Reader) *Reader {
	return NewReaderSize(src, DefaultBufferSize)
}

// NewReaderSize creates a Reader over src. If src is not an io.ByteReader
// it is wrapped in a bufio.Reader of the given size.
func NewReaderSize(src io.Reader, size int) *Reader {
	r := &Reader{}
	r.reset(src, size)
	return r
}

// Reset discards all state and reads from src.
func (r *Reader) Reset(src io.Reader) {
	r.reset(src, DefaultBufferSize)
}

func (r *Reader) reset(src io.Reader, size int) {
	*r = Reader{}
	if src == nil {
		r.err = fmt.Errorf("%w: nil source", ErrTruncated)
		return
	}
	if br, ok := src.(io.ByteReader); ok {
		r.src = br
		return
	}
	if size <= 0 {
		size = DefaultBufferSize
	}
	r.src = bufio.NewReaderSize(src, size)
}

// Err returns the first error encountered, or nil.
// Exhaustion of the source is reported as an error wrapping ErrTruncated.
func (r *Reader) Err() error {
	return r.err
}

// BitPos returns the number of bits consumed so far.
func (r *Reader) BitPos() uint64 {
	return r.pos
}

// fill makes at least n bits (n <= 57) available in the cache.
func (r *Reader) fill(n uint) bool {
	for r.cached < n {
		if r.err != nil {
			return false
		}
		b, err := r.src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.err = fmt.Errorf("%w: need %d bits at bit %d", ErrTruncated, n-r.cached, r.pos)
			} else {
				r.err = err
			}
			return false
		}
		r.cache = r.cache<<8 | uint64(b)
		r.cached += 8
	}
	return true
}

// ShowBits returns the next n bits without consuming them.
// n must be 0-32.
func (r *Reader) ShowBits(n uint) uint32 {
	if n == 0 || !r.fill(n) {
		return 0
	}
	return uint32(r.cache >> (r.cached - n) & (1<<n - 1))
}

// FlushBits discards n bits from the stream.
func (r *Reader) FlushBits(n uint) {
	for n > 0 {
		step := min(n, 32)
		if !r.fill(step) {
			return
		}
		r.consume(step)
		n -= step
	}
}

func (r *Reader) consume(n uint) {
	r.cached -= n
	r.cache &= 1<<r.cached - 1
	r.pos += uint64(n)
}

// GetBits reads and returns n bits from the stream as an unsigned value.
// n must be 0-32.
func (r *Reader) GetBits(n uint) uint32 {
	if n == 0 {
		return 0
	}
	ret := r.ShowBits(n)
	if r.err != nil {
		return 0
	}
	r.consume(n)
	return ret
}

// GetSigned reads n bits as a two's complement signed value.
// n must be 1-32.
func (r *Reader) GetSigned(n uint) int32 {
	v := r.GetBits(n)
	if n == 0 || n >= 32 {
		return int32(v)
	}
	shift := 32 - n
	return int32(v<<shift) >> shift
}

// Get1Bit reads and returns a single bit from the stream.
func (r *Reader) Get1Bit() uint8 {
	return uint8(r.GetBits(1))
}

// ReadUnary counts 1 bits up to a terminating 0 bit, reading at most limit
// bits. If limit 1 bits are read without a terminator, it returns (limit, false).
func (r *Reader) ReadUnary(limit int) (int, bool) {
	for count := 0; count < limit; count++ {
		if r.Get1Bit() == 0 {
			if r.err != nil {
				return count, false
			}
			return count, true
		}
	}
	return limit, false
}

// Unread pushes a single bit with the given value back onto the stream.
// The next read returns it first. At most one bit may be pushed back
// between reads.
func (r *Reader) Unread(bit uint8) {
	if r.err != nil || r.pos == 0 {
		return
	}
	r.cache |= uint64(bit&1) << r.cached
	r.cached++
	r.pos--
}

// ByteAlign skips to the next byte boundary of the consumed bit count.
func (r *Reader) ByteAlign() {
	if rem := uint(r.pos % 8); rem != 0 {
		r.FlushBits(8 - rem)
	}
}
