// Package rice decodes ALAC prediction residuals.
//
// Residuals are coded with an adaptive modified Rice code: the Rice
// parameter k is derived from a running "history" of recent residual
// magnitudes, long unary prefixes escape to a raw fixed-width value, and
// when history collapses a run of implicit zero residuals is coded as a
// single count.
package rice

import (
	"errors"
	"math/bits"

	alacbits "github.com/llehouerou/go-alac/internal/bits"
)

// ErrZeroRunOverflow indicates a zero run longer than the residuals left
// in the block.
var ErrZeroRunOverflow = errors.New("rice: zero run exceeds sample count")

// ErrParameter indicates a Rice parameter or sample width the reader
// cannot satisfy.
var ErrParameter = errors.New("rice: parameter out of range")

const (
	// MaxPrefix is the unary prefix length that escapes to a raw value.
	MaxPrefix = 9

	// HistoryLimit is the largest unsigned value that still feeds history;
	// larger values clamp history to this.
	HistoryLimit = 0xFFFF

	// ZeroRunThreshold is the history level below which a zero run follows.
	ZeroRunThreshold = 128

	// ZeroRunWidth is the escape width of a zero run count.
	ZeroRunWidth = 16

	historyQuantShift = 9
	maxCodeWidth      = 32
)

// Params are the per-stream history adaptation constants.
type Params struct {
	HistoryMultiplier uint32
	InitialHistory    uint32
	MaximumK          uint32
}

// State is the adaptive state of one residual block.
type State struct {
	History      uint64
	SignModifier uint32
}

// Reset seeds the state for a new block.
func (s *State) Reset(p Params) {
	s.History = uint64(p.InitialHistory)
	s.SignModifier = 0
}

// Observer, when non-nil, is called with the state after every decoded
// residual. It exists for diagnostics and tests.
type Observer func(index int, st State)

// Log2 returns floor(log2(v)), with Log2(0) == -1.
func Log2(v uint64) int {
	return bits.Len64(v) - 1
}

// K returns the Rice parameter for the given history.
func K(history uint64, maximumK uint32) uint {
	k := Log2(history>>historyQuantShift + 3)
	return uint(min(k, int(maximumK)))
}

// ZeroRunK returns the Rice parameter used for a zero run count.
func ZeroRunK(history uint64, maximumK uint32) uint {
	k := 7 - Log2(history) + int((history+16)>>6)
	return uint(max(min(k, int(maximumK)), 0))
}

// ReadCode reads one modified Rice coded unsigned value.
//
// A unary prefix of up to MaxPrefix 1 bits is read. Reaching the cap
// escapes to a raw sampleSize-bit value. Otherwise, for k > 0, a k-bit
// suffix s follows: s > 1 yields prefix*(2^k-1) + s-1; for s of 0 or 1 the
// last suffix bit is pushed back so only k-1 bits are consumed, and the
// value is prefix*(2^k-1).
func ReadCode(r *alacbits.Reader, k, sampleSize uint) uint32 {
	msb, ok := r.ReadUnary(MaxPrefix)
	if !ok {
		return r.GetBits(sampleSize)
	}
	if k == 0 {
		return uint32(msb)
	}

	suffix := r.GetBits(k)
	base := uint32(msb) * (1<<k - 1)
	switch suffix {
	case 0:
		r.Unread(0)
		return base
	case 1:
		r.Unread(1)
		return base
	default:
		return base + suffix - 1
	}
}

// Decode fills dst with len(dst) signed residuals.
//
// The history state is reset from p on entry and evolves only within the
// block. Zero runs count toward len(dst); a run that would overflow it is
// an error.
func Decode(r *alacbits.Reader, p Params, sampleSize uint, dst []int32) error {
	return DecodeObserved(r, p, sampleSize, dst, nil)
}

// DecodeObserved is Decode with an optional per-residual observer.
func DecodeObserved(r *alacbits.Reader, p Params, sampleSize uint, dst []int32, obs Observer) error {
	if sampleSize > maxCodeWidth {
		return ErrParameter
	}

	var st State
	st.Reset(p)
	count := len(dst)
	mult := uint64(p.HistoryMultiplier)

	for i := 0; i < count; {
		k := K(st.History, p.MaximumK)
		if k > maxCodeWidth {
			return ErrParameter
		}

		unsigned := uint64(ReadCode(r, k, sampleSize)) + uint64(st.SignModifier)
		st.SignModifier = 0

		if unsigned&1 == 1 {
			dst[i] = int32(-int64((unsigned + 1) / 2))
		} else {
			dst[i] = int32(unsigned / 2)
		}

		if unsigned <= HistoryLimit {
			st.History += unsigned*mult - (st.History*mult)>>historyQuantShift
		} else {
			st.History = HistoryLimit
		}

		if obs != nil {
			obs(i, st)
		}

		if st.History < ZeroRunThreshold && i+1 < count {
			zk := ZeroRunK(st.History, p.MaximumK)
			run := int(ReadCode(r, zk, ZeroRunWidth))
			if i+1+run > count {
				return ErrZeroRunOverflow
			}
			clear(dst[i+1 : i+1+run])
			i += run

			st.History = 0
			if run <= HistoryLimit {
				st.SignModifier = 1
			}
		}

		if err := r.Err(); err != nil {
			return err
		}
		i++
	}

	return r.Err()
}
