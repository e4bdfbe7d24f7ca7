// Package alactest builds ALAC bitstreams and M4A containers for tests.
//
// It contains a small reference encoder: it mirrors the decoder's residual
// coding and adaptive predictor in the forward direction so tests can
// start from PCM samples and check that decoding reproduces them exactly.
// It deliberately depends only on the bits package so that it can be
// imported by the tests of every decoding package.
package alactest

import (
	"fmt"
	mbits "math/bits"

	"github.com/llehouerou/go-alac/internal/bits"
)

const (
	maxPrefix        = 9
	historyLimit     = 0xFFFF
	zeroRunThreshold = 128
	zeroRunWidth     = 16
)

// ResidualParams are the history adaptation constants.
type ResidualParams struct {
	HistoryMultiplier uint32
	InitialHistory    uint32
	MaximumK          uint32
}

// DefaultResidualParams are the constants Apple's encoder writes.
var DefaultResidualParams = ResidualParams{HistoryMultiplier: 40, InitialHistory: 10, MaximumK: 14}

func log2(v uint64) int {
	return mbits.Len64(v) - 1
}

// WriteCode writes v as a modified Rice code with parameter k, escaping to
// a raw sampleSize-bit field when the unary prefix would reach 9.
func WriteCode(w *bits.Writer, v uint32, k, sampleSize uint) {
	var msb, rem uint32
	if k == 0 {
		msb = v
	} else {
		m := uint32(1)<<k - 1
		msb, rem = v/m, v%m
	}

	if msb >= maxPrefix {
		if sampleSize < 32 && uint64(v) >= 1<<sampleSize {
			panic(fmt.Sprintf("alactest: value %d does not fit escape width %d", v, sampleSize))
		}
		for range maxPrefix {
			w.Put1Bit(1)
		}
		w.PutBits(v, sampleSize)
		return
	}

	w.PutUnary(int(msb))
	if k == 0 {
		return
	}
	if rem == 0 {
		// The decoder reads k bits and pushes the last one back.
		w.PutBits(0, k-1)
		return
	}
	w.PutBits(rem+1, k)
}

// Unsigned maps a signed residual to the unsigned code value.
func Unsigned(r int32) uint64 {
	if r >= 0 {
		return uint64(r) * 2
	}
	return uint64(-int64(r))*2 - 1
}

// WriteResiduals writes residuals the way the decoder expects to read
// them, including zero runs and the sign-modifier correction.
func WriteResiduals(w *bits.Writer, p ResidualParams, sampleSize uint, residuals []int32) {
	history := uint64(p.InitialHistory)
	mult := uint64(p.HistoryMultiplier)
	var signModifier uint64

	for i := 0; i < len(residuals); i++ {
		k := uint(min(log2(history>>9+3), int(p.MaximumK)))
		u := Unsigned(residuals[i])
		if u < signModifier {
			panic(fmt.Sprintf("alactest: zero residual at %d directly after a capped zero run", i))
		}
		WriteCode(w, uint32(u-signModifier), k, sampleSize)
		signModifier = 0

		if u <= historyLimit {
			history += u*mult - (history*mult)>>9
		} else {
			history = historyLimit
		}

		if history < zeroRunThreshold && i+1 < len(residuals) {
			run := 0
			for i+1+run < len(residuals) && residuals[i+1+run] == 0 && run < historyLimit {
				run++
			}
			zk := max(min(7-log2(history)+int((history+16)>>6), int(p.MaximumK)), 0)
			WriteCode(w, uint32(run), uint(zk), zeroRunWidth)
			i += run
			history = 0
			signModifier = 1
		}
	}
}

func sign(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Predict runs the adaptive predictor forward and returns the residuals
// that reconstruct samples. coefs is adapted in place.
func Predict(shift uint8, coefs []int32, samples []int32) []int32 {
	order := len(coefs)
	res := make([]int32, len(samples))
	for i := range samples {
		if i <= order {
			prev := int64(0)
			if i > 0 {
				prev = int64(samples[i-1])
			}
			res[i] = int32(int64(samples[i]) - prev)
			continue
		}

		base := int64(samples[i-order-1])
		var sum int64
		for j := range order {
			sum += int64(coefs[order-1-j]) * (int64(samples[i-order+j]) - base)
		}
		if shift > 0 {
			sum = (sum + 1<<(shift-1)) >> shift
		}
		r := int64(samples[i]) - sum - base
		res[i] = int32(r)

		window := samples[i-order-1 : i]
		switch {
		case r > 0:
			for idx := order - 1; idx >= 0 && r > 0; idx-- {
				val := base - int64(window[order-idx])
				sg := sign(val)
				coefs[idx] -= int32(sg)
				r -= ((val * sg) >> shift) * int64(order-idx)
			}
		case r < 0:
			for idx := order - 1; idx >= 0 && r < 0; idx-- {
				val := base - int64(window[order-idx])
				sg := -sign(val)
				coefs[idx] -= int32(sg)
				r -= ((val * sg) >> shift) * int64(order-idx)
			}
		}
	}
	return res
}

// Correlate is the encoder side of stereo decorrelation: it turns a
// left/right pair into the two coded channels.
func Correlate(left, right []int32, shift, leftWeight uint8) ([]int32, []int32) {
	ch1 := make([]int32, len(left))
	ch2 := make([]int32, len(left))
	for i := range left {
		ch2[i] = left[i] - right[i]
		ch1[i] = right[i] + int32((int64(ch2[i])*int64(leftWeight))>>shift)
	}
	return ch1, ch2
}
