// Package predictor reconstructs ALAC samples from prediction residuals.
//
// ALAC uses a linear predictor whose coefficients are not fixed by the
// subframe header: after every predicted sample the coefficient table is
// nudged by the sign of the prediction error. The table passed in is
// therefore mutated and only meaningful for the subframe it came from.
package predictor

import "errors"

// MaxOrder is the largest predictor order a subframe header can carry.
const MaxOrder = 31

// ErrOrder indicates a predictor order the residual block cannot support.
var ErrOrder = errors.New("predictor: order exceeds sample count")

func sign(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Reconstruct converts residuals into samples, writing len(residuals)
// values to dst.
//
// The first order+1 samples are running sums of the residuals. After
// that each sample is predicted from the previous order samples relative
// to the sample order+1 back, rounded by shift, and coefs is adapted
// in place.
func Reconstruct(shift uint8, coefs []int32, residuals, dst []int32) error {
	order := len(coefs)
	n := len(residuals)
	if order > MaxOrder {
		return ErrOrder
	}
	if n == 0 {
		return nil
	}
	if order > 0 && n < order+1 {
		return ErrOrder
	}
	dst = dst[:n]

	dst[0] = residuals[0]
	warm := min(order+1, n)
	for i := 1; i < warm; i++ {
		dst[i] = dst[i-1] + residuals[i]
	}

	var half int64
	if shift > 0 {
		half = 1 << (shift - 1)
	}

	for i := warm; i < n; i++ {
		base := int64(dst[i-order-1])

		// coefs[0] weighs the most recent sample.
		var sum int64
		for j := range order {
			sum += int64(coefs[order-1-j]) * (int64(dst[i-order+j]) - base)
		}
		predicted := (sum + half) >> shift

		r := int64(residuals[i])
		dst[i] = int32(predicted + r + base)

		window := dst[i-order-1 : i]
		adapt(coefs, window, base, r, shift)
	}

	return nil
}

// adapt nudges coefs by the sign of the prediction error r, starting from
// the highest order and stopping once r has been used up.
//
// The positive branch runs while r > 0, the negative branch while r < 0.
func adapt(coefs []int32, window []int32, base, r int64, shift uint8) {
	order := len(coefs)
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
