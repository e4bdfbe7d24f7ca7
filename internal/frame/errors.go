package frame

import "errors"

// Frame header errors.
var (
	// ErrReservedBits indicates non-zero bits in the 12-bit reserved header
	// field while strict checking is enabled.
	ErrReservedBits = errors.New("frame: reserved header bits are not zero")

	// ErrLSBWidth indicates an uncompressed LSB width of 3 bytes.
	ErrLSBWidth = errors.New("frame: uncompressed LSB width out of range")

	// ErrSampleCount indicates an explicit sample count larger than the
	// stream's samples per frame.
	ErrSampleCount = errors.New("frame: sample count exceeds samples per frame")
)

// Subframe errors.
var (
	// ErrPredictionType indicates a prediction type other than 0
	// (linear prediction).
	ErrPredictionType = errors.New("frame: unsupported prediction type")

	// ErrPredictorOrder indicates a predictor order the sample count
	// cannot support.
	ErrPredictorOrder = errors.New("frame: predictor order exceeds sample count")

	// ErrSampleSize indicates a residual sample size outside 0-32 bits.
	ErrSampleSize = errors.New("frame: residual sample size out of range")
)

// Frameset errors.
var (
	// ErrFrameLength indicates frames of one frameset with differing
	// sample counts.
	ErrFrameLength = errors.New("frame: frames in frameset differ in length")

	// ErrTooManyChannels indicates a frameset carrying more channels than
	// the decoder accepts.
	ErrTooManyChannels = errors.New("frame: too many channels in frameset")
)
