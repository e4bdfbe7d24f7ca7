package alac

import (
	"errors"
	"fmt"
	"io"

	"github.com/llehouerou/go-alac/internal/bits"
	"github.com/llehouerou/go-alac/internal/frame"
	"github.com/llehouerou/go-alac/internal/mp4"
	"github.com/llehouerou/go-alac/internal/predictor"
	"github.com/llehouerou/go-alac/internal/rice"
)

// Error represents an ALAC decoder error code.
type Error int

// Error codes.
const (
	ErrNone               Error = 0
	ErrFormat             Error = 1
	ErrTruncatedStream    Error = 2
	ErrUnsupportedFeature Error = 3
	ErrIO                 Error = 4
	ErrClosed             Error = 5
	ErrNilReader          Error = 6
)

var errMessages = [7]string{
	"No error",
	"Malformed ALAC stream",
	"Stream ended before the frameset was complete",
	"Stream uses an unsupported feature",
	"I/O error",
	"Decoder is closed",
	"Nil reader",
}

// Error implements the error interface.
func (e Error) Error() string {
	if e >= 0 && int(e) < len(errMessages) {
		return errMessages[e]
	}
	return "unknown error"
}

// GetErrorMessage returns the message for an error code.
func GetErrorMessage(code Error) string {
	return code.Error()
}

// formatErrors are the internal failures that mean the data does not
// follow the format.
var formatErrors = []error{
	mp4.ErrBoxSize,
	mp4.ErrBoxNotFound,
	mp4.ErrNoMovie,
	mp4.ErrNoMediaData,
	mp4.ErrShortPayload,
	mp4.ErrTagMismatch,
	mp4.ErrNoTrack,
	mp4.ErrMediaHeaderVersion,
	rice.ErrZeroRunOverflow,
	rice.ErrParameter,
	predictor.ErrOrder,
	frame.ErrLSBWidth,
	frame.ErrSampleCount,
	frame.ErrPredictorOrder,
	frame.ErrSampleSize,
	frame.ErrFrameLength,
	frame.ErrTooManyChannels,
}

// unsupportedErrors are valid encodings this decoder does not implement.
var unsupportedErrors = []error{
	frame.ErrPredictionType,
	frame.ErrReservedBits,
	mp4.ErrCompatibleVersion,
}

// classify wraps err with the Error code of its category. Errors that
// already carry a code are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var code Error
	if errors.As(err, &code) {
		return err
	}

	switch {
	case errors.Is(err, bits.ErrTruncated), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		code = ErrTruncatedStream
	case isAny(err, unsupportedErrors):
		code = ErrUnsupportedFeature
	case isAny(err, formatErrors):
		code = ErrFormat
	default:
		code = ErrIO
	}
	return fmt.Errorf("%w: %w", code, err)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
