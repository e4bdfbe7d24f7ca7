package mp4

import "errors"

// Box structure errors.
var (
	// ErrBoxSize indicates a box whose declared size is smaller than its
	// header or larger than its parent.
	ErrBoxSize = errors.New("mp4: invalid box size")

	// ErrBoxNotFound indicates a box path that does not exist.
	ErrBoxNotFound = errors.New("mp4: box not found")

	// ErrNoMovie indicates a file without a top-level moov box.
	ErrNoMovie = errors.New("mp4: moov box not found")

	// ErrNoMediaData indicates a file without a top-level mdat box.
	ErrNoMediaData = errors.New("mp4: mdat box not found")

	// ErrShortPayload indicates a box payload too short for its fields.
	ErrShortPayload = errors.New("mp4: box payload too short")
)

// Sample description errors.
var (
	// ErrTagMismatch indicates a sample entry whose high or low tag is
	// not "alac".
	ErrTagMismatch = errors.New("mp4: sample entry is not alac")

	// ErrCompatibleVersion indicates an ALACSpecificConfig whose
	// compatible version is not 0.
	ErrCompatibleVersion = errors.New("mp4: unsupported alac compatible version")

	// ErrNoTrack indicates a movie without an ALAC track.
	ErrNoTrack = errors.New("mp4: no alac track")
)

// ErrMediaHeaderVersion indicates an mdhd version other than 0 or 1.
var ErrMediaHeaderVersion = errors.New("mp4: invalid mdhd version")
