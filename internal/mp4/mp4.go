// Package mp4 reads the parts of an MPEG-4 audio file an ALAC decoder
// needs: the alac sample description, the media duration and the location
// of the media data.
//
// Only the top level of the file is read from the stream. The moov box is
// loaded into memory and every nested lookup works on sub-slices of it.
package mp4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"strings"
)

const (
	headerLen      = 8
	largeHeaderLen = 16

	// MaxMovieSize bounds the moov box loaded into memory.
	MaxMovieSize = 64 << 20
)

// Header is a box header read from a stream.
type Header struct {
	Type string

	// Size is the total box size, header included. Zero means the box
	// extends to the end of the file.
	Size uint64

	// Len is the header length: 8, or 16 with a 64-bit largesize.
	Len int
}

// ReadHeader reads one box header. It returns io.EOF only when r is
// exhausted before the first header byte.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [largeHeaderLen]byte
	if _, err := io.ReadFull(r, buf[:headerLen]); err != nil {
		return Header{}, err
	}
	h := Header{
		Type: string(buf[4:8]),
		Size: uint64(binary.BigEndian.Uint32(buf[:4])),
		Len:  headerLen,
	}
	if h.Size == 1 {
		if _, err := io.ReadFull(r, buf[headerLen:]); err != nil {
			return h, unexpected(err)
		}
		h.Size = binary.BigEndian.Uint64(buf[headerLen:])
		h.Len = largeHeaderLen
	}
	if h.Size != 0 && (h.Size < uint64(h.Len) || h.Size > math.MaxInt64) {
		return h, fmt.Errorf("%w: %q declares %d bytes", ErrBoxSize, h.Type, h.Size)
	}
	return h, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// File locates the boxes of a file the decoder reads.
type File struct {
	// Movie is the moov payload.
	Movie []byte

	// DataOffset is the absolute offset of the first mdat payload byte and
	// DataSize the payload length.
	DataOffset int64
	DataSize   int64
}

// Scan walks the top-level boxes of rs, skipping each by its declared
// size, until both moov and mdat have been seen. The moov payload is
// loaded into memory. Scan leaves rs at an unspecified position.
func Scan(rs io.ReadSeeker) (*File, error) {
	f := &File{DataOffset: -1}
	off, err := rs.Seek(0, io.SeekStart)
	if err != nil {
		return nil, err
	}

	for f.Movie == nil || f.DataOffset < 0 {
		h, err := ReadHeader(rs)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		payload := off + int64(h.Len)
		end := off + int64(h.Size)
		if h.Size == 0 {
			if end, err = rs.Seek(0, io.SeekEnd); err != nil {
				return nil, err
			}
		}

		switch h.Type {
		case "moov":
			if end-payload > MaxMovieSize {
				return nil, fmt.Errorf("%w: moov of %d bytes", ErrBoxSize, end-payload)
			}
			if _, err := rs.Seek(payload, io.SeekStart); err != nil {
				return nil, err
			}
			f.Movie = make([]byte, end-payload)
			if _, err := io.ReadFull(rs, f.Movie); err != nil {
				return nil, unexpected(err)
			}
		case "mdat":
			f.DataOffset = payload
			f.DataSize = end - payload
		}

		if h.Size == 0 {
			break
		}
		if off, err = rs.Seek(end, io.SeekStart); err != nil {
			return nil, err
		}
	}

	if f.Movie == nil {
		return nil, ErrNoMovie
	}
	if f.DataOffset < 0 {
		return nil, ErrNoMediaData
	}
	return f, nil
}

// Box is a box inside an in-memory buffer.
type Box struct {
	Type    string
	Payload []byte
}

// Walk calls fn for each box in data, in order, until fn returns false.
// A trailing run shorter than a box header is treated as padding.
func Walk(data []byte, fn func(Box) bool) error {
	for len(data) >= headerLen {
		size := uint64(binary.BigEndian.Uint32(data))
		typ := string(data[4:8])
		hl := headerLen
		switch size {
		case 0:
			size = uint64(len(data))
		case 1:
			if len(data) < largeHeaderLen {
				return fmt.Errorf("%w: truncated largesize for %q", ErrBoxSize, typ)
			}
			size = binary.BigEndian.Uint64(data[headerLen:])
			hl = largeHeaderLen
		}
		if size < uint64(hl) || size > uint64(len(data)) {
			return fmt.Errorf("%w: %q declares %d of %d bytes", ErrBoxSize, typ, size, len(data))
		}
		if !fn(Box{Type: typ, Payload: data[hl:size]}) {
			return nil
		}
		data = data[size:]
	}
	return nil
}

// Find descends through data one box type per path element and returns
// the payload of the first box matching the full path.
func Find(data []byte, path ...string) ([]byte, error) {
	cur := data
	for depth, typ := range path {
		var next []byte
		found := false
		err := Walk(cur, func(b Box) bool {
			if b.Type == typ {
				next, found = b.Payload, true
			}
			return !found
		})
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrBoxNotFound, strings.Join(path[:depth+1], "/"))
		}
		cur = next
	}
	return cur, nil
}

// ConfigLen is the size of an ALACSpecificConfig.
const ConfigLen = 24

// Config is the ALACSpecificConfig, the decoder's parameter block.
type Config struct {
	SamplesPerFrame   uint32
	CompatibleVersion uint8
	BitsPerSample     uint8
	HistoryMultiplier uint8
	InitialHistory    uint8
	MaximumK          uint8
	Channels          uint8
	MaxRun            uint16
	MaxFrameBytes     uint32
	AvgBitRate        uint32
	SampleRate        uint32
}

func parseConfig(b []byte) (Config, error) {
	if len(b) < ConfigLen {
		return Config{}, fmt.Errorf("%w: config of %d bytes", ErrShortPayload, len(b))
	}
	c := Config{
		SamplesPerFrame:   binary.BigEndian.Uint32(b[0:]),
		CompatibleVersion: b[4],
		BitsPerSample:     b[5],
		HistoryMultiplier: b[6],
		InitialHistory:    b[7],
		MaximumK:          b[8],
		Channels:          b[9],
		MaxRun:            binary.BigEndian.Uint16(b[10:]),
		MaxFrameBytes:     binary.BigEndian.Uint32(b[12:]),
		AvgBitRate:        binary.BigEndian.Uint32(b[16:]),
		SampleRate:        binary.BigEndian.Uint32(b[20:]),
	}
	if c.CompatibleVersion != 0 {
		return c, fmt.Errorf("%w: %d", ErrCompatibleVersion, c.CompatibleVersion)
	}
	return c, nil
}

// Offsets into an stsd payload holding one alac entry.
const (
	stsdHighTag = 12 // after version, flags, entry count and entry size
	stsdLowTag  = 48 // after the 36-byte audio sample entry and the box size
	stsdConfig  = 56 // after the low tag and its version and flags
)

// ParseSampleDescription reads the ALACSpecificConfig from an stsd
// payload. Both the sample entry tag and the nested codec box tag must be
// "alac". The audio sample entry fields are ignored in favour of the
// config.
func ParseSampleDescription(stsd []byte) (Config, error) {
	if len(stsd) < stsdHighTag+4 {
		return Config{}, fmt.Errorf("%w: stsd of %d bytes", ErrShortPayload, len(stsd))
	}
	if tag := string(stsd[stsdHighTag : stsdHighTag+4]); tag != "alac" {
		return Config{}, fmt.Errorf("%w: entry %q", ErrTagMismatch, tag)
	}
	if len(stsd) < stsdConfig+ConfigLen {
		return Config{}, fmt.Errorf("%w: stsd of %d bytes", ErrShortPayload, len(stsd))
	}
	if tag := string(stsd[stsdLowTag : stsdLowTag+4]); tag != "alac" {
		return Config{}, fmt.Errorf("%w: codec box %q", ErrTagMismatch, tag)
	}
	return parseConfig(stsd[stsdConfig:])
}

// ParseMagicCookie reads an ALACSpecificConfig that may be preceded by a
// 12-byte frma atom, a 12-byte alac atom header, or both.
func ParseMagicCookie(cookie []byte) (Config, error) {
	if len(cookie) >= 12 && string(cookie[4:8]) == "frma" {
		cookie = cookie[12:]
	}
	if len(cookie) >= 12 && string(cookie[4:8]) == "alac" {
		cookie = cookie[12:]
	}
	return parseConfig(cookie)
}

// MediaHeader holds the mdhd fields the decoder uses.
type MediaHeader struct {
	Version   uint8
	Timescale uint32
	Duration  uint64
}

// ParseMediaHeader reads an mdhd payload of version 0 or 1.
func ParseMediaHeader(mdhd []byte) (MediaHeader, error) {
	if len(mdhd) < 4 {
		return MediaHeader{}, fmt.Errorf("%w: mdhd of %d bytes", ErrShortPayload, len(mdhd))
	}
	h := MediaHeader{Version: mdhd[0]}
	switch h.Version {
	case 0:
		if len(mdhd) < 20 {
			return h, fmt.Errorf("%w: mdhd of %d bytes", ErrShortPayload, len(mdhd))
		}
		h.Timescale = binary.BigEndian.Uint32(mdhd[12:])
		h.Duration = uint64(binary.BigEndian.Uint32(mdhd[16:]))
	case 1:
		if len(mdhd) < 32 {
			return h, fmt.Errorf("%w: mdhd of %d bytes", ErrShortPayload, len(mdhd))
		}
		h.Timescale = binary.BigEndian.Uint32(mdhd[20:])
		h.Duration = binary.BigEndian.Uint64(mdhd[24:])
	default:
		return h, fmt.Errorf("%w: %d", ErrMediaHeaderVersion, h.Version)
	}
	return h, nil
}

// Track is an ALAC audio track.
type Track struct {
	Config Config
	Media  MediaHeader
}

// Frames returns the track length in PCM frames. A duration in a
// timescale other than the sample rate is rescaled.
func (t Track) Frames() uint64 {
	ts, rate := uint64(t.Media.Timescale), uint64(t.Config.SampleRate)
	if ts == 0 || rate == 0 || ts == rate {
		return t.Media.Duration
	}
	hi, lo := bits.Mul64(t.Media.Duration, rate)
	if hi >= ts {
		return math.MaxUint64
	}
	frames, _ := bits.Div64(hi, lo, ts)
	return frames
}

// FindTrack returns the first trak in a moov payload that carries a valid
// alac sample description. When no track qualifies, the error of the most
// relevant track is returned: a track with an alac entry that failed for
// another reason wins over tracks of other codecs.
func FindTrack(moov []byte) (Track, error) {
	var (
		track Track
		found bool
		first error
	)
	err := Walk(moov, func(b Box) bool {
		if b.Type != "trak" {
			return true
		}
		t, err := parseTrack(b.Payload)
		if err == nil {
			track, found = t, true
			return false
		}
		if first == nil || (errors.Is(first, ErrTagMismatch) && !errors.Is(err, ErrTagMismatch)) {
			first = err
		}
		return true
	})
	switch {
	case found:
		return track, nil
	case err != nil:
		return Track{}, err
	case first != nil:
		return Track{}, first
	}
	return Track{}, ErrNoTrack
}

func parseTrack(trak []byte) (Track, error) {
	stsd, err := Find(trak, "mdia", "minf", "stbl", "stsd")
	if err != nil {
		return Track{}, err
	}
	cfg, err := ParseSampleDescription(stsd)
	if err != nil {
		return Track{}, err
	}
	mdhd, err := Find(trak, "mdia", "mdhd")
	if err != nil {
		return Track{}, err
	}
	media, err := ParseMediaHeader(mdhd)
	if err != nil {
		return Track{}, err
	}
	return Track{Config: cfg, Media: media}, nil
}
