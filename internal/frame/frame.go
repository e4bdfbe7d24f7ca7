// Package frame decodes ALAC framesets.
//
// A frameset is a sequence of frames, each carrying one or two channels,
// terminated by a 3-bit channel field of 7. Every frame is either raw
// interleaved PCM or a compressed block: per-channel predictor headers,
// optional uncompressed low-order bits, and Rice-coded residuals, followed
// by stereo decorrelation for two-channel frames.
package frame

import (
	"fmt"

	"github.com/llehouerou/go-alac/internal/bits"
	"github.com/llehouerou/go-alac/internal/predictor"
	"github.com/llehouerou/go-alac/internal/rice"
)

// Bitstream field widths.
const (
	LenChannels      = 3
	LenTag           = 4
	LenReserved      = 12
	LenHasCount      = 1
	LenLSBBytes      = 2
	LenUncompressed  = 1
	LenSampleCount   = 32
	LenShift         = 8
	LenLeftWeight    = 8
	LenPredType      = 4
	LenQLPShift      = 4
	LenRiceModifier  = 3
	LenOrder         = 5
	LenCoefficient   = 16
	EndOfFrameset    = 7
	MaxChannels      = 64
	maxResidualWidth = 32
)

// Params are the stream-wide values a frameset decodes against.
type Params struct {
	SamplesPerFrame uint32
	BitsPerSample   uint8
	Rice            rice.Params

	// Strict rejects frames whose reserved header bits are not zero.
	Strict bool

	// MaxChannels bounds the channels accumulated in one frameset.
	// Zero means MaxChannels.
	MaxChannels int
}

// Header is a frame header.
type Header struct {
	Tag          uint8
	Reserved     uint16
	HasCount     bool
	LSBBytes     uint8
	Uncompressed bool
	SampleCount  uint32
}

// Subframe is one channel's predictor description.
type Subframe struct {
	PredictionType uint8
	QLPShift       uint8
	RiceModifier   uint8
	Coefs          []int32
}

// Decoder decodes framesets. It keeps scratch buffers between calls and
// is not safe for concurrent use.
type Decoder struct {
	params    Params
	residuals []int32
}

// NewDecoder returns a frameset decoder for p.
func NewDecoder(p Params) *Decoder {
	if p.MaxChannels <= 0 {
		p.MaxChannels = MaxChannels
	}
	return &Decoder{params: p}
}

// Params returns the decoder parameters.
func (d *Decoder) Params() Params {
	return d.params
}

// DecodeFrameset reads frames until the end marker, byte-aligns the
// reader and returns one freshly allocated sample slice per channel.
func (d *Decoder) DecodeFrameset(r *bits.Reader) ([][]int32, error) {
	var channels [][]int32
	for {
		nch := int(r.GetBits(LenChannels)) + 1
		if err := r.Err(); err != nil {
			return nil, err
		}
		if nch == EndOfFrameset+1 {
			break
		}
		if len(channels)+nch > d.params.MaxChannels {
			return nil, ErrTooManyChannels
		}

		decoded, err := d.DecodeFrame(r, nch)
		if err != nil {
			return nil, err
		}
		if len(channels) > 0 && len(decoded[0]) != len(channels[0]) {
			return nil, fmt.Errorf("%w: %d and %d samples", ErrFrameLength, len(channels[0]), len(decoded[0]))
		}
		channels = append(channels, decoded...)
	}

	r.ByteAlign()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}

// ReadHeader reads a frame header.
func (d *Decoder) ReadHeader(r *bits.Reader) (Header, error) {
	var h Header
	h.Tag = uint8(r.GetBits(LenTag))
	h.Reserved = uint16(r.GetBits(LenReserved))
	h.HasCount = r.Get1Bit() == 1
	h.LSBBytes = uint8(r.GetBits(LenLSBBytes))
	h.Uncompressed = r.Get1Bit() == 1
	h.SampleCount = d.params.SamplesPerFrame
	if h.HasCount {
		h.SampleCount = r.GetBits(LenSampleCount)
	}
	if err := r.Err(); err != nil {
		return h, err
	}

	if d.params.Strict && h.Reserved != 0 {
		return h, fmt.Errorf("%w: 0x%03X", ErrReservedBits, h.Reserved)
	}
	if h.LSBBytes == 3 {
		return h, ErrLSBWidth
	}
	if h.SampleCount > d.params.SamplesPerFrame {
		return h, fmt.Errorf("%w: %d > %d", ErrSampleCount, h.SampleCount, d.params.SamplesPerFrame)
	}
	return h, nil
}

// DecodeFrame decodes one frame of nch channels, the channel field already
// consumed.
func (d *Decoder) DecodeFrame(r *bits.Reader, nch int) ([][]int32, error) {
	h, err := d.ReadHeader(r)
	if err != nil {
		return nil, err
	}
	count := int(h.SampleCount)

	if h.Uncompressed {
		return d.readUncompressed(r, nch, count)
	}
	return d.readCompressed(r, h, nch, count)
}

func (d *Decoder) readUncompressed(r *bits.Reader, nch, count int) ([][]int32, error) {
	width := uint(d.params.BitsPerSample)
	channels := makeChannels(nch, count)
	for i := range count {
		for c := range nch {
			channels[c][i] = r.GetSigned(width)
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}

// ReadSubframe reads one channel's predictor header.
func ReadSubframe(r *bits.Reader) (Subframe, error) {
	var sf Subframe
	sf.PredictionType = uint8(r.GetBits(LenPredType))
	sf.QLPShift = uint8(r.GetBits(LenQLPShift))
	sf.RiceModifier = uint8(r.GetBits(LenRiceModifier))
	order := int(r.GetBits(LenOrder))
	sf.Coefs = make([]int32, order)
	for i := range sf.Coefs {
		sf.Coefs[i] = r.GetSigned(LenCoefficient)
	}
	if err := r.Err(); err != nil {
		return sf, err
	}
	if sf.PredictionType != 0 {
		return sf, fmt.Errorf("%w: %d", ErrPredictionType, sf.PredictionType)
	}
	return sf, nil
}

func (d *Decoder) readCompressed(r *bits.Reader, h Header, nch, count int) ([][]int32, error) {
	shift := uint8(r.GetBits(LenShift))
	leftWeight := uint8(r.GetBits(LenLeftWeight))

	subframes := make([]Subframe, nch)
	for c := range subframes {
		sf, err := ReadSubframe(r)
		if err != nil {
			return nil, err
		}
		if count == 0 || len(sf.Coefs) >= count {
			return nil, fmt.Errorf("%w: order %d, %d samples", ErrPredictorOrder, len(sf.Coefs), count)
		}
		subframes[c] = sf
	}

	lsbBits := uint(h.LSBBytes) * 8
	var lsbs []uint32
	if lsbBits > 0 {
		lsbs = make([]uint32, count*nch)
		for i := range lsbs {
			lsbs[i] = r.GetBits(lsbBits)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
	}

	sampleSize := int(d.params.BitsPerSample) - int(lsbBits) + nch - 1
	if sampleSize < 0 || sampleSize > maxResidualWidth {
		return nil, fmt.Errorf("%w: %d", ErrSampleSize, sampleSize)
	}

	// All residual blocks precede any reconstruction in the bitstream.
	channels := makeChannels(nch, count)
	residuals := d.scratch(count * nch)
	for c := range nch {
		block := residuals[c*count : (c+1)*count]
		if err := rice.Decode(r, d.params.Rice, uint(sampleSize), block); err != nil {
			return nil, err
		}
	}

	for c, sf := range subframes {
		block := residuals[c*count : (c+1)*count]
		if err := predictor.Reconstruct(sf.QLPShift, sf.Coefs, block, channels[c]); err != nil {
			return nil, err
		}
	}

	if nch == 2 {
		Decorrelate(channels[0], channels[1], shift, leftWeight)
	}

	if lsbBits > 0 {
		MergeLSBs(channels, lsbs, lsbBits)
	}
	return channels, nil
}

func (d *Decoder) scratch(n int) []int32 {
	if cap(d.residuals) < n {
		d.residuals = make([]int32, n)
	}
	return d.residuals[:n]
}

func makeChannels(nch, count int) [][]int32 {
	backing := make([]int32, nch*count)
	channels := make([][]int32, nch)
	for c := range channels {
		channels[c] = backing[c*count : (c+1)*count : (c+1)*count]
	}
	return channels
}

// Decorrelate undoes stereo channel correlation in place. On return ch1
// holds the left channel and ch2 the right channel. A zero leftWeight
// leaves both channels untouched.
func Decorrelate(ch1, ch2 []int32, shift, leftWeight uint8) {
	if leftWeight == 0 {
		return
	}
	for i := range ch1 {
		right := ch1[i] - int32((int64(ch2[i])*int64(leftWeight))>>shift)
		left := ch2[i] + right
		ch1[i], ch2[i] = left, right
	}
}

// Correlate is the inverse of Decorrelate: it turns left/right in place
// back into the coded channel pair.
func Correlate(left, right []int32, shift, leftWeight uint8) {
	if leftWeight == 0 {
		return
	}
	for i := range left {
		ch2 := left[i] - right[i]
		ch1 := right[i] + int32((int64(ch2)*int64(leftWeight))>>shift)
		left[i], right[i] = ch1, ch2
	}
}

// MergeLSBs shifts every sample left by lsbBits and ORs in its low-order
// bits. lsbs is interleaved by channel, as read from the bitstream.
func MergeLSBs(channels [][]int32, lsbs []uint32, lsbBits uint) {
	nch := len(channels)
	for c, ch := range channels {
		for i := range ch {
			ch[i] = ch[i]<<lsbBits | int32(lsbs[i*nch+c])
		}
	}
}
