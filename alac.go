package alac

import (
	"fmt"

	"github.com/llehouerou/go-alac/internal/bits"
	"github.com/llehouerou/go-alac/internal/frame"
	"github.com/llehouerou/go-alac/internal/mp4"
	"github.com/llehouerou/go-alac/internal/output"
	"github.com/llehouerou/go-alac/internal/rice"
)

// Params are the stream parameters read from the ALACSpecificConfig and
// the track's media header. They do not change after a decoder is built.
type Params struct {
	SamplesPerFrame   uint32 // PCM frames in a full frameset
	BitsPerSample     uint8  // 16, 20, 24 or 32
	HistoryMultiplier uint8  // Rice history adaptation rate
	InitialHistory    uint8  // Rice history seed
	MaximumK          uint8  // Rice parameter ceiling
	Channels          uint8
	SampleRate        uint32

	// TotalFrames is the track length in PCM frames. It bounds how many
	// framesets a Decoder reads; a PacketDecoder ignores it.
	TotalFrames uint64

	// Informational fields, unused by decoding.
	MaxRun        uint16
	MaxFrameBytes uint32
	AvgBitRate    uint32
}

func paramsFromConfig(c mp4.Config, totalFrames uint64) Params {
	return Params{
		SamplesPerFrame:   c.SamplesPerFrame,
		BitsPerSample:     c.BitsPerSample,
		HistoryMultiplier: c.HistoryMultiplier,
		InitialHistory:    c.InitialHistory,
		MaximumK:          c.MaximumK,
		Channels:          c.Channels,
		SampleRate:        c.SampleRate,
		TotalFrames:       totalFrames,
		MaxRun:            c.MaxRun,
		MaxFrameBytes:     c.MaxFrameBytes,
		AvgBitRate:        c.AvgBitRate,
	}
}

func (p Params) validate() error {
	switch p.BitsPerSample {
	case 16, 20, 24, 32:
	default:
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFeature, p.BitsPerSample)
	}
	if p.SamplesPerFrame == 0 {
		return fmt.Errorf("%w: zero samples per frame", ErrFormat)
	}
	if p.Channels == 0 {
		return fmt.Errorf("%w: zero channels", ErrFormat)
	}
	return nil
}

func (p Params) frameParams(cfg Config) frame.Params {
	return frame.Params{
		SamplesPerFrame: p.SamplesPerFrame,
		BitsPerSample:   p.BitsPerSample,
		Rice: rice.Params{
			HistoryMultiplier: uint32(p.HistoryMultiplier),
			InitialHistory:    uint32(p.InitialHistory),
			MaximumK:          uint32(p.MaximumK),
		},
		Strict:      cfg.Strict,
		MaxChannels: frame.MaxChannels,
	}
}

// DefaultBufferSize is the default read-ahead for media data.
const DefaultBufferSize = bits.DefaultBufferSize

// Config contains decoder configuration options.
type Config struct {
	// Strict rejects frames whose 12 reserved header bits are not zero.
	Strict bool

	// BufferSize is the read-ahead used for media data. Zero or less means
	// DefaultBufferSize.
	BufferSize int
}

// DefaultConfig returns the configuration used by Open when none is given.
func DefaultConfig() Config {
	return Config{
		Strict:     true,
		BufferSize: DefaultBufferSize,
	}
}

// Block is one decoded frameset: interleaved signed samples, frame by
// frame. Samples is owned by the caller and never reused by the decoder.
type Block struct {
	Channels      int
	BitsPerSample int
	SampleRate    int
	Signed        bool
	Samples       []int32
}

func newBlock(p Params, channels [][]int32, samples []int32) *Block {
	nch := len(channels)
	if nch == 0 {
		nch = int(p.Channels)
	}
	return &Block{
		Channels:      nch,
		BitsPerSample: int(p.BitsPerSample),
		SampleRate:    int(p.SampleRate),
		Signed:        true,
		Samples:       samples,
	}
}

// Frames returns the number of PCM frames in the block.
func (b *Block) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Len returns the number of samples in the block, across all channels.
func (b *Block) Len() int {
	return len(b.Samples)
}

// Bytes returns the samples as little-endian signed PCM, 2, 3 or 4 bytes
// per sample.
func (b *Block) Bytes() []byte {
	return output.ToBytes(b.Samples, b.BitsPerSample)
}

// Int16 returns the samples reduced to 16 bits.
func (b *Block) Int16() []int16 {
	return output.ToInt16(b.Samples, b.BitsPerSample)
}
