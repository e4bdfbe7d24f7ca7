// decoder.go
package alac

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/llehouerou/go-alac/internal/bits"
	"github.com/llehouerou/go-alac/internal/frame"
	"github.com/llehouerou/go-alac/internal/mp4"
	"github.com/llehouerou/go-alac/internal/output"
)

// Decoder decodes the ALAC track of an MPEG-4 file, one frameset per Read.
type Decoder struct {
	params Params
	config Config

	closer io.Closer
	br     *bits.Reader
	frames *frame.Decoder
	out    *output.Assembler

	err    error // first decode failure, returned by every later Read
	closed bool
}

// Open opens the named file and prepares it for decoding. The optional
// cfg replaces DefaultConfig. Close closes the file.
func Open(path string, cfg ...Config) (*Decoder, error) {
	c := DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	d, err := NewDecoder(f, c)
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// NewDecoder parses the container read from rs and positions rs at the
// first byte of the media data. If rs implements io.Closer, Close closes
// it.
//
// The first trak carrying an alac sample description is decoded. Its
// length in PCM frames is taken from the track's mdhd box.
func NewDecoder(rs io.ReadSeeker, cfg Config) (*Decoder, error) {
	if rs == nil {
		return nil, ErrNilReader
	}

	file, err := mp4.Scan(rs)
	if err != nil {
		return nil, classify(err)
	}
	track, err := mp4.FindTrack(file.Movie)
	if err != nil {
		return nil, classify(err)
	}

	p := paramsFromConfig(track.Config, track.Frames())
	if err := p.validate(); err != nil {
		return nil, err
	}

	if _, err := rs.Seek(file.DataOffset, io.SeekStart); err != nil {
		return nil, classify(err)
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	d := &Decoder{
		params: p,
		config: cfg,
		br:     bits.NewReaderSize(io.LimitReader(rs, file.DataSize), size),
		frames: frame.NewDecoder(p.frameParams(cfg)),
		out:    output.NewAssembler(p.TotalFrames),
	}
	if c, ok := rs.(io.Closer); ok {
		d.closer = c
	}
	return d, nil
}

// Params returns the stream parameters.
func (d *Decoder) Params() Params {
	return d.params
}

// Config returns the decoder configuration.
func (d *Decoder) Config() Config {
	return d.config
}

// Remaining returns the number of PCM frames not yet decoded.
func (d *Decoder) Remaining() uint64 {
	return d.out.Remaining()
}

// Read decodes the next frameset.
//
// maxFrames is a hint: a frameset is never split, so the block holds
// exactly one frameset whatever the hint. Once the track length has been
// reached Read returns an empty block and a nil error.
//
// A failed Read leaves the decoder failed: every later Read returns the
// same error. Blocks returned earlier stay valid.
func (d *Decoder) Read(maxFrames int) (*Block, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.out.Exhausted() {
		return newBlock(d.params, nil, []int32{}), nil
	}

	channels, err := d.frames.DecodeFrameset(d.br)
	if err != nil {
		d.err = classify(err)
		return nil, d.err
	}
	return newBlock(d.params, channels, d.out.Assemble(channels)), nil
}

// Close releases the byte source. Later calls to Read return ErrClosed.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.br = nil
	if d.closer != nil {
		if err := d.closer.Close(); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	return nil
}

// PacketDecoder decodes framesets delivered as individual packets, for
// callers that locate packets through the sample table themselves.
type PacketDecoder struct {
	params Params
	frames *frame.Decoder
	src    bytes.Reader
	br     bits.Reader
}

// NewPacketDecoder returns a packet decoder for p. p.TotalFrames is
// ignored.
func NewPacketDecoder(p Params, cfg Config) (*PacketDecoder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &PacketDecoder{
		params: p,
		frames: frame.NewDecoder(p.frameParams(cfg)),
	}, nil
}

// NewPacketDecoderFromCookie returns a packet decoder for a magic cookie:
// an ALACSpecificConfig, optionally preceded by frma and alac atom
// headers.
func NewPacketDecoderFromCookie(cookie []byte, cfg Config) (*PacketDecoder, error) {
	c, err := mp4.ParseMagicCookie(cookie)
	if err != nil {
		return nil, classify(err)
	}
	return NewPacketDecoder(paramsFromConfig(c, 0), cfg)
}

// Params returns the stream parameters.
func (d *PacketDecoder) Params() Params {
	return d.params
}

// DecodePacket decodes the frameset held in packet. Bytes after the end
// marker are ignored.
func (d *PacketDecoder) DecodePacket(packet []byte) (*Block, error) {
	d.src.Reset(packet)
	d.br.Reset(&d.src)

	channels, err := d.frames.DecodeFrameset(&d.br)
	if err != nil {
		return nil, classify(err)
	}
	return newBlock(d.params, channels, output.Interleave(channels)), nil
}
