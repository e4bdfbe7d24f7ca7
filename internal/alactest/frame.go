package alactest

import (
	"fmt"

	"github.com/llehouerou/go-alac/internal/bits"
)

// StreamConfig carries the stream-wide parameters a frame is coded with.
type StreamConfig struct {
	SamplesPerFrame uint32
	BitsPerSample   uint8
	Residual        ResidualParams
}

// Subframe describes how one channel of a compressed frame is predicted.
type Subframe struct {
	Shift          uint8
	Coefs          []int32 // initial coefficients; copied before adaptation
	RiceModifier   uint8
	PredictionType uint8
}

// Frame describes one coded frame: one or two channels sharing a header.
// Samples are the values the decoder must produce.
type Frame struct {
	Samples       [][]int32
	Uncompressed  bool
	ExplicitCount bool
	LSBBytes      uint8
	Shift         uint8
	LeftWeight    uint8
	Subframes     []Subframe // nil means order 0 for every channel
	Tag           uint8
	Reserved      uint16
}

// WriteFrame writes the 3-bit channel field followed by the frame.
func (s StreamConfig) WriteFrame(w *bits.Writer, f Frame) {
	nch := len(f.Samples)
	if nch < 1 || nch > 7 {
		panic(fmt.Sprintf("alactest: %d channels in one frame", nch))
	}
	count := len(f.Samples[0])

	w.PutBits(uint32(nch-1), 3)
	w.PutBits(uint32(f.Tag), 4)
	w.PutBits(uint32(f.Reserved), 12)

	explicit := f.ExplicitCount || uint32(count) != s.SamplesPerFrame
	w.Put1Bit(boolBit(explicit))
	w.PutBits(uint32(f.LSBBytes), 2)
	w.Put1Bit(boolBit(f.Uncompressed))
	if explicit {
		w.PutBits(uint32(count), 32)
	}

	if f.Uncompressed {
		for i := range count {
			for c := range nch {
				w.PutSigned(f.Samples[c][i], uint(s.BitsPerSample))
			}
		}
		return
	}

	lsbBits := uint(f.LSBBytes) * 8
	high := make([][]int32, nch)
	lsbs := make([]uint32, 0, count*nch)
	for c := range nch {
		high[c] = make([]int32, count)
		for i, v := range f.Samples[c] {
			high[c][i] = v >> lsbBits
		}
	}
	if lsbBits > 0 {
		mask := uint32(1)<<lsbBits - 1
		for i := range count {
			for c := range nch {
				lsbs = append(lsbs, uint32(f.Samples[c][i])&mask)
			}
		}
	}

	coded := high
	if nch == 2 && f.LeftWeight != 0 {
		ch1, ch2 := Correlate(high[0], high[1], f.Shift, f.LeftWeight)
		coded = [][]int32{ch1, ch2}
	}

	w.PutBits(uint32(f.Shift), 8)
	w.PutBits(uint32(f.LeftWeight), 8)

	subframes := make([]Subframe, nch)
	copy(subframes, f.Subframes)
	for _, sf := range subframes {
		w.PutBits(uint32(sf.PredictionType), 4)
		w.PutBits(uint32(sf.Shift), 4)
		w.PutBits(uint32(sf.RiceModifier), 3)
		w.PutBits(uint32(len(sf.Coefs)), 5)
		for _, c := range sf.Coefs {
			w.PutSigned(c, 16)
		}
	}

	for _, l := range lsbs {
		w.PutBits(l, lsbBits)
	}

	sampleSize := uint(int(s.BitsPerSample) - int(lsbBits) + nch - 1)
	for c, sf := range subframes {
		coefs := append([]int32(nil), sf.Coefs...)
		res := Predict(sf.Shift, coefs, coded[c])
		WriteResiduals(w, s.Residual, sampleSize, res)
	}
}

// WriteFrameset writes frames followed by the end marker and byte alignment.
func (s StreamConfig) WriteFrameset(w *bits.Writer, frames ...Frame) {
	for _, f := range frames {
		s.WriteFrame(w, f)
	}
	w.PutBits(7, 3)
	w.ByteAlign()
}

// Frameset returns the bytes of a single frameset.
func (s StreamConfig) Frameset(frames ...Frame) []byte {
	var w bits.Writer
	s.WriteFrameset(&w, frames...)
	return w.Bytes()
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
