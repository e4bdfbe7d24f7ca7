// Package output assembles decoded channels into interleaved PCM.
package output

import "math"

// Assembler interleaves decoded framesets and tracks how many PCM frames
// of the stream remain. The remaining count only decreases.
type Assembler struct {
	remaining uint64
}

// NewAssembler returns an assembler for a stream of total PCM frames.
func NewAssembler(total uint64) *Assembler {
	return &Assembler{remaining: total}
}

// Remaining returns the number of PCM frames not yet assembled.
func (a *Assembler) Remaining() uint64 {
	return a.remaining
}

// Exhausted reports whether every PCM frame has been assembled.
func (a *Assembler) Exhausted() bool {
	return a.remaining == 0
}

// Consume deducts frames from the remaining count, stopping at zero.
func (a *Assembler) Consume(frames int) {
	if frames <= 0 {
		return
	}
	if uint64(frames) >= a.remaining {
		a.remaining = 0
		return
	}
	a.remaining -= uint64(frames)
}

// Assemble interleaves one frameset and deducts its frames. The returned
// slice is freshly allocated.
func (a *Assembler) Assemble(channels [][]int32) []int32 {
	samples := Interleave(channels)
	if len(channels) > 0 {
		a.Consume(len(channels[0]))
	}
	return samples
}

// Interleave returns channel-major input as frame-major samples: channel c
// of frame i lands at index i*len(channels)+c. All channels must have the
// same length.
func Interleave(channels [][]int32) []int32 {
	nch := len(channels)
	if nch == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]int32, frames*nch)

	switch nch {
	case 1:
		copy(out, channels[0])

	case 2:
		left, right := channels[0], channels[1]
		for i := range frames {
			out[i*2+0] = left[i]
			out[i*2+1] = right[i]
		}

	default:
		for c, ch := range channels {
			for i := range frames {
				out[i*nch+c] = ch[i]
			}
		}
	}
	return out
}

// BytesPerSample returns the container width of a sample of the given
// bit depth.
func BytesPerSample(bitsPerSample int) int {
	return (bitsPerSample + 7) / 8
}

// ToBytes converts samples to signed little-endian PCM, two, three or four
// bytes per sample depending on bitsPerSample.
func ToBytes(samples []int32, bitsPerSample int) []byte {
	width := BytesPerSample(bitsPerSample)
	out := make([]byte, len(samples)*width)

	switch width {
	case 2:
		for i, s := range samples {
			out[i*2+0] = byte(s)
			out[i*2+1] = byte(s >> 8)
		}

	case 3:
		for i, s := range samples {
			out[i*3+0] = byte(s)
			out[i*3+1] = byte(s >> 8)
			out[i*3+2] = byte(s >> 16)
		}

	default:
		for i, s := range samples {
			for b := range width {
				out[i*width+b] = byte(s >> (8 * b))
			}
		}
	}
	return out
}

// clip16 clips a sample to the int16 range.
func clip16(sample int32) int16 {
	if sample > math.MaxInt16 {
		return math.MaxInt16
	}
	if sample < math.MinInt16 {
		return math.MinInt16
	}
	return int16(sample)
}

// ToInt16 converts samples of the given bit depth to 16-bit PCM. Deeper
// samples are truncated to their 16 most significant bits; shallower ones
// are scaled up.
func ToInt16(samples []int32, bitsPerSample int) []int16 {
	out := make([]int16, len(samples))
	switch {
	case bitsPerSample > 16:
		shift := uint(bitsPerSample - 16)
		for i, s := range samples {
			out[i] = clip16(s >> shift)
		}
	case bitsPerSample < 16:
		shift := uint(16 - bitsPerSample)
		for i, s := range samples {
			out[i] = clip16(s << shift)
		}
	default:
		for i, s := range samples {
			out[i] = clip16(s)
		}
	}
	return out
}
