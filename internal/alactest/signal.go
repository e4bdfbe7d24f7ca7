package alactest

import "math"

// Sine returns n samples of a sine wave with the given amplitude and period
// (in samples), rounded to integers.
func Sine(n int, amplitude, period, phase float64) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(math.Round(amplitude * math.Sin(2*math.Pi*float64(i)/period+phase)))
	}
	return out
}

// Noise returns n deterministic pseudo-random samples in [-amplitude, amplitude].
func Noise(n int, amplitude int32, seed uint32) []int32 {
	out := make([]int32, n)
	state := seed | 1
	span := uint32(2*int64(amplitude) + 1)
	for i := range out {
		state = state*1664525 + 1013904223
		out[i] = int32((state>>8)%span) - amplitude
	}
	return out
}

// Add returns the element-wise sum of equally long signals.
func Add(signals ...[]int32) []int32 {
	out := make([]int32, len(signals[0]))
	for _, s := range signals {
		for i, v := range s {
			out[i] += v
		}
	}
	return out
}

// Interleave interleaves per-channel samples into one buffer.
func Interleave(channels [][]int32) []int32 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]int32, 0, n*len(channels))
	for i := range n {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}
