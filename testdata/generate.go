//go:build ignore

// This script generates test data for ALAC decoder testing.
// Run with: go run testdata/generate.go
//
// Requirements: FFmpeg must be installed and available in PATH.
//
// Generated test data structure:
//   testdata/generated/
//   ├── 44100_16_mono/
//   │   ├── sine1k.m4a   # ALAC in an MP4 container
//   │   ├── sine1k.raw   # Source PCM, little-endian signed
//   │   └── sine1k.json  # Stream configuration
//   ├── 44100_24_stereo/
//   │   └── ...
//   └── ...
//
// ALAC is lossless, so the reference output is the PCM that was encoded.

package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
)

// TestConfig describes a test configuration
type TestConfig struct {
	SampleRate  int `json:"sample_rate"`
	SampleSize  int `json:"sample_size"`
	NumChannels int `json:"num_channels"`
	FrameSize   int `json:"frame_size"`
}

var configs = []TestConfig{
	{44100, 16, 1, 4096},
	{44100, 16, 2, 4096},
	{44100, 24, 1, 4096},
	{44100, 24, 2, 4096},
	{48000, 16, 2, 4096},
	{48000, 24, 2, 4096},
	{96000, 24, 2, 4096},
	{44100, 16, 2, 1024},
}

var audioTypes = []string{"silence", "sine1k", "sweep", "noise", "impulse"}

func main() {
	if err := checkFFmpeg(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please install FFmpeg: https://ffmpeg.org/download.html\n")
		os.Exit(1)
	}

	baseDir := filepath.Join("testdata", "generated")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, cfg := range configs {
		dirName := fmt.Sprintf("%d_%d_%s", cfg.SampleRate, cfg.SampleSize, channelName(cfg.NumChannels))
		if cfg.FrameSize != 4096 {
			dirName += fmt.Sprintf("_%d", cfg.FrameSize)
		}
		dir := filepath.Join(baseDir, dirName)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating directory %s: %v\n", dir, err)
			continue
		}

		for _, audioType := range audioTypes {
			if err := generateTestCase(dir, audioType, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating %s/%s: %v\n", dirName, audioType, err)
			} else {
				fmt.Printf("Generated %s/%s\n", dirName, audioType)
			}
		}
	}

	fmt.Println("Done!")
}

func checkFFmpeg() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}

func channelName(n int) string {
	if n == 1 {
		return "mono"
	}
	return "stereo"
}

func generateTestCase(dir, audioType string, cfg TestConfig) error {
	wavPath := filepath.Join(dir, audioType+".wav")
	m4aPath := filepath.Join(dir, audioType+".m4a")
	rawPath := filepath.Join(dir, audioType+".raw")
	jsonPath := filepath.Join(dir, audioType+".json")

	// Skip if all files exist
	if fileExists(m4aPath) && fileExists(rawPath) && fileExists(jsonPath) {
		return nil
	}

	// One and a half seconds, so the last frameset is short
	samples := cfg.SampleRate * 3 / 2
	pcm := generatePCM(audioType, cfg, samples)

	if err := writeWAV(wavPath, cfg, pcm); err != nil {
		return fmt.Errorf("writing WAV: %w", err)
	}
	if err := encodeALAC(wavPath, m4aPath, cfg); err != nil {
		return fmt.Errorf("encoding ALAC: %w", err)
	}
	if err := os.WriteFile(rawPath, pcm, 0644); err != nil {
		return fmt.Errorf("writing raw: %w", err)
	}
	if err := writeConfig(jsonPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Clean up intermediate WAV
	os.Remove(wavPath)

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// generatePCM returns interleaved little-endian PCM at the config's bit depth.
func generatePCM(audioType string, cfg TestConfig, samples int) []byte {
	var buf bytes.Buffer
	for i := 0; i < samples; i++ {
		for ch := 0; ch < cfg.NumChannels; ch++ {
			var sample float64
			t := float64(i) / float64(cfg.SampleRate)

			switch audioType {
			case "silence":
				sample = 0

			case "sine1k":
				sample = 0.8 * math.Sin(2*math.Pi*1000*t)

			case "sweep":
				// Logarithmic sweep from 20Hz to Nyquist/2
				maxFreq := float64(cfg.SampleRate) / 4
				progress := float64(i) / float64(samples)
				freq := 20 * math.Pow(maxFreq/20, progress)
				sample = 0.7 * math.Sin(2*math.Pi*freq*t)

			case "noise":
				// Pseudo-random noise using LCG (deterministic)
				seed := uint32(i*cfg.NumChannels + ch + 12345)
				seed = seed*1103515245 + 12345
				sample = float64(int32(seed)) / float64(math.MaxInt32) * 0.5

			case "impulse":
				period := cfg.SampleRate / 10
				if i%period == 0 {
					sample = 0.9
				}
			}

			if cfg.NumChannels == 2 && ch == 1 && audioType != "silence" {
				sample *= 0.95
			}

			writeSample(&buf, sample, cfg.SampleSize)
		}
	}
	return buf.Bytes()
}

func writeSample(buf *bytes.Buffer, sample float64, bitDepth int) {
	// Clamp to [-1, 1]
	if sample > 1.0 {
		sample = 1.0
	} else if sample < -1.0 {
		sample = -1.0
	}

	switch bitDepth {
	case 16:
		val := int16(sample * 32767)
		binary.Write(buf, binary.LittleEndian, val)
	case 24:
		val := int32(sample * 8388607)
		buf.Write([]byte{byte(val), byte(val >> 8), byte(val >> 16)})
	}
}

func writeWAV(path string, cfg TestConfig, pcm []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bytesPerSample := cfg.SampleSize / 8
	blockAlign := cfg.NumChannels * bytesPerSample
	byteRate := cfg.SampleRate * blockAlign

	// RIFF header
	f.Write([]byte("RIFF"))
	binary.Write(f, binary.LittleEndian, uint32(36+len(pcm)))
	f.Write([]byte("WAVE"))

	// fmt chunk
	f.Write([]byte("fmt "))
	binary.Write(f, binary.LittleEndian, uint32(16)) // chunk size
	binary.Write(f, binary.LittleEndian, uint16(1))  // audio format (PCM)
	binary.Write(f, binary.LittleEndian, uint16(cfg.NumChannels))
	binary.Write(f, binary.LittleEndian, uint32(cfg.SampleRate))
	binary.Write(f, binary.LittleEndian, uint32(byteRate))
	binary.Write(f, binary.LittleEndian, uint16(blockAlign))
	binary.Write(f, binary.LittleEndian, uint16(cfg.SampleSize))

	// data chunk
	f.Write([]byte("data"))
	binary.Write(f, binary.LittleEndian, uint32(len(pcm)))
	_, err = f.Write(pcm)
	return err
}

func encodeALAC(wavPath, m4aPath string, cfg TestConfig) error {
	sampleFmt := "s16p"
	if cfg.SampleSize > 16 {
		sampleFmt = "s32p"
	}

	args := []string{
		"-y", "-i", wavPath,
		"-c:a", "alac",
		"-sample_fmt", sampleFmt,
		"-frame_size", fmt.Sprint(cfg.FrameSize),
		m4aPath,
	}
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("encoding M4A: %w", err)
	}
	return nil
}

func writeConfig(path string, cfg TestConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
