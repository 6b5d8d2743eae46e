// Package audioio decodes audio files into the mono 16 kHz float32 frames the
// transcription engine consumes.
package audioio

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/wav"

	"github.com/JonathanStorey/gowhisper/pkg/whisper"
)

// ReadFile decodes a WAV file into mono float32 samples at the engine's
// sample rate.
func ReadFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audioio: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes WAV data into mono float32 samples at the engine's sample
// rate. Multi-channel input is downmixed by averaging; other sample rates are
// linearly resampled.
func Decode(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audioio: not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audioio: decode WAV: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("audioio: WAV file contains no audio data")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	samples, err := normalize(buf.Data, bitDepth)
	if err != nil {
		return nil, err
	}

	channels := buf.Format.NumChannels
	if channels > 1 {
		samples = downmix(samples, channels)
	}

	rate := buf.Format.SampleRate
	if rate != whisper.SampleRate {
		samples = resample(samples, rate, whisper.SampleRate)
	}
	return samples, nil
}

// normalize scales integer PCM to [-1, 1].
func normalize(data []int, bitDepth int) ([]float32, error) {
	var scale float32
	switch bitDepth {
	case 8:
		scale = 1 << 7
	case 16:
		scale = 1 << 15
	case 24:
		scale = 1 << 23
	case 32:
		scale = 1 << 31
	default:
		return nil, fmt.Errorf("audioio: unsupported bit depth %d", bitDepth)
	}

	out := make([]float32, len(data))
	for i, s := range data {
		out[i] = float32(s) / scale
	}
	return out, nil
}

// downmix averages interleaved channels into mono.
func downmix(samples []float32, channels int) []float32 {
	mono := make([]float32, len(samples)/channels)
	for i := range mono {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// resample converts between sample rates with linear interpolation.
func resample(src []float32, srcRate, dstRate int) []float32 {
	if len(src) == 0 || srcRate <= 0 || dstRate <= 0 || srcRate == dstRate {
		return src
	}

	ratio := float64(srcRate) / float64(dstRate)
	targetLen := int(math.Ceil(float64(len(src)) / ratio))
	if targetLen <= 0 {
		targetLen = 1
	}

	out := make([]float32, targetLen)
	for i := range out {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		if idx >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := float32(srcPos - float64(idx))
		out[i] = src[idx] + (src[idx+1]-src[idx])*frac
	}
	return out
}
