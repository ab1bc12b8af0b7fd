// Package audio converts raw backend samples into the transport payload:
// clip, resample to the target rate, quantize to 16-bit mono PCM and
// base64-encode for embedding in a text message. Everything here is
// deterministic for a given input and target rate.
package audio

import (
	"encoding/base64"
	"math"
)

// Encoder turns raw mono float samples at the backend's native rate
// into base64 16-bit PCM at the target rate.
type Encoder struct {
	NativeRate int
	TargetRate int
}

// NewEncoder creates an encoder for the given rate conversion.
func NewEncoder(nativeRate, targetRate int) Encoder {
	return Encoder{NativeRate: nativeRate, TargetRate: targetRate}
}

// EncodeBase64 produces the transport-safe audio payload.
func (e Encoder) EncodeBase64(samples []float64) string {
	out := samples
	if e.NativeRate != e.TargetRate {
		out = Resample(out, e.NativeRate, e.TargetRate)
	}
	return base64.StdEncoding.EncodeToString(SamplesToBytes(QuantizePCM16(out)))
}

// OutputBytesPerSecond reports the encoded PCM byte rate, useful for
// duration sanity checks.
func (e Encoder) OutputBytesPerSecond() int {
	return e.TargetRate * 2
}

// QuantizePCM16 clips samples to [-1, 1] and scales them to int16.
// Clipping first guards against overflow from any signal exceeding
// unit amplitude.
func QuantizePCM16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(math.Round(s * 32767))
	}
	return out
}

// SamplesToBytes converts int16 samples to raw PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// BytesToSamples converts raw PCM16 little-endian bytes to int16 samples.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}
