package audio

import (
	"encoding/base64"
	"math"
	"testing"
)

func sine(freq float64, rate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestResample_SameRate(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.3}
	result := Resample(samples, 24000, 24000)
	if len(result) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(result))
	}
	for i := range samples {
		if result[i] != samples[i] {
			t.Errorf("sample %d changed: %v -> %v", i, samples[i], result[i])
		}
	}
}

func TestResample_Lengths(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		in       int
		want     int
	}{
		{"downsample 2:1", 48000, 24000, 960, 480},
		{"upsample 2:3", 16000, 24000, 320, 480},
		{"24k to 44.1k", 24000, 44100, 2400, 4410},
		{"empty", 24000, 44100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sine(220, tt.from, tt.in)
			out := Resample(in, tt.from, tt.to)
			if len(out) != tt.want {
				t.Errorf("expected %d samples, got %d", tt.want, len(out))
			}
		})
	}
}

func TestResample_PreservesTone(t *testing.T) {
	// A 220Hz tone upsampled 24k -> 44.1k should stay a 220Hz tone:
	// compare against a directly generated reference away from the
	// filter edges.
	out := Resample(sine(220, 24000, 2400), 24000, 44100)
	ref := sine(220, 44100, len(out))

	for i := 200; i < len(out)-200; i++ {
		if math.Abs(out[i]-ref[i]) > 0.01 {
			t.Fatalf("sample %d: got %v, want %v", i, out[i], ref[i])
		}
	}
}

func TestQuantizePCM16(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int16
	}{
		{"zero", 0, 0},
		{"unit", 1, 32767},
		{"negative unit", -1, -32767},
		{"half", 0.5, 16384},
		{"clipped high", 1.7, 32767},
		{"clipped low", -2.5, -32767},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuantizePCM16([]float64{tt.in})
			if got[0] != tt.want {
				t.Errorf("QuantizePCM16(%v) = %d, want %d", tt.in, got[0], tt.want)
			}
		})
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	got := BytesToSamples(SamplesToBytes(samples))
	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: %d != %d", i, got[i], samples[i])
		}
	}
}

func TestSamplesToBytes_LittleEndian(t *testing.T) {
	data := SamplesToBytes([]int16{0x0102})
	if data[0] != 0x02 || data[1] != 0x01 {
		t.Errorf("expected little-endian layout, got % x", data)
	}
}

func TestEncodeBase64(t *testing.T) {
	enc := NewEncoder(24000, 24000)

	t.Run("decodes to expected bytes", func(t *testing.T) {
		payload := enc.EncodeBase64([]float64{0, 1})
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			t.Fatalf("payload is not valid base64: %v", err)
		}
		want := SamplesToBytes([]int16{0, 32767})
		if len(raw) != len(want) {
			t.Fatalf("expected %d bytes, got %d", len(want), len(raw))
		}
		for i := range want {
			if raw[i] != want[i] {
				t.Errorf("byte %d: %x != %x", i, raw[i], want[i])
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		in := sine(220, 24000, 480)
		resampling := NewEncoder(24000, 44100)
		if resampling.EncodeBase64(in) != resampling.EncodeBase64(in) {
			t.Error("same input produced different payloads")
		}
	})

	t.Run("resamples to target rate", func(t *testing.T) {
		resampling := NewEncoder(24000, 44100)
		payload := resampling.EncodeBase64(sine(220, 24000, 2400)) // 100ms
		raw, _ := base64.StdEncoding.DecodeString(payload)
		// 100ms at 44.1kHz 16-bit mono
		want := resampling.OutputBytesPerSecond() / 10
		if want != 4410*2 {
			t.Fatalf("expected byte rate %d, got %d", 4410*2*10, resampling.OutputBytesPerSecond())
		}
		if len(raw) != want {
			t.Errorf("expected %d bytes, got %d", want, len(raw))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := enc.EncodeBase64(nil); got != "" {
			t.Errorf("expected empty payload, got %q", got)
		}
	})
}
