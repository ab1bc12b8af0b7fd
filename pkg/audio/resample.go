package audio

import "math"

// halfTaps is the filter half-width in output-rate samples. 16 taps per
// side keeps aliasing well below the 16-bit noise floor for speech.
const halfTaps = 16

// Resample converts audio from one sample rate to another using a
// Hann-windowed sinc filter. The filter is band-limited to the lower of
// the two Nyquist frequencies, so downsampling does not alias.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLen := int(float64(len(samples)) / ratio)
	if newLen == 0 {
		return []float64{}
	}

	// Cutoff relative to the source rate: 1.0 when upsampling,
	// toRate/fromRate when downsampling.
	cutoff := 1.0
	if toRate < fromRate {
		cutoff = 1 / ratio
	}
	// Widen the kernel when downsampling so it still spans halfTaps
	// output samples.
	width := float64(halfTaps) / cutoff

	out := make([]float64, newLen)
	for i := range out {
		center := float64(i) * ratio

		lo := int(math.Ceil(center - width))
		hi := int(math.Floor(center + width))
		if lo < 0 {
			lo = 0
		}
		if hi > len(samples)-1 {
			hi = len(samples) - 1
		}

		var acc, norm float64
		for j := lo; j <= hi; j++ {
			d := float64(j) - center
			w := sinc(cutoff*d) * hann(d/width)
			acc += samples[j] * w
			norm += w
		}
		if norm != 0 {
			out[i] = acc / norm
		}
	}
	return out
}

// sinc is the normalized sinc function sin(pi x)/(pi x).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// hann is the Hann window over [-1, 1], zero outside.
func hann(x float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}
	return 0.5 * (1 + math.Cos(math.Pi*x))
}
