// Package engine provides the speech backend capability for streamtts.
//
// A Synthesizer converts normalized text into raw mono samples plus
// phoneme timings at a fixed native sample rate. Two implementations
// exist: Proc runs an external model-runner subprocess, and Mock
// generates deterministic audio for development and tests. The backend
// is chosen once at construction time, never inferred from a value's
// runtime shape; the readiness probe reports which one is serving.
//
// Example usage:
//
//	synth, _ := engine.NewMock(
//	    engine.WithSampleRate(24000),
//	)
//	defer synth.Close()
//
//	result, _ := synth.Synthesize(ctx, "Hello world")
//	// result.Samples holds raw mono audio, result.Timings the phonemes
package engine

import (
	"context"

	"github.com/voxkit/streamtts/pkg/align"
)

// Synthesizer is the speech backend contract. All implementations must
// satisfy this interface for seamless backend switching.
type Synthesizer interface {
	// Synthesize converts normalized text to raw samples and phoneme
	// timings. It blocks for the duration of inference; cancel the
	// context to abandon the call.
	Synthesize(ctx context.Context, text string) (*Result, error)

	// Ready reports whether the backend can synthesize.
	Ready() bool

	// Name identifies the backend for the readiness probe.
	Name() string

	// Close releases any resources held by the backend.
	Close() error
}

// Result is one complete synthesis output.
type Result struct {
	// Samples contains raw mono audio in [-1, 1].
	Samples []float64

	// SampleRate is the native rate of Samples in Hz.
	SampleRate int

	// Timings contains contiguous phoneme timings covering the audio.
	// Empty labels denote silence or punctuation.
	Timings []align.PhonemeTiming
}

// DurationMS returns the audio duration in milliseconds.
func (r *Result) DurationMS() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate) * 1000
}

// Empty reports whether the backend produced no usable audio.
func (r *Result) Empty() bool {
	return r == nil || len(r.Samples) == 0
}
