package engine

import (
	"context"
	"math"
	"sync"
	"time"
	"unicode"

	"github.com/voxkit/streamtts/pkg/align"
)

const (
	// mockMSPerChar paces the generated audio at 80ms per character.
	mockMSPerChar = 80.0
	// mockToneHz is the generated tone (A3).
	mockToneHz = 220.0
	// mockFade is the fade-in/out applied to reduce clicks between chunks.
	mockFade = 20 * time.Millisecond
)

// Mock implements Synthesizer for development and tests. It generates a
// faded sine tone paced at natural speech speed, with one phoneme
// timing per alphabetic character. SynthesizeFunc can override the
// behavior; every invocation is recorded for verification.
type Mock struct {
	cfg *Config

	// SynthesizeFunc, when set, handles Synthesize calls instead of
	// the built-in tone generator.
	SynthesizeFunc func(ctx context.Context, text string) (*Result, error)

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock creates a mock backend.
func NewMock(opts ...Option) *Mock {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Mock{cfg: cfg}
}

// Synthesize generates deterministic audio and timings for text.
func (m *Mock) Synthesize(ctx context.Context, text string) (*Result, error) {
	m.recordCall("Synthesize", text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return m.generate(text), nil
}

// generate produces the tone and per-character phoneme timings.
func (m *Mock) generate(text string) *Result {
	runes := []rune(text)
	rate := m.cfg.SampleRate
	durationSec := float64(len(runes)) * mockMSPerChar / 1000 / m.cfg.Speed
	n := int(float64(rate) * durationSec)

	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		samples[i] = 0.5 * math.Sin(2*math.Pi*mockToneHz*t)
	}

	// Fades reduce clicks when chunks are concatenated by the player.
	fade := int(mockFade.Seconds() * float64(rate))
	if fade*2 > n {
		fade = n / 20
	}
	for i := 0; i < fade; i++ {
		g := float64(i) / float64(fade)
		samples[i] *= g
		samples[n-1-i] *= g
	}

	var timings []align.PhonemeTiming
	if len(runes) > 0 {
		msPerChar := durationSec * 1000 / float64(len(runes))
		for i, r := range runes {
			if !unicode.IsLetter(r) {
				continue
			}
			timings = append(timings, align.PhonemeTiming{
				Label:   "/" + string(unicode.ToLower(r)) + "/",
				StartMS: float64(i) * msPerChar,
				EndMS:   float64(i+1) * msPerChar,
			})
		}
	}

	return &Result{Samples: samples, SampleRate: rate, Timings: timings}
}

// Ready always reports true; the mock needs no initialization.
func (m *Mock) Ready() bool {
	return true
}

// Name identifies the backend for the readiness probe.
func (m *Mock) Name() string {
	return "mock"
}

// Close releases nothing; the mock holds no resources.
func (m *Mock) Close() error {
	m.recordCall("Close", "")
	return nil
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock that always fails with the given error.
func WithError(err error) *Mock {
	m := NewMock()
	m.SynthesizeFunc = func(ctx context.Context, text string) (*Result, error) {
		return nil, WrapError("mock", err)
	}
	return m
}

// WithLatency wraps a mock to add artificial latency.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	inner := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text string) (*Result, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if inner != nil {
			return inner(ctx, text)
		}
		return m.generate(text), nil
	}
	return m
}

// Verify Mock implements Synthesizer at compile time.
var _ Synthesizer = (*Mock)(nil)
