package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"sync"

	"github.com/voxkit/streamtts/pkg/align"
)

// Proc runs an external model runner as the speech backend. One
// subprocess is spawned per synthesis call: the request goes to stdin
// as JSON, the response comes back on stdout. The runner owns the model
// weights and inference; this adapter owns the wire format.
type Proc struct {
	cfg    *Config
	logger *slog.Logger

	// mu serializes subprocess runs; the model runner is assumed to be
	// single-tenant. Session loops already serialize per session, this
	// guards cross-session overlap.
	mu sync.Mutex

	ready bool
}

// procRequest is the JSON request written to the runner's stdin.
type procRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	Speed      float64 `json:"speed"`
	SampleRate int     `json:"sample_rate"`
}

// procTiming is one phoneme timing in the runner's response.
type procTiming struct {
	Phoneme string  `json:"phoneme"`
	StartMS float64 `json:"start_ms"`
	EndMS   float64 `json:"end_ms"`
}

// procResponse is the JSON response read from the runner's stdout.
// Samples are float32 little-endian, base64 encoded.
type procResponse struct {
	SamplesBase64 string       `json:"samples_base64"`
	Timings       []procTiming `json:"timings"`
	Error         string       `json:"error,omitempty"`
}

// NewProc creates a subprocess-backed synthesizer and probes the runner
// once so startup fails fast when the command is missing or broken.
func NewProc(opts ...Option) (*Proc, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if len(cfg.Command) == 0 {
		return nil, ErrNoCommand
	}
	if _, err := exec.LookPath(cfg.Command[0]); err != nil {
		return nil, WrapError("proc", fmt.Errorf("model runner %q: %w", cfg.Command[0], err))
	}

	p := &Proc{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "engine.proc"),
	}

	// Warm-up probe: load the model once so the first session does not
	// pay the cold start, and surface init failures at construction.
	probeCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if _, err := p.run(probeCtx, "warm up"); err != nil {
		return nil, WrapError("proc", fmt.Errorf("probe synthesis: %w", err))
	}
	p.ready = true
	p.logger.Info("model runner ready", "command", cfg.Command[0], "voice", cfg.Voice)

	return p, nil
}

// Synthesize converts text to audio via the model runner.
func (p *Proc) Synthesize(ctx context.Context, text string) (*Result, error) {
	if !p.Ready() {
		return nil, WrapError("proc", ErrNotReady)
	}
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	return p.run(ctx, text)
}

// run executes one runner subprocess and decodes its response.
func (p *Proc) run(ctx context.Context, text string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req, err := json.Marshal(procRequest{
		Text:       text,
		Voice:      p.cfg.Voice,
		Speed:      p.cfg.Speed,
		SampleRate: p.cfg.SampleRate,
	})
	if err != nil {
		return nil, WrapError("proc", err)
	}

	cmd := exec.CommandContext(ctx, p.cfg.Command[0], p.cfg.Command[1:]...)
	cmd.Stdin = bytes.NewReader(req)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapError("proc", ctxErr)
		}
		return nil, WrapError("proc", fmt.Errorf("model runner: %w (stderr: %s)", err, stderr.String()))
	}

	var resp procResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, WrapError("proc", fmt.Errorf("decode response: %w", err))
	}
	if resp.Error != "" {
		return nil, WrapError("proc", fmt.Errorf("model runner: %s", resp.Error))
	}

	samples, err := decodeSamples(resp.SamplesBase64)
	if err != nil {
		return nil, WrapError("proc", err)
	}

	timings := make([]align.PhonemeTiming, len(resp.Timings))
	for i, t := range resp.Timings {
		timings[i] = align.PhonemeTiming{Label: t.Phoneme, StartMS: t.StartMS, EndMS: t.EndMS}
	}

	return &Result{Samples: samples, SampleRate: p.cfg.SampleRate, Timings: timings}, nil
}

// decodeSamples unpacks base64 float32 little-endian samples.
func decodeSamples(encoded string) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("decode samples: length %d not a multiple of 4", len(raw))
	}
	samples := make([]float64, len(raw)/4)
	for i := range samples {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		samples[i] = float64(math.Float32frombits(bits))
	}
	return samples, nil
}

// Ready reports whether the warm-up probe succeeded.
func (p *Proc) Ready() bool {
	return p.ready
}

// Name identifies the backend for the readiness probe.
func (p *Proc) Name() string {
	return "proc"
}

// Close releases nothing persistent; runners are per-call.
func (p *Proc) Close() error {
	p.ready = false
	return nil
}

// Verify Proc implements Synthesizer at compile time.
var _ Synthesizer = (*Proc)(nil)
