package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/voxkit/streamtts/internal/log"
	"github.com/voxkit/streamtts/pkg/align"
	"github.com/voxkit/streamtts/pkg/audio"
	"github.com/voxkit/streamtts/pkg/engine"
	"github.com/voxkit/streamtts/pkg/mathspeak"
	"github.com/voxkit/streamtts/pkg/textseg"
)

// handleWS runs one session's protocol loop. Inbound messages are
// processed strictly in arrival order; while a synthesis pass is
// outstanding the loop does not advance, which is the per-session
// backpressure.
func (s *Server) handleWS(c *websocket.Conn) {
	id := uuid.NewString()
	logger := s.logger.With(log.Session(id))

	if err := s.registry.Connect(id); err != nil {
		logger.Error("session registration failed", "error", err)
		return
	}
	logger.Info("session connected")

	// Cancelled on return so an in-flight backend call for this
	// session is abandoned on disconnect.
	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()
		s.registry.Disconnect(id)
		logger.Info("session released")
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			logger.Info("client disconnected")
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Valid JSON of the wrong type ("hello", [1,2]) is treated
			// like an object with no recognized fields, not an error.
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				logger.Warn("unrecognized message shape", "payload", string(data))
				continue
			}
			logger.Warn("malformed payload", "error", err)
			if writeErr := c.WriteJSON(errorMessage{Error: "Invalid JSON format"}); writeErr != nil {
				logger.Error("error write failed", "error", writeErr)
				return
			}
			continue
		}

		switch {
		case msg.Text != nil:
			switch *msg.Text {
			case " ":
				// Init marker: fresh stream, captions restart.
				logger.Info("session initialized")
				s.registry.Initialize(id)

			case "":
				// Close marker: flush what remains, then end the session.
				logger.Info("session closing")
				s.processBuffer(ctx, c, id, logger)
				return

			default:
				s.registry.Append(id, *msg.Text)
				if textseg.ShouldProcess(s.registry.Buffer(id)) {
					s.processBuffer(ctx, c, id, logger)
				}
			}

		case msg.Flush:
			logger.Info("flush requested")
			s.processBuffer(ctx, c, id, logger)

		case msg.Reset:
			logger.Info("reset requested")
			s.registry.Initialize(id)

		default:
			logger.Warn("unrecognized message shape", "payload", string(data))
		}
	}
}

// processBuffer runs one synthesis pass over the session's pending
// text: normalize, synthesize, align, encode, emit. The buffer is
// cleared only after the result message is written; on a backend
// failure the buffer is preserved verbatim and not retried until the
// next trigger.
func (s *Server) processBuffer(ctx context.Context, c *websocket.Conn, id string, logger *slog.Logger) {
	raw := s.registry.Buffer(id)
	if strings.TrimSpace(raw) == "" {
		return
	}

	start := time.Now()
	processed := mathspeak.Normalize(raw)
	if processed == "" {
		return
	}

	result, err := s.synth.Synthesize(ctx, processed)
	if err != nil {
		logger.Error("synthesis failed", "error", err)
		if writeErr := c.WriteJSON(errorMessage{Error: "TTS processing failed"}); writeErr != nil {
			logger.Error("error write failed", "error", writeErr)
		}
		return
	}
	if result.Empty() {
		logger.Error("synthesis failed", "error", engine.WrapError(s.synth.Name(), engine.ErrEmptyOutput))
		if writeErr := c.WriteJSON(errorMessage{Error: "TTS processing failed"}); writeErr != nil {
			logger.Error("error write failed", "error", writeErr)
		}
		return
	}

	encoder := audio.NewEncoder(result.SampleRate, s.cfg.TargetSampleRate)
	chars := align.Chars(processed, result.Timings)
	words := align.Words(processed, result.Timings)

	out := resultMessage{
		Audio:            encoder.EncodeBase64(result.Samples),
		OriginalText:     raw,
		ProcessedText:    processed,
		Alignment:        charPayload(chars),
		WordAlignment:    wordPayload(words),
		FullText:         s.registry.Transcript(id),
		CurrentChunkText: processed,
	}

	if err := c.WriteJSON(out); err != nil {
		// Transport failure is fatal to this session only; the read
		// loop will observe it next and release the session.
		logger.Error("result write failed", "error", err)
		return
	}

	s.registry.ClearBuffer(id)
	logger.Info("synthesis pass complete",
		"chars", len(chars),
		"words", len(words),
		"audio_ms", int(result.DurationMS()),
		"took_ms", time.Since(start).Milliseconds())
}

// charPayload converts alignments to the parallel-array wire layout.
func charPayload(chars []align.CharAlignment) charAlignmentPayload {
	p := charAlignmentPayload{
		Chars:            make([]string, len(chars)),
		CharStartTimesMS: make([]int, len(chars)),
		CharDurationsMS:  make([]int, len(chars)),
	}
	for i, c := range chars {
		p.Chars[i] = c.Char
		p.CharStartTimesMS[i] = int(c.StartMS)
		p.CharDurationsMS[i] = int(c.DurationMS)
	}
	return p
}

func wordPayload(words []align.WordAlignment) wordAlignmentPayload {
	p := wordAlignmentPayload{
		Words:            make([]string, len(words)),
		WordStartTimesMS: make([]int, len(words)),
		WordDurationsMS:  make([]int, len(words)),
	}
	for i, w := range words {
		p.Words[i] = w.Word
		p.WordStartTimesMS[i] = int(w.StartMS)
		p.WordDurationsMS[i] = int(w.DurationMS)
	}
	return p
}
