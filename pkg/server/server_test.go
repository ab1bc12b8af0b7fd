package server_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxkit/streamtts/pkg/engine"
	"github.com/voxkit/streamtts/pkg/server"
)

// resultPayload mirrors the outbound success message for decoding.
type resultPayload struct {
	Audio         string `json:"audio"`
	OriginalText  string `json:"original_text"`
	ProcessedText string `json:"processed_text"`
	Alignment     struct {
		Chars            []string `json:"chars"`
		CharStartTimesMS []int    `json:"char_start_times_ms"`
		CharDurationsMS  []int    `json:"char_durations_ms"`
	} `json:"alignment"`
	WordAlignment struct {
		Words            []string `json:"words"`
		WordStartTimesMS []int    `json:"word_start_times_ms"`
		WordDurationsMS  []int    `json:"word_durations_ms"`
	} `json:"word_alignment"`
	FullText         string `json:"full_text"`
	CurrentChunkText string `json:"current_chunk_text"`
	Error            string `json:"error"`
}

// startServer runs the service on an ephemeral port and returns its
// base address.
func startServer(t *testing.T, synth engine.Synthesizer) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := server.New(server.Config{
		Addr:             ln.Addr().String(),
		TargetSampleRate: 44100,
	}, synth)

	go func() {
		if err := srv.Serve(ln); err != nil {
			// Listener is closed by Shutdown; nothing to report.
			_ = err
		}
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	return ln.Addr().String()
}

// dial connects a websocket client to the service.
func dial(t *testing.T, addr string) *websocket.Conn {
	t.Helper()

	url := fmt.Sprintf("ws://%s/ws", addr)
	var conn *websocket.Conn
	var err error
	// The listener goroutine may not be accepting yet.
	for i := 0; i < 20; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	send(t, conn, map[string]string{"text": text})
}

// readResult reads one outbound message within the deadline.
func readResult(t *testing.T, conn *websocket.Conn) resultPayload {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var payload resultPayload
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("read: %v", err)
	}
	return payload
}

// expectSilence asserts no outbound message arrives within the window.
// The read timeout fails the connection's read side for good, so this
// must be the last read a test performs on conn.
func expectSilence(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(window))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no message, got %s", data)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected read timeout, got %v", err)
	}
}

func TestSentenceTriggersSingleResult(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "Hello Dr. Smith.")

	got := readResult(t, conn)
	if got.Error != "" {
		t.Fatalf("unexpected error: %s", got.Error)
	}
	if got.ProcessedText != "Hello Dr. Smith." {
		t.Errorf("processed_text = %q", got.ProcessedText)
	}
	if got.FullText != "Hello Dr. Smith." {
		t.Errorf("full_text = %q", got.FullText)
	}
	if got.CurrentChunkText != got.ProcessedText {
		t.Errorf("current_chunk_text = %q", got.CurrentChunkText)
	}
	if got.OriginalText != "Hello Dr. Smith." {
		t.Errorf("original_text = %q", got.OriginalText)
	}

	raw, err := base64.StdEncoding.DecodeString(got.Audio)
	if err != nil {
		t.Fatalf("audio is not valid base64: %v", err)
	}
	if len(raw) == 0 || len(raw)%2 != 0 {
		t.Errorf("audio payload is not 16-bit PCM: %d bytes", len(raw))
	}

	n := len(got.Alignment.Chars)
	if n != len([]rune(got.ProcessedText)) {
		t.Errorf("expected one char entry per character, got %d", n)
	}
	if len(got.Alignment.CharStartTimesMS) != n || len(got.Alignment.CharDurationsMS) != n {
		t.Error("char alignment arrays are not parallel")
	}
	if len(got.WordAlignment.Words) != 3 {
		t.Errorf("expected 3 words, got %v", got.WordAlignment.Words)
	}

	// Only one message for one sentence.
	expectSilence(t, conn, 300*time.Millisecond)
}

func TestAbbreviationDoesNotTrigger(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "Dr. Smith arrived")
	// The session loop is strictly ordered, so if the abbreviation had
	// triggered on its own the first result would carry only
	// "Dr. Smith arrived" instead of the completed sentence.
	sendText(t, conn, " and left.")
	got := readResult(t, conn)
	if got.ProcessedText != "Dr. Smith arrived and left." {
		t.Errorf("processed_text = %q", got.ProcessedText)
	}

	// A flush forces buffered text out without punctuation.
	sendText(t, conn, "More to come")
	send(t, conn, map[string]bool{"flush": true})
	got = readResult(t, conn)
	if got.ProcessedText != "More to come" {
		t.Errorf("processed_text = %q", got.ProcessedText)
	}
}

func TestMathNormalizationEndToEnd(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "5 - 3 = 2")
	send(t, conn, map[string]bool{"flush": true})

	got := readResult(t, conn)
	if !strings.Contains(got.ProcessedText, "5 minus 3 equals 2") {
		t.Errorf("processed_text = %q, want it to contain %q", got.ProcessedText, "5 minus 3 equals 2")
	}
	if got.OriginalText != "5 - 3 = 2" {
		t.Errorf("original_text = %q", got.OriginalText)
	}
}

func TestLongBufferTriggersWithoutPunctuation(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, strings.Repeat("lots of words ", 8)) // 112 chars

	got := readResult(t, conn)
	if got.Error != "" {
		t.Fatalf("unexpected error: %s", got.Error)
	}
	if !strings.Contains(got.ProcessedText, "lots of words") {
		t.Errorf("processed_text = %q", got.ProcessedText)
	}
}

func TestTranscriptAccumulatesAcrossChunks(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "One.")
	first := readResult(t, conn)
	if first.FullText != "One." {
		t.Errorf("first full_text = %q", first.FullText)
	}

	sendText(t, conn, " Two.")
	second := readResult(t, conn)
	if second.FullText != "One. Two." {
		t.Errorf("second full_text = %q", second.FullText)
	}
	if second.ProcessedText != "Two." {
		t.Errorf("second processed_text = %q", second.ProcessedText)
	}
}

func TestResetClearsTranscript(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "Before.")
	readResult(t, conn)

	send(t, conn, map[string]bool{"reset": true})
	sendText(t, conn, "After.")
	got := readResult(t, conn)
	if got.FullText != "After." {
		t.Errorf("full_text after reset = %q", got.FullText)
	}
}

func TestCloseWithEmptyBuffer(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "")

	// No outbound message; the server closes the connection.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected connection close, got message %s", data)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		t.Fatal("connection was not closed")
	}
}

func TestCloseFlushesRemainingText(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "unfinished thought")
	sendText(t, conn, "")

	got := readResult(t, conn)
	if got.ProcessedText != "unfinished thought" {
		t.Errorf("processed_text = %q", got.ProcessedText)
	}
}

func TestMalformedJSONKeepsChannelOpen(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := readResult(t, conn)
	if got.Error != "Invalid JSON format" {
		t.Errorf("error = %q", got.Error)
	}

	// The session still works afterwards.
	sendText(t, conn, "Still alive.")
	got = readResult(t, conn)
	if got.ProcessedText != "Still alive." {
		t.Errorf("processed_text = %q", got.ProcessedText)
	}
}

func TestUnrecognizedShapeIsIgnored(t *testing.T) {
	addr := startServer(t, engine.NewMock())
	conn := dial(t, addr)

	// Objects with no recognized fields and valid JSON that is not an
	// object are both ignored without an error message.
	send(t, conn, map[string]any{"bogus": true})
	for _, payload := range []string{`"hello"`, `[1, 2]`, `42`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			t.Fatalf("write %s: %v", payload, err)
		}
	}

	// The session loop is strictly ordered: if any of the above had
	// produced output, it would arrive before this sentence's result.
	sendText(t, conn, "Still alive.")
	got := readResult(t, conn)
	if got.Error != "" {
		t.Fatalf("unexpected error message %q", got.Error)
	}
	if got.ProcessedText != "Still alive." {
		t.Errorf("processed_text = %q", got.ProcessedText)
	}
	expectSilence(t, conn, 300*time.Millisecond)
}

func TestSynthesisErrorKeepsBuffer(t *testing.T) {
	calls := 0
	mock := engine.NewMock()
	mock.SynthesizeFunc = func(ctx context.Context, text string) (*engine.Result, error) {
		calls++
		if calls == 1 {
			return nil, engine.WrapError("mock", errors.New("inference blew up"))
		}
		return &engine.Result{
			Samples:    make([]float64, 2400),
			SampleRate: 24000,
		}, nil
	}

	addr := startServer(t, mock)
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "This one fails.")
	got := readResult(t, conn)
	if got.Error != "TTS processing failed" {
		t.Fatalf("expected synthesis error, got %+v", got)
	}

	// The buffer was preserved: a flush retries the same text.
	send(t, conn, map[string]bool{"flush": true})
	got = readResult(t, conn)
	if got.Error != "" {
		t.Fatalf("retry failed: %s", got.Error)
	}
	if got.OriginalText != "This one fails." {
		t.Errorf("original_text = %q, buffer was not preserved", got.OriginalText)
	}
}

func TestEmptyBackendOutputIsError(t *testing.T) {
	mock := engine.NewMock()
	mock.SynthesizeFunc = func(ctx context.Context, text string) (*engine.Result, error) {
		return &engine.Result{SampleRate: 24000}, nil
	}

	addr := startServer(t, mock)
	conn := dial(t, addr)

	sendText(t, conn, " ")
	sendText(t, conn, "No audio for this.")
	got := readResult(t, conn)
	if got.Error != "TTS processing failed" {
		t.Errorf("expected error for empty backend output, got %+v", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	addr := startServer(t, engine.NewMock())

	var resp *http.Response
	var err error
	for i := 0; i < 20; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/health", addr))
		if err == nil {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var health struct {
		Status         string `json:"status"`
		EngineReady    bool   `json:"engine_ready"`
		Engine         string `json:"engine"`
		ActiveSessions int    `json:"active_sessions"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode health: %v (%s)", err, body)
	}
	if health.Status != "healthy" {
		t.Errorf("status = %q", health.Status)
	}
	if !health.EngineReady {
		t.Error("engine_ready = false")
	}
	if health.Engine != "mock" {
		t.Errorf("engine = %q", health.Engine)
	}
	if health.ActiveSessions != 0 {
		t.Errorf("active_sessions = %d with no connections", health.ActiveSessions)
	}

	// A live websocket connection shows up in the count.
	conn := dial(t, addr)
	defer conn.Close()
	sendText(t, conn, " ")

	deadline := time.Now().Add(time.Second)
	for {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err != nil {
			t.Fatalf("health request: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err := json.Unmarshal(body, &health); err != nil {
			t.Fatalf("decode health: %v (%s)", err, body)
		}
		if health.ActiveSessions == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("active_sessions = %d, want 1", health.ActiveSessions)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	// A slow backend call for one session must not block another.
	slow := engine.WithLatency(engine.NewMock(), 400*time.Millisecond)
	addr := startServer(t, slow)

	connA := dial(t, addr)
	connB := dial(t, addr)

	sendText(t, connA, " ")
	sendText(t, connB, " ")

	start := time.Now()
	sendText(t, connA, "Slow sentence one.")
	sendText(t, connB, "Slow sentence two.")

	gotB := readResult(t, connB)
	if gotB.Error != "" {
		t.Fatalf("session B failed: %s", gotB.Error)
	}
	// B finished while A's pass was also in flight: total elapsed stays
	// well under two serialized passes.
	if elapsed := time.Since(start); elapsed > 700*time.Millisecond {
		t.Errorf("sessions appear serialized: %v elapsed", elapsed)
	}

	gotA := readResult(t, connA)
	if gotA.ProcessedText != "Slow sentence one." {
		t.Errorf("session A processed_text = %q", gotA.ProcessedText)
	}
}
