package server

// inboundMessage is one client message on the duplex channel. Text is a
// pointer so the init marker (" "), the close marker ("") and an absent
// field stay distinguishable.
type inboundMessage struct {
	Text  *string `json:"text,omitempty"`
	Flush bool    `json:"flush,omitempty"`
	Reset bool    `json:"reset,omitempty"`
}

// charAlignmentPayload carries character timing data in the parallel
// array layout clients consume.
type charAlignmentPayload struct {
	Chars            []string `json:"chars"`
	CharStartTimesMS []int    `json:"char_start_times_ms"`
	CharDurationsMS  []int    `json:"char_durations_ms"`
}

// wordAlignmentPayload carries word timing data.
type wordAlignmentPayload struct {
	Words            []string `json:"words"`
	WordStartTimesMS []int    `json:"word_start_times_ms"`
	WordDurationsMS  []int    `json:"word_durations_ms"`
}

// resultMessage is one successful synthesis pass.
type resultMessage struct {
	// Audio is base64 16-bit mono PCM at the configured target rate.
	Audio         string               `json:"audio"`
	OriginalText  string               `json:"original_text"`
	ProcessedText string               `json:"processed_text"`
	Alignment     charAlignmentPayload `json:"alignment"`
	WordAlignment wordAlignmentPayload `json:"word_alignment"`
	// FullText is the session's cumulative transcript, so the client
	// can rebuild captions across chunks.
	FullText         string `json:"full_text"`
	CurrentChunkText string `json:"current_chunk_text"`
}

// errorMessage reports a failure without closing the channel.
type errorMessage struct {
	Error string `json:"error"`
}
