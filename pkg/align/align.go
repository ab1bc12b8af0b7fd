// Package align derives character- and word-level timing data from a
// backend's phoneme timing stream. The distribution is proportional, not
// acoustic: durations are spread evenly over characters and by character
// count over words, which is what caption rendering needs and all the
// backend timings can support.
package align

import "strings"

// PhonemeTiming is one backend-reported sound unit. An empty Label
// denotes silence or punctuation. StartMS is non-decreasing across a
// sequence and EndMS >= StartMS within each record.
type PhonemeTiming struct {
	Label   string
	StartMS float64
	EndMS   float64
}

// CharAlignment maps one character to its playback offset.
type CharAlignment struct {
	Char       string
	StartMS    float64
	DurationMS float64
}

// WordAlignment maps one whitespace-delimited token to its playback
// offset. Punctuation stays attached to its word.
type WordAlignment struct {
	Word       string
	StartMS    float64
	DurationMS float64
}

// fallbackCharMS is used when the backend reports no timings at all.
const fallbackCharMS = 100

// TotalDurationMS returns the end time of the last timing record, or 0
// for an empty sequence.
func TotalDurationMS(timings []PhonemeTiming) float64 {
	if len(timings) == 0 {
		return 0
	}
	return timings[len(timings)-1].EndMS
}

// Chars distributes the total duration evenly across every character of
// text. With no timings it falls back to a fixed 100ms per character.
// Empty text yields an empty alignment.
func Chars(text string, timings []PhonemeTiming) []CharAlignment {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	charMS := float64(fallbackCharMS)
	if len(timings) > 0 {
		charMS = TotalDurationMS(timings) / float64(len(runes))
	}

	out := make([]CharAlignment, len(runes))
	for i, r := range runes {
		out[i] = CharAlignment{
			Char:       string(r),
			StartMS:    float64(i) * charMS,
			DurationMS: charMS,
		}
	}
	return out
}

// Words splits text on whitespace and distributes the total duration
// across the tokens in proportion to their character counts. Start
// times accumulate word durations in order. Empty text yields an empty
// alignment; zero total duration yields all-zero offsets, which is
// still a valid alignment.
func Words(text string, timings []PhonemeTiming) []WordAlignment {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	total := TotalDurationMS(timings)
	totalChars := 0
	for _, w := range words {
		totalChars += len([]rune(w))
	}

	out := make([]WordAlignment, len(words))
	currentMS := 0.0
	for i, w := range words {
		durationMS := 0.0
		if totalChars > 0 {
			durationMS = float64(len([]rune(w))) / float64(totalChars) * total
		}
		out[i] = WordAlignment{
			Word:       w,
			StartMS:    currentMS,
			DurationMS: durationMS,
		}
		currentMS += durationMS
	}
	return out
}
