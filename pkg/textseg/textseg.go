// Package textseg decides when accumulated streaming text is ready for
// synthesis. Text arrives incrementally and the decision is irreversible,
// so the policy is conservative: only a true sentence ending or the
// buffer-length bound triggers processing. Periods that belong to common
// abbreviations ("Dr.", "e.g.", "U.S.") are masked out before the
// sentence-ending scan so they never trigger on their own.
package textseg

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxBufferedChars is the latency bound: a buffer whose trimmed length
// exceeds this triggers processing regardless of punctuation.
const MaxBufferedChars = 100

// abbrevMask replaces a masked abbreviation. It contains no sentence
// ending punctuation so the scan below cannot match inside it.
const abbrevMask = "ABBREV"

// Abbreviations whose trailing period is not a sentence ending.
// Matching is case-insensitive and requires the literal period.
var abbreviations = []string{
	// Titles
	`Mr\.`, `Mrs\.`, `Ms\.`, `Dr\.`, `Prof\.`, `Rev\.`, `St\.`, `Mt\.`,
	// Name suffixes
	`Jr\.`, `Sr\.`, `II\.`, `III\.`,
	// Academic/professional degrees
	`PhD\.`, `MD\.`, `LLD\.`, `BA\.`, `BS\.`, `MA\.`, `MS\.`,
	// General
	`etc\.`, `vs\.`, `e\.g\.`, `i\.e\.`, `Inc\.`, `Corp\.`, `Ltd\.`, `Co\.`, `LLC\.`,
	// Geographic
	`U\.S\.`, `U\.K\.`, `N\.Y\.`, `L\.A\.`, `D\.C\.`,
	// Time
	`a\.m\.`, `p\.m\.`,
	// Units
	`in\.`, `ft\.`, `lb\.`, `oz\.`, `gal\.`, `min\.`, `sec\.`, `max\.`,
}

var abbrevPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(abbreviations, "|") + `)`)

// MaskAbbreviations replaces every abbreviation occurrence with a
// neutral token, leaving real sentence punctuation intact.
func MaskAbbreviations(text string) string {
	return abbrevPattern.ReplaceAllString(text, abbrevMask)
}

// ShouldProcess reports whether the buffered text is ready to
// synthesize: it contains a true sentence ending, or its trimmed length
// in characters exceeds MaxBufferedChars. An explicit flush or session
// close bypasses this check entirely.
func ShouldProcess(buffer string) bool {
	return hasSentenceEnding(buffer) ||
		utf8.RuneCountInString(strings.TrimSpace(buffer)) > MaxBufferedChars
}

// hasSentenceEnding reports whether buffer contains a sentence-ending
// mark that is not part of an abbreviation.
func hasSentenceEnding(buffer string) bool {
	masked := MaskAbbreviations(buffer)
	return strings.ContainsAny(masked, ".!?")
}
