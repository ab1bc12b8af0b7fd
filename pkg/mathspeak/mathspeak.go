// Package mathspeak converts symbolic and mathematical notation into
// speakable English. Normalize is a fixed, ordered pipeline of pure text
// rewrites; each rule operates on the previous rule's output, so the
// order is part of the contract. The pipeline is not idempotent before
// the final whitespace pass (a second run would re-trigger symbol and
// bracket substitutions), so callers invoke it exactly once per unit of
// text.
package mathspeak

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	fractionRe   = regexp.MustCompile(`(\d+)/(\d+)`)
	caretPowerRe = regexp.MustCompile(`([a-zA-Z0-9]+)\^([a-zA-Z0-9]+)`)
	subscriptRe  = regexp.MustCompile(`([a-zA-Z0-9]+)_([a-zA-Z0-9]+)`)
	scientificRe = regexp.MustCompile(`([0-9.]+)[eE]([+-]?[0-9]+)`)

	// Hyphen disambiguation, in precedence order. Compound-word hyphens
	// ("well-known") match none of these and are left untouched.
	digitMinusRe  = regexp.MustCompile(`\b(\d+)\s*-\s*(\d+)\b`)
	letterMinusRe = regexp.MustCompile(`\b([a-zA-Z])\s*-\s*([a-zA-Z0-9])\b`)
	spacedMinusRe = regexp.MustCompile(`\s-\s`)

	// LaTeX command rewrites. Arguments are single brace groups.
	latexFracRe    = regexp.MustCompile(`\\frac\{([^}]+)\}\{([^}]+)\}`)
	latexNthRootRe = regexp.MustCompile(`\\sqrt\[([^]]+)\]\{([^}]+)\}`)
	latexSqrtRe    = regexp.MustCompile(`\\sqrt\{([^}]+)\}`)
	latexPowerRe   = regexp.MustCompile(`([a-zA-Z0-9]+)\^\{([^}]+)\}`)
	latexSubRe     = regexp.MustCompile(`([a-zA-Z0-9]+)_\{([^}]+)\}`)
	latexSumRe     = regexp.MustCompile(`\\sum_\{([^}]+)\}\^\{([^}]+)\}`)
	latexIntRe     = regexp.MustCompile(`\\int_\{([^}]+)\}\^\{([^}]+)\}`)
	latexLimRe     = regexp.MustCompile(`\\lim_\{([^}]+)\\to\s*([^}]+)\}`)
	latexCmdRe     = regexp.MustCompile(`\\[a-zA-Z]+`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// bracketReplacer spells out grouping symbols, padded with spaces so
// they never fuse with adjacent words.
var bracketReplacer = strings.NewReplacer(
	"(", " open parenthesis ",
	")", " close parenthesis ",
	"[", " open bracket ",
	"]", " close bracket ",
	"{", " open brace ",
	"}", " close brace ",
)

// Normalize converts mathematical notation in text to its spoken form.
// LaTeX commands are rewritten before bracket spelling so that brace
// arguments are still parseable when their rules run; everything else
// follows the rule order below.
func Normalize(text string) string {
	out := expandFractions(text)
	out = expandCaretPowers(out)
	out = expandSubscripts(out)
	out = rewriteLaTeX(out)
	out = spellBrackets(out)
	out = expandScientific(out)
	out = disambiguateHyphens(out)
	out = replaceSymbols(out)
	return collapseWhitespace(out)
}

// expandFractions rewrites digit/digit as "over" ("3/4" -> "3 over 4").
// Non-numeric slashes are left for the symbol table ("divided by").
func expandFractions(text string) string {
	return fractionRe.ReplaceAllString(text, "$1 over $2")
}

// expandCaretPowers rewrites caret exponents ("x^2", "10^n").
func expandCaretPowers(text string) string {
	return caretPowerRe.ReplaceAllString(text, "$1 to the power of $2")
}

// expandSubscripts rewrites underscore subscripts ("x_1", "H_2O").
func expandSubscripts(text string) string {
	return subscriptRe.ReplaceAllString(text, "$1 subscript $2")
}

func spellBrackets(text string) string {
	return bracketReplacer.Replace(text)
}

// expandScientific rewrites scientific notation ("1.23e+5", "4.56E-3").
func expandScientific(text string) string {
	return scientificRe.ReplaceAllString(text, "$1 times 10 to the power of $2")
}

// disambiguateHyphens converts hyphens that act as minus signs. The
// rules apply in precedence order: digit-digit, single-letter-operand,
// then a hyphen spaced on both sides. "5 - 3" is consumed by the digit
// rule before the spaced rule ever sees it.
func disambiguateHyphens(text string) string {
	out := digitMinusRe.ReplaceAllString(text, "$1 minus $2")
	out = letterMinusRe.ReplaceAllString(out, "$1 minus $2")
	return spacedMinusRe.ReplaceAllString(out, " minus ")
}

// rewriteLaTeX converts the supported LaTeX commands to spoken phrases
// and deletes any command token that remains.
func rewriteLaTeX(text string) string {
	out := latexFracRe.ReplaceAllString(text, "$1 over $2")
	out = latexNthRootRe.ReplaceAllString(out, "$1 th root of $2")
	out = latexSqrtRe.ReplaceAllString(out, "square root of $1")
	out = latexSumRe.ReplaceAllString(out, "sum from $1 to $2")
	out = latexIntRe.ReplaceAllString(out, "integral from $1 to $2")
	out = latexLimRe.ReplaceAllString(out, "limit as $1 approaches $2")
	out = latexPowerRe.ReplaceAllString(out, "$1 to the power of $2")
	out = latexSubRe.ReplaceAllString(out, "$1 subscript $2")
	return latexCmdRe.ReplaceAllString(out, "")
}

// collapseWhitespace folds whitespace runs to single spaces, trims, and
// drops any control characters. Idempotent on re-application.
func collapseWhitespace(text string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(out, " "))
}
