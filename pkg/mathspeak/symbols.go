package mathspeak

import "strings"

// symbolPairs maps mathematical symbols to their spoken phrases.
// Order matters: multi-rune symbols must precede their prefixes
// ("<<" before "<") so the single-pass replacer prefers them.
// The hyphen is absent on purpose; hyphen disambiguation runs earlier
// and plain compound-word hyphens must survive.
var symbolPairs = []string{
	// Comparison operators (multi-rune first)
	"<<", " much less than ",
	">>", " much greater than ",
	"≤", " less than or equal to ",
	"≥", " greater than or equal to ",
	"<", " less than ",
	">", " greater than ",

	// Basic operators
	"+", " plus ",
	"×", " times ",
	"∗", " times ",
	"*", " times ",
	"÷", " divided by ",
	"/", " divided by ",
	"=", " equals ",
	"≠", " not equal to ",
	"≈", " approximately equals ",
	"≡", " identical to ",

	// Powers and roots
	"²", " squared",
	"³", " cubed",
	"⁴", " to the fourth power",
	"⁵", " to the fifth power",
	"⁶", " to the sixth power",
	"⁷", " to the seventh power",
	"⁸", " to the eighth power",
	"⁹", " to the ninth power",
	"√", " square root of ",
	"∛", " cube root of ",
	"∜", " fourth root of ",

	// Greek letters
	"α", " alpha ",
	"β", " beta ",
	"γ", " gamma ",
	"δ", " delta ",
	"ε", " epsilon ",
	"ζ", " zeta ",
	"η", " eta ",
	"θ", " theta ",
	"ι", " iota ",
	"κ", " kappa ",
	"λ", " lambda ",
	"μ", " mu ",
	"ν", " nu ",
	"ξ", " xi ",
	"ο", " omicron ",
	"π", " pi ",
	"ρ", " rho ",
	"σ", " sigma ",
	"τ", " tau ",
	"υ", " upsilon ",
	"φ", " phi ",
	"χ", " chi ",
	"ψ", " psi ",
	"ω", " omega ",

	// Capital Greek letters
	"Α", " capital alpha ",
	"Β", " capital beta ",
	"Γ", " capital gamma ",
	"Δ", " capital delta ",
	"Ε", " capital epsilon ",
	"Ζ", " capital zeta ",
	"Η", " capital eta ",
	"Θ", " capital theta ",
	"Ι", " capital iota ",
	"Κ", " capital kappa ",
	"Λ", " capital lambda ",
	"Μ", " capital mu ",
	"Ν", " capital nu ",
	"Ξ", " capital xi ",
	"Ο", " capital omicron ",
	"Π", " capital pi ",
	"Ρ", " capital rho ",
	"Σ", " capital sigma ",
	"Τ", " capital tau ",
	"Υ", " capital upsilon ",
	"Φ", " capital phi ",
	"Χ", " capital chi ",
	"Ψ", " capital psi ",
	"Ω", " capital omega ",

	// Special constants
	"∞", " infinity ",
	"ℯ", " e ",
	"ℎ", " h ",
	"ℏ", " h bar ",
	"ℵ", " aleph ",

	// Set theory and logic
	"∈", " is in ",
	"∉", " is not in ",
	"⊆", " is a subset of or equal to ",
	"⊇", " is a superset of or equal to ",
	"⊂", " is a subset of ",
	"⊃", " is a superset of ",
	"∪", " union ",
	"∩", " intersection ",
	"∅", " empty set ",
	"∀", " for all ",
	"∃", " there exists ",
	"∄", " there does not exist ",
	"¬", " not ",
	"∧", " and ",
	"∨", " or ",
	"⊕", " exclusive or ",

	// Calculus and analysis
	"∬", " double integral ",
	"∭", " triple integral ",
	"∮", " contour integral ",
	"∫", " integral ",
	"∂", " partial derivative ",
	"∇", " nabla ",
	"∆", " delta ",
	"∑", " sum ",
	"∏", " product ",
	"∐", " coproduct ",

	// Arrows
	"←", " left arrow ",
	"→", " right arrow ",
	"↑", " up arrow ",
	"↓", " down arrow ",
	"↔", " left right arrow ",
	"↕", " up down arrow ",
	"⇐", " left double arrow ",
	"⇒", " right double arrow ",
	"⇑", " up double arrow ",
	"⇓", " down double arrow ",
	"⇔", " left right double arrow ",

	// Miscellaneous
	"°", " degrees ",
	"‴", " triple prime ",
	"″", " double prime ",
	"′", " prime ",
	"∝", " proportional to ",
	"∟", " right angle ",
	"∠", " angle ",
	"∥", " parallel to ",
	"⊥", " perpendicular to ",
	"±", " plus or minus ",
	"∓", " minus or plus ",
	"∴", " therefore ",
	"∵", " because ",
	"∷", " as ",
	"∶", " ratio ",
	"‰", " permille ",
	"%", " percent ",
}

// symbolReplacer performs the substitutions in one pass so replacement
// output is never rescanned.
var symbolReplacer = strings.NewReplacer(symbolPairs...)

func replaceSymbols(text string) string {
	return symbolReplacer.Replace(text)
}
