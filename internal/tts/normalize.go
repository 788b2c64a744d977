package tts

import "strings"

// abbreviations maps common address abbreviations to their spoken form so the
// synthesizer does not read "St" as "ess tee". Matching is case-sensitive.
var abbreviations = map[string]string{
	"St":   "Street",
	"Ave":  "Avenue",
	"Blvd": "Boulevard",
	"Dr":   "Drive",
	"Rd":   "Road",
	"Ln":   "Lane",
	"Ct":   "Court",
	"Pl":   "Place",
}

// ExpandAbbreviations rewrites address abbreviations at token boundaries.
// Whitespace, commas and the end of the string delimit tokens; anything else
// glued to the word defeats the match, so "St." and "Stuart" are left alone.
func ExpandAbbreviations(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && !isBoundary(text[i]) {
			continue
		}
		if i > start {
			b.WriteString(expandToken(text[start:i]))
		}
		if i < len(text) {
			b.WriteByte(text[i])
		}
		start = i + 1
	}
	return b.String()
}

func expandToken(tok string) string {
	if exp, ok := abbreviations[tok]; ok {
		return exp
	}
	return tok
}

func isBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ','
}
