// Package extract derives structured card attributes from raw OCR
// text. Every attribute has its own ordered rule chain; the first rule
// that matches wins and a chain with no match yields the Unknown
// sentinel instead of an error, so partial reads still produce a
// usable record.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Unknown marks an attribute no rule could recover.
const Unknown = "Unknown"

// Evolution stages, highest-priority token first in stageRules below.
const (
	StageBasic = "BASIC"
	StageOne   = "STAGE 1"
	StageTwo   = "STAGE 2"
	StageV     = "V"
	StageVStar = "VSTAR"
	StageVMax  = "VMAX"
	StageEX    = "EX"
	StageGX    = "GX"
)

// Attributes is the best-guess structured read of one card photo.
// SetID is only filled for promo cards whose era prefix pins the set
// directly; everything else resolves its set later via the set index.
type Attributes struct {
	Name            string `json:"name"`
	EvolutionStage  string `json:"evolutionStage"`
	CardNumber      string `json:"cardNumber"`
	TotalCardsInSet string `json:"totalCardsInSet"`
	SetID           string `json:"setId,omitempty"`
}

var (
	numberStampRE = regexp.MustCompile(`\b(\d{1,3})\s*/\s*(\d{1,3})\b`)
	damageTokenRE = regexp.MustCompile(`\b\d+0\+?\b`)

	stageRules = []struct {
		re    *regexp.Regexp
		stage string
	}{
		{regexp.MustCompile(`VMAX`), StageVMax},
		{regexp.MustCompile(`VSTAR`), StageVStar},
		{regexp.MustCompile(`\bGX\b`), StageGX},
		{regexp.MustCompile(`\bEX\b`), StageEX},
		{regexp.MustCompile(`\bV\b`), StageV},
		{regexp.MustCompile(`STAGE\s*2`), StageTwo},
		{regexp.MustCompile(`STAGE\s*1`), StageOne},
		{regexp.MustCompile(`BASIC`), StageBasic},
	}

	stageKeywords = []string{"VMAX", "VSTAR", "STAGE 2", "STAGE 1", "STAGE2", "STAGE1", "BASIC"}

	// Promo cards carry an era prefix instead of a number/total stamp;
	// the prefix pins the catalog set outright. Longest prefixes first
	// so HGSS is not swallowed by a shorter code.
	promoRules = []promoRule{
		newPromoRule("HGSS", "hsp"),
		newPromoRule("SWSH", "swshp"),
		newPromoRule("SVP", "svp"),
		newPromoRule("XY", "xyp"),
		newPromoRule("SM", "smp"),
		newPromoRule("BW", "bwp"),
		newPromoRule("DP", "dpp"),
	}
)

type promoRule struct {
	prefix string
	setID  string
	re     *regexp.Regexp
}

func newPromoRule(prefix, setID string) promoRule {
	return promoRule{
		prefix: prefix,
		setID:  setID,
		re:     regexp.MustCompile(`\b` + prefix + `\s?(\d{1,3})\b`),
	}
}

// Extract runs all rule chains over the OCR text. It is a pure
// function of its input and the vocabulary snapshot.
func Extract(text string, vocab *Vocabulary) Attributes {
	attrs := Attributes{
		Name:            Unknown,
		EvolutionStage:  Unknown,
		CardNumber:      Unknown,
		TotalCardsInSet: Unknown,
	}
	upper := strings.ToUpper(text)
	lines := upperLines(text)

	if name, ok := extractName(lines, vocab); ok {
		attrs.Name = name
	}
	if stage, ok := extractStage(upper); ok {
		attrs.EvolutionStage = stage
	}
	if number, total, ok := extractNumberStamp(upper); ok {
		attrs.CardNumber = number
		attrs.TotalCardsInSet = total
	} else if number, setID, ok := extractPromoNumber(upper); ok {
		attrs.CardNumber = number
		attrs.SetID = setID
	}
	return attrs
}

// upperLines normalizes the OCR text into trimmed uppercase lines,
// dropping empties.
func upperLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(strings.ToUpper(l))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// extractName applies the name rule chain: exact vocabulary line,
// vocabulary substring, then the structural fallbacks for names the
// vocabulary does not know.
func extractName(lines []string, vocab *Vocabulary) (string, bool) {
	entries := vocab.snapshot()

	for _, line := range lines {
		for _, e := range entries {
			if line == e.upper {
				return e.display, true
			}
		}
	}
	// OCR often glues prefixes or stage tokens onto the name line.
	for _, line := range lines {
		for _, e := range entries {
			if strings.Contains(line, e.upper) {
				return e.display, true
			}
		}
	}
	// Structural: the line after a stage keyword is usually the name.
	for i := 0; i < len(lines)-1; i++ {
		if !hasStageKeyword(lines[i]) {
			continue
		}
		if next := lines[i+1]; isNameLike(next) {
			return titleCase(next), true
		}
		break
	}
	// Structural: a short alphabetic line followed by rules-ish text.
	for i := 0; i < len(lines)-1; i++ {
		if !isNameLike(lines[i]) {
			continue
		}
		next := lines[i+1]
		if damageTokenRE.MatchString(next) || len(next) > 40 {
			return titleCase(lines[i]), true
		}
	}
	return "", false
}

func hasStageKeyword(line string) bool {
	for _, kw := range stageKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// isNameLike accepts short lines made of letters (plus the few
// punctuation marks card names use) and nothing else.
func isNameLike(line string) bool {
	if len(line) < 3 || len(line) >= 20 {
		return false
	}
	letters := 0
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == '\'' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return letters >= 3
}

// extractStage scans for stage tokens in fixed priority order. A card
// reciting its pre-evolution ("Evolves from ...") is never basic, so
// that marker forces a stage result even when the stage token itself
// was misread.
func extractStage(upper string) (string, bool) {
	evolves := strings.Contains(upper, "EVOLVES FROM")
	for _, rule := range stageRules {
		if !rule.re.MatchString(upper) {
			continue
		}
		if rule.stage == StageBasic && evolves {
			continue
		}
		return rule.stage, true
	}
	if evolves {
		// No readable stage token, but the marker alone rules out basic.
		return StageOne, true
	}
	return "", false
}

// extractNumberStamp finds the first printed "number/total" stamp. The
// left operand is normalized through a numeric round-trip to strip
// leading zeros; the right operand stays verbatim because it is a
// lookup key, not a number.
func extractNumberStamp(upper string) (number, total string, ok bool) {
	m := numberStampRE.FindStringSubmatch(upper)
	if m == nil {
		return "", "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", "", false
	}
	return strconv.Itoa(n), m[2], true
}

// extractPromoNumber matches an era prefix immediately followed by
// digits, e.g. "SWSH039" or "SM 210".
func extractPromoNumber(upper string) (number, setID string, ok bool) {
	for _, p := range promoRules {
		if m := p.re.FindStringSubmatch(upper); m != nil {
			return p.prefix + m[1], p.setID, true
		}
	}
	return "", "", false
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
