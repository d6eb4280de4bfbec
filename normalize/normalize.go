// Package normalize turns free-form Spanish answers into typed slot values.
// Every parser is a pure function of the input text: it returns the value
// and ok=false when no usable value was found, and never returns an error.
// The dialogue controller treats ok=false as "re-ask the same question".
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rentmatch/intake/listing"
)

// Normalize parses raw text according to the field kind. It is the single
// entry point for both conversational answers and direct edits from the
// ficha, so typed input and chat input are normalized identically.
func Normalize(kind listing.Kind, raw string) (any, bool) {
	switch kind {
	case listing.KindCurrency, listing.KindCount:
		return firstOK(Number(raw))
	case listing.KindFloor:
		return firstOK(Floor(raw))
	case listing.KindBool:
		return firstOK(Bool(raw))
	case listing.KindDate:
		return firstOK(Date(raw))
	case listing.KindText:
		return firstOK(Text(raw))
	default:
		return nil, false
	}
}

func firstOK[T any](v T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

// numberPattern matches the first plausible numeric token: either digit
// groups of exactly three separated by '.' or whitespace, or a bare digit
// run, optionally followed by a decimal part after ',' or '.'.
var (
	numberPattern  = regexp.MustCompile(`(\d{1,3}(?:[.\s]\d{3})+|\d+)(?:[.,]\d+)?`)
	groupSeparator = regexp.MustCompile(`[.\s]`)
)

// Number extracts the first integer in the text. Thousand separators may be
// written as '.' or whitespace ("1.200", "1 200"); a trailing ','-decimal
// is truncated ("2500,50" -> 2500).
func Number(text string) (int, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	token := numberPattern.FindString(text)
	if token == "" {
		return 0, false
	}
	token = groupSeparator.ReplaceAllString(token, "")
	token, _, _ = strings.Cut(token, ",")
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Floor parses a floor number. When there is no numeric token it falls back
// to the usual Spanish floor names: "bajo" is 0 and "principal" is 1.
func Floor(text string) (int, bool) {
	if n, ok := Number(text); ok {
		return n, true
	}
	low := strings.ToLower(text)
	if strings.Contains(low, "bajo") {
		return 0, true
	}
	if strings.Contains(low, "principal") {
		return 1, true
	}
	return 0, false
}

var (
	affirmativeWords = map[string]struct{}{
		"si": {}, "sí": {}, "yes": {}, "true": {}, "con": {},
		"tiene": {}, "hay": {}, "permitido": {}, "permiten": {},
	}
	negativeWords = map[string]struct{}{
		"no": {}, "false": {}, "sin": {},
	}
	negationCues    = []string{"no ", " sin", "no.", "no,", "no\t"}
	affirmativeCues = []string{"sí", "si"}
)

// Bool turns sí/no style answers into a boolean. Precedence is fixed:
// a negation cue wins unless an affirmative cue co-occurs; otherwise the
// first whole-word match against the affirmative set, then against the
// negative set; no match at all is absent. This is what resolves answers
// like "no tiene ascensor" (false) versus "sí, con ascensor" (true).
func Bool(text string) (bool, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false, false
	}
	if containsAny(t, negationCues) && !containsAny(t, affirmativeCues) {
		return false, true
	}
	for _, w := range strings.Fields(t) {
		if _, ok := affirmativeWords[w]; ok {
			return true, true
		}
	}
	for _, w := range strings.Fields(t) {
		if _, ok := negativeWords[w]; ok {
			return false, true
		}
	}
	return false, false
}

func containsAny(t string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(t, cue) {
			return true
		}
	}
	return false
}

// spanishMonths includes the historical "setiembre" spelling still common
// in answers.
var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August,
	"septiembre": time.September, "setiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
}

var (
	isoDatePattern     = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})\s*$`)
	slashDatePattern   = regexp.MustCompile(`^\s*(\d{1,2})[/-](\d{1,2})[/-](\d{4})\s*$`)
	verboseDatePattern = regexp.MustCompile(`^\s*(\d{1,2})\s+de\s+([a-záéíóú]+)\s+de\s+(\d{4})\s*$`)
	accentReplacer     = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")
	immediateCues      = []string{"inmediata", "ya", "hoy"}
)

// Date parses a Spanish availability date into ISO YYYY-MM-DD using the
// current day for "inmediata"/"ya"/"hoy".
func Date(text string) (string, bool) {
	return DateAt(text, time.Now())
}

// DateAt is Date with an injectable clock. Calendar-invalid inputs such as
// day 31 of a 30-day month are absent, not errors.
func DateAt(text string, now time.Time) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}

	if containsAny(t, immediateCues) {
		return now.Format(time.DateOnly), true
	}

	if m := isoDatePattern.FindStringSubmatch(t); m != nil {
		return calendarDate(m[3], m[2], m[1])
	}

	if m := slashDatePattern.FindStringSubmatch(t); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}

	if m := verboseDatePattern.FindStringSubmatch(t); m != nil {
		month, ok := spanishMonths[accentReplacer.Replace(m[2])]
		if !ok {
			return "", false
		}
		return calendarDate(m[1], strconv.Itoa(int(month)), m[3])
	}

	return "", false
}

// calendarDate builds an ISO date and rejects values time.Date would roll
// over, e.g. 2025-02-30.
func calendarDate(dayStr, monthStr, yearStr string) (string, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return "", false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return "", false
	}
	return d.Format(time.DateOnly), true
}

// Text trims the input and treats the empty result as absent.
func Text(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}
	return t, true
}
