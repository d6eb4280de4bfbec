// Package validate classifies field combinations into blocking errors and
// non-blocking warnings. Missing required fields are a separate gate,
// evaluated independently of the findings.
package validate

import (
	"fmt"

	"github.com/rentmatch/intake/listing"
)

// Severity tags a finding. Errors block saving; warnings never do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one validation result, addressed to a single field so the UI
// can surface a correctable message next to it.
type Finding struct {
	Field    string
	Severity Severity
	Message  string
}

// Check returns findings in a fixed order: all errors first, then all
// warnings. Absent fields produce no findings; presence follows the
// missing-value policy, so a zero value is validated, not skipped.
func Check(sc *listing.Schema, l *listing.Listing) []Finding {
	var errs, warns []Finding

	precio, precioOK := intValue(sc, l, "precio")
	m2, m2OK := intValue(sc, l, "m2")
	hab, habOK := intValue(sc, l, "habitaciones")
	ban, banOK := intValue(sc, l, "banos")

	if precioOK && precio <= 0 {
		errs = append(errs, Finding{"precio", SeverityError, "El precio debe ser mayor que 0"})
	}
	if m2OK && m2 <= 0 {
		errs = append(errs, Finding{"m2", SeverityError, "Los m² deben ser mayor que 0"})
	}
	if habOK && hab <= 0 {
		errs = append(errs, Finding{"habitaciones", SeverityError, "Las habitaciones deben ser mayor que 0"})
	}
	if banOK && ban <= 0 {
		errs = append(errs, Finding{"banos", SeverityError, "Los baños deben ser mayor que 0"})
	}

	if m2OK && m2 < 25 {
		warns = append(warns, Finding{"m2", SeverityWarning, "m² parece bajo (<25). ¿Es correcto?"})
	}
	if habOK && m2OK && hab > m2/8 {
		warns = append(warns, Finding{"habitaciones", SeverityWarning, "Muchas habitaciones para los m². Verifica."})
	}
	if banOK && ban > 5 {
		warns = append(warns, Finding{"banos", SeverityWarning, "Número de baños inusual (>5). Verifica."})
	}

	return append(errs, warns...)
}

// Errors filters the blocking findings.
func Errors(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// CanSave reports whether the listing may be saved: zero errors and zero
// missing required fields. The two gates are independent; warnings do not
// count.
func CanSave(sc *listing.Schema, l *listing.Listing) (bool, []Finding, []*listing.Field) {
	findings := Check(sc, l)
	missing := sc.MissingRequired(l)
	ok := len(Errors(findings)) == 0 && len(missing) == 0
	return ok, findings, missing
}

// intValue reads a numeric-kind slot, treating anything unreadable as
// absent for validation purposes only.
func intValue(sc *listing.Schema, l *listing.Listing, key string) (int, bool) {
	f, ok := sc.Field(key)
	if !ok {
		return 0, false
	}
	v, present := f.Value(l)
	if !present {
		return 0, false
	}
	n, isInt := v.(int)
	if !isInt {
		return 0, false
	}
	return n, true
}

// Describe renders a finding for the chat surface.
func Describe(f Finding) string {
	return fmt.Sprintf("[%s] %s", f.Field, f.Message)
}
