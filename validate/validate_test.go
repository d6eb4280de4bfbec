package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentmatch/intake/listing"
)

func ptr[T any](v T) *T { return &v }

func findingFields(fs []Finding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Field)
	}
	return out
}

func TestCheckBlockingErrors(t *testing.T) {
	sc := listing.MustSchema()
	l := &listing.Listing{
		Precio:       ptr(0),
		M2:           ptr(-3),
		Habitaciones: ptr(0),
		Banos:        ptr(0),
	}
	findings := Check(sc, l)
	errs := Errors(findings)
	assert.Equal(t, []string{"precio", "m2", "habitaciones", "banos"}, findingFields(errs))
}

func TestCheckWarnings(t *testing.T) {
	sc := listing.MustSchema()
	l := &listing.Listing{
		Precio:       ptr(900),
		M2:           ptr(20),
		Habitaciones: ptr(4), // 4 > 20/8
		Banos:        ptr(6),
	}
	findings := Check(sc, l)
	require.Empty(t, Errors(findings))

	var warns []string
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			warns = append(warns, f.Field)
		}
	}
	assert.Equal(t, []string{"m2", "habitaciones", "banos"}, warns)
}

func TestCheckAbsentFieldsProduceNothing(t *testing.T) {
	sc := listing.MustSchema()
	assert.Empty(t, Check(sc, &listing.Listing{}))
}

func TestErrorsOrderedBeforeWarnings(t *testing.T) {
	sc := listing.MustSchema()
	l := &listing.Listing{
		Precio: ptr(-1),
		M2:     ptr(20),
		Banos:  ptr(1),
	}
	findings := Check(sc, l)
	require.Len(t, findings, 2)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Equal(t, SeverityWarning, findings[1].Severity)
}

func TestCanSaveGatesAreIndependent(t *testing.T) {
	sc := listing.MustSchema()

	// All required present, no errors: may save even with warnings.
	l := &listing.Listing{
		Precio:         ptr(900),
		BarrioCiudad:   ptr("Gràcia, Barcelona"),
		M2:             ptr(20), // warning only
		Habitaciones:   ptr(1),
		Banos:          ptr(1),
		Disponibilidad: ptr("2025-12-15"),
	}
	ok, findings, missing := CanSave(sc, l)
	assert.True(t, ok)
	assert.NotEmpty(t, findings)
	assert.Empty(t, missing)

	// A missing required field blocks even with zero findings.
	l.Disponibilidad = nil
	ok, findings, missing = CanSave(sc, l)
	assert.False(t, ok)
	assert.Empty(t, Errors(findings))
	require.Len(t, missing, 1)
	assert.Equal(t, "disponibilidad", missing[0].Key)

	// An error blocks even when nothing is missing.
	l.Disponibilidad = ptr("2025-12-15")
	l.Precio = ptr(0)
	ok, findings, missing = CanSave(sc, l)
	assert.False(t, ok)
	assert.NotEmpty(t, Errors(findings))
	assert.Empty(t, missing)
}

func TestZeroIsValidatedNotSkipped(t *testing.T) {
	// The missing-value policy makes 0 a present value, so it must reach
	// the validator and fail the positivity rule rather than vanish.
	sc := listing.MustSchema()
	l := &listing.Listing{Banos: ptr(0)}
	errs := Errors(Check(sc, l))
	require.Len(t, errs, 1)
	assert.Equal(t, "banos", errs[0].Field)
}
