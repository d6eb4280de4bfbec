// Package listing defines the rental listing record, its field schema and
// the missing-value policy shared by the extractor, the normalizer and the
// dialogue controller.
package listing

import (
	"fmt"
	"strings"
)

// Listing holds every slot of one rental listing. Pointer fields encode
// absence explicitly: a nil pointer means the slot has never been filled,
// while *bool false or *int 0 are present, valid values. Presence must be
// checked through Field.Present, never by comparing against zero values.
type Listing struct {
	Precio         *int    `json:"precio" jsonschema:"description=Precio mensual en euros"`
	BarrioCiudad   *string `json:"barrio_ciudad" jsonschema:"description=Barrio y ciudad en formato 'Barrio, Ciudad'"`
	M2             *int    `json:"m2" jsonschema:"description=Superficie en metros cuadrados"`
	Habitaciones   *int    `json:"habitaciones" jsonschema:"description=Número de habitaciones"`
	Banos          *int    `json:"banos" jsonschema:"description=Número de baños"`
	Disponibilidad *string `json:"disponibilidad" jsonschema:"description=Fecha de disponibilidad en formato ISO YYYY-MM-DD"`
	Planta         *int    `json:"planta" jsonschema:"description=Planta del edificio, 0 para bajo"`
	Ascensor       *bool   `json:"ascensor" jsonschema:"description=Si el edificio tiene ascensor"`
	Amueblado      *bool   `json:"amueblado" jsonschema:"description=Si el piso se alquila amueblado"`
	Mascotas       *bool   `json:"mascotas" jsonschema:"description=Si se aceptan mascotas"`
	Estado         *string `json:"estado" jsonschema:"description=Estado del piso: reformado, a reformar o bueno"`
}

// Clone returns a deep copy. Edits and patches work on copies so that a
// failed update never leaves the original half-written.
func (l *Listing) Clone() *Listing {
	out := &Listing{}
	out.Precio = cloneInt(l.Precio)
	out.BarrioCiudad = cloneString(l.BarrioCiudad)
	out.M2 = cloneInt(l.M2)
	out.Habitaciones = cloneInt(l.Habitaciones)
	out.Banos = cloneInt(l.Banos)
	out.Disponibilidad = cloneString(l.Disponibilidad)
	out.Planta = cloneInt(l.Planta)
	out.Ascensor = cloneBool(l.Ascensor)
	out.Amueblado = cloneBool(l.Amueblado)
	out.Mascotas = cloneBool(l.Mascotas)
	out.Estado = cloneString(l.Estado)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Summary renders the human readable one-liner stored alongside the raw
// description when the listing is saved.
func Summary(l *Listing) string {
	asc := "sin ascensor"
	if l.Ascensor != nil && *l.Ascensor {
		asc = "con ascensor"
	}
	amu := "sin amueblar"
	if l.Amueblado != nil && *l.Amueblado {
		amu = "amueblado"
	}
	mas := "no mascotas"
	if l.Mascotas != nil && *l.Mascotas {
		mas = "se aceptan mascotas"
	}
	return fmt.Sprintf(
		"Piso en %s | %s hab, %s m², %s baños, %sª, %s. %s €/mes | Disponible %s | %s, %s.",
		orND(l.BarrioCiudad),
		intOrND(l.Habitaciones), intOrND(l.M2), intOrND(l.Banos), intOrND(l.Planta), asc,
		intOrND(l.Precio), orND(l.Disponibilidad), amu, mas,
	)
}

func orND(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "n/d"
	}
	return *v
}

func intOrND(v *int) string {
	if v == nil {
		return "n/d"
	}
	return fmt.Sprintf("%d", *v)
}
