package extract

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/rentmatch/intake/listing"
)

// conventions is the per-key normalization contract the model must follow.
// Keys not listed fall back to their schema description.
var conventions = map[string]string{
	"precio":         "entero, euros al mes",
	"barrio_ciudad":  "texto 'Barrio, Ciudad' si es posible",
	"m2":             "entero, metros cuadrados",
	"habitaciones":   "entero",
	"banos":          "entero",
	"disponibilidad": "fecha ISO YYYY-MM-DD o null",
	"planta":         "entero, 0 para bajo, o null",
	"ascensor":       "true/false/null",
	"amueblado":      "true/false/null",
	"mascotas":       "true/false/null",
	"estado":         "'reformado', 'a reformar' o 'bueno', o null",
}

// buildSystemPrompt enumerates the exact field key set, the value
// conventions per key and the JSON schema of the listing. The instruction
// demands a single JSON object and nothing else.
func buildSystemPrompt(sc *listing.Schema) (string, error) {
	jsonSchema, err := sc.JSONSchema()
	if err != nil {
		return "", err
	}

	sections := []string{
		"Eres un asistente que extrae campos estructurados de descripciones de pisos en alquiler en España.",
		fmt.Sprintf(
			"Devuelve SOLO un JSON válido con exactamente las claves: %s. Usa null cuando falte el dato. No añadas claves, texto ni explicaciones.",
			strings.Join(sc.Keys(), ", "),
		),
		formatConventionsSection(sc),
		fmt.Sprintf("# Esquema JSON del anuncio:\n```json\n%s\n```", jsonSchema),
	}
	return strings.Join(sections, "\n\n"), nil
}

func formatConventionsSection(sc *listing.Schema) string {
	var buf strings.Builder
	buf.WriteString("# Convenciones por campo:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Campo", "Obligatorio", "Formato")
	for _, f := range sc.Fields() {
		required := "no"
		if f.Required {
			required = "sí"
		}
		_ = table.Append(f.Key, required, conventions[f.Key])
	}
	_ = table.Render()
	return buf.String()
}
