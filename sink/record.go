// Package sink assembles the finished record and hands it to the outside
// world: the delivery webhook and a local CSV mirror kept for inspection.
package sink

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentmatch/intake/listing"
)

// Record is the completed listing as delivered downstream: every schema
// field plus a generated identifier, the verbatim description, a readable
// summary and reserved placeholders that later enrichment stages fill in.
type Record struct {
	ID                  string `json:"id_piso"`
	DescripcionOriginal string `json:"descripcion_original"`
	DescripcionIA       string `json:"descripcion_ia"`

	Precio         *int    `json:"precio"`
	BarrioCiudad   *string `json:"barrio_ciudad"`
	M2             *int    `json:"m2"`
	Habitaciones   *int    `json:"habitaciones"`
	Banos          *int    `json:"banos"`
	Planta         *int    `json:"planta"`
	Ascensor       *bool   `json:"ascensor"`
	Amueblado      *bool   `json:"amueblado"`
	Mascotas       *bool   `json:"mascotas"`
	Disponibilidad *string `json:"disponibilidad"`
	Estado         *string `json:"estado"`

	// Enrichment placeholders, always null at save time.
	DistanciaMetroM         *float64 `json:"distancia_metro_m"`
	ScoreConectividad       *float64 `json:"score_conectividad"`
	ScoreVisualGlobal       *float64 `json:"score_visual_global"`
	FotosFaltantesSugeridas *string  `json:"fotos_faltantes_sugeridas"`

	CreatedAt     string  `json:"created_at"`
	WebhookStatus Outcome `json:"webhook_status,omitempty"`
}

// NewRecord freezes a conversation's listing into a deliverable record.
func NewRecord(l *listing.Listing, description string) *Record {
	snapshot := l.Clone()
	return &Record{
		ID:                  uuid.NewString(),
		DescripcionOriginal: description,
		DescripcionIA:       listing.Summary(snapshot),
		Precio:              snapshot.Precio,
		BarrioCiudad:        snapshot.BarrioCiudad,
		M2:                  snapshot.M2,
		Habitaciones:        snapshot.Habitaciones,
		Banos:               snapshot.Banos,
		Planta:              snapshot.Planta,
		Ascensor:            snapshot.Ascensor,
		Amueblado:           snapshot.Amueblado,
		Mascotas:            snapshot.Mascotas,
		Disponibilidad:      snapshot.Disponibilidad,
		Estado:              snapshot.Estado,
		CreatedAt:           time.Now().UTC().Format(time.RFC3339),
	}
}
