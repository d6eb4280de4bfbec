package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// csvColumns is the debug mirror's fixed column set. Enrichment columns are
// written empty; later stages fill them in place.
var csvColumns = []string{
	"id_piso", "descripcion_original", "descripcion_ia",
	"precio", "barrio_ciudad", "m2", "habitaciones", "banos",
	"planta", "ascensor", "amueblado", "mascotas", "disponibilidad",
	"distancia_metro_m", "score_conectividad",
	"score_visual_global", "fotos_faltantes_sugeridas",
	"created_at", "webhook_status",
}

// DebugStore appends saved records to a local CSV, for inspection only.
// It must never block a save: callers log its errors and move on.
type DebugStore struct {
	mu   sync.Mutex
	path string
}

func NewDebugStore(path string) *DebugStore {
	return &DebugStore{path: path}
}

// Append writes one record row, creating the file and header on first use.
func (s *DebugStore) Append(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}

	_, statErr := os.Stat(s.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open debug csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(csvColumns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := w.Write(recordRow(rec)); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func recordRow(rec *Record) []string {
	return []string{
		rec.ID, rec.DescripcionOriginal, rec.DescripcionIA,
		intCell(rec.Precio), strCell(rec.BarrioCiudad), intCell(rec.M2),
		intCell(rec.Habitaciones), intCell(rec.Banos),
		intCell(rec.Planta), boolCell(rec.Ascensor), boolCell(rec.Amueblado),
		boolCell(rec.Mascotas), strCell(rec.Disponibilidad),
		floatCell(rec.DistanciaMetroM), floatCell(rec.ScoreConectividad),
		floatCell(rec.ScoreVisualGlobal), strCell(rec.FotosFaltantesSugeridas),
		rec.CreatedAt, string(rec.WebhookStatus),
	}
}

func strCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func boolCell(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
