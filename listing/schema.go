package listing

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
)

// Kind is the value kind a field's raw answers are normalized into.
type Kind string

const (
	KindCurrency Kind = "currency"
	KindCount    Kind = "count"
	KindFloor    Kind = "floor"
	KindBool     Kind = "boolean"
	KindDate     Kind = "date"
	KindText     Kind = "text"
)

// Field describes one slot: its JSON key, kind, whether it must be filled
// before saving, and the question asked when it is missing. Fields are
// defined once at startup and never mutated afterwards.
type Field struct {
	Key      string
	Kind     Kind
	Required bool
	Prompt   string

	get   func(*Listing) any
	set   func(*Listing, any) error
	clear func(*Listing)
}

// Present reports whether the slot holds a usable value. A slot is missing
// iff it is unset, or it is a text kind holding an empty string. Boolean
// false and numeric zero are present values.
func (f *Field) Present(l *Listing) bool {
	v := f.get(l)
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Value returns the slot's typed value (int, bool or string) and whether it
// is present under the missing-value policy.
func (f *Field) Value(l *Listing) (any, bool) {
	if !f.Present(l) {
		return nil, false
	}
	return f.get(l), true
}

// Set stores a typed value into the slot. The value must match the field's
// kind: int for currency, count and floor, bool for boolean, string for
// date and text.
func (f *Field) Set(l *Listing, v any) error {
	return f.set(l, v)
}

// Clear puts the slot back to absent.
func (f *Field) Clear(l *Listing) {
	f.clear(l)
}

func intField(key string, kind Kind, required bool, prompt string, ptr func(*Listing) **int) Field {
	return Field{
		Key: key, Kind: kind, Required: required, Prompt: prompt,
		get: func(l *Listing) any {
			if p := *ptr(l); p != nil {
				return *p
			}
			return nil
		},
		set: func(l *Listing, v any) error {
			n, ok := v.(int)
			if !ok {
				return fmt.Errorf("field %s: expected int, got %T", key, v)
			}
			*ptr(l) = &n
			return nil
		},
		clear: func(l *Listing) { *ptr(l) = nil },
	}
}

func boolField(key string, required bool, prompt string, ptr func(*Listing) **bool) Field {
	return Field{
		Key: key, Kind: KindBool, Required: required, Prompt: prompt,
		get: func(l *Listing) any {
			if p := *ptr(l); p != nil {
				return *p
			}
			return nil
		},
		set: func(l *Listing, v any) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("field %s: expected bool, got %T", key, v)
			}
			*ptr(l) = &b
			return nil
		},
		clear: func(l *Listing) { *ptr(l) = nil },
	}
}

func stringField(key string, kind Kind, required bool, prompt string, ptr func(*Listing) **string) Field {
	return Field{
		Key: key, Kind: kind, Required: required, Prompt: prompt,
		get: func(l *Listing) any {
			if p := *ptr(l); p != nil {
				return *p
			}
			return nil
		},
		set: func(l *Listing, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("field %s: expected string, got %T", key, v)
			}
			*ptr(l) = &s
			return nil
		},
		clear: func(l *Listing) { *ptr(l) = nil },
	}
}

func defaultFields() []Field {
	return []Field{
		intField("precio", KindCurrency, true,
			"¿Cuál es el precio mensual en euros?",
			func(l *Listing) **int { return &l.Precio }),
		stringField("barrio_ciudad", KindText, true,
			"¿En qué barrio y ciudad está el piso? (Ej.: 'Sant Gervasi, Barcelona')",
			func(l *Listing) **string { return &l.BarrioCiudad }),
		intField("m2", KindCount, true,
			"¿Cuántos metros cuadrados tiene?",
			func(l *Listing) **int { return &l.M2 }),
		intField("habitaciones", KindCount, true,
			"¿Cuántas habitaciones tiene?",
			func(l *Listing) **int { return &l.Habitaciones }),
		intField("banos", KindCount, true,
			"¿Cuántos baños tiene?",
			func(l *Listing) **int { return &l.Banos }),
		stringField("disponibilidad", KindDate, true,
			"¿Desde qué fecha está disponible? (YYYY-MM-DD)",
			func(l *Listing) **string { return &l.Disponibilidad }),
		intField("planta", KindFloor, false,
			"¿En qué planta está el piso?",
			func(l *Listing) **int { return &l.Planta }),
		boolField("ascensor", false,
			"¿Tiene ascensor el edificio?",
			func(l *Listing) **bool { return &l.Ascensor }),
		boolField("amueblado", false,
			"¿Se alquila amueblado?",
			func(l *Listing) **bool { return &l.Amueblado }),
		boolField("mascotas", false,
			"¿Se aceptan mascotas?",
			func(l *Listing) **bool { return &l.Mascotas }),
		stringField("estado", KindText, false,
			"¿Cuál es el estado del piso? (reformado, a reformar, bueno)",
			func(l *Listing) **string { return &l.Estado }),
	}
}

// Schema is the static table of all listing fields. Iteration order of the
// required subset defines question priority.
type Schema struct {
	fields []Field
	byKey  map[string]int
}

// Option adjusts the schema at construction time.
type Option func(*Schema) error

// WithRequired promotes optional fields to required. Whether ascensor,
// amueblado and mascotas are mandatory varies per deployment, so it is a
// configuration decision rather than a schema constant.
func WithRequired(keys ...string) Option {
	return func(s *Schema) error {
		for _, key := range keys {
			idx, ok := s.byKey[key]
			if !ok {
				return fmt.Errorf("unknown field %q", key)
			}
			s.fields[idx].Required = true
		}
		return nil
	}
}

// NewSchema builds the field table. The default required set is precio,
// barrio_ciudad, m2, habitaciones, banos and disponibilidad.
func NewSchema(opts ...Option) (*Schema, error) {
	s := &Schema{fields: defaultFields()}
	s.byKey = make(map[string]int, len(s.fields))
	for i, f := range s.fields {
		s.byKey[f.Key] = i
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSchema is NewSchema for static defaults that cannot fail.
func MustSchema(opts ...Option) *Schema {
	s, err := NewSchema(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns all fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Field looks a field up by its JSON key.
func (s *Schema) Field(key string) (*Field, bool) {
	idx, ok := s.byKey[key]
	if !ok {
		return nil, false
	}
	return &s.fields[idx], true
}

// Keys returns every field key in declaration order.
func (s *Schema) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// MissingRequired returns the required fields still absent, in question
// priority order.
func (s *Schema) MissingRequired(l *Listing) []*Field {
	var missing []*Field
	for i := range s.fields {
		f := &s.fields[i]
		if f.Required && !f.Present(l) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Progress reports how many required fields are filled out of the total.
func (s *Schema) Progress(l *Listing) (filled, total int) {
	for i := range s.fields {
		f := &s.fields[i]
		if !f.Required {
			continue
		}
		total++
		if f.Present(l) {
			filled++
		}
	}
	return filled, total
}

// JSONSchema reflects the Listing type into a JSON schema document, used
// verbatim in the extraction instruction.
func (s *Schema) JSONSchema() (string, error) {
	sc := jsonschema.Reflect(&Listing{})
	sc.Title = "Anuncio de piso en alquiler"
	sc.Description = "Campos estructurados de un piso en alquiler en España. Usa null cuando falte el dato."
	out, err := sonic.Marshal(sc)
	if err != nil {
		return "", fmt.Errorf("marshal listing schema: %w", err)
	}
	return string(out), nil
}
