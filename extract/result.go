package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/rentmatch/intake/listing"
	"github.com/rentmatch/intake/normalize"
)

// Result is the model's proposal normalized to exactly the schema key set.
// A key the model omitted or could not fill maps to nil. Results live only
// for the turn that produced them (plus the cache).
type Result map[string]any

// decodeResult parses the model output in two stages: a strict JSON parse
// first, then the substring between the first '{' and the last '}'. Models
// occasionally wrap the object in prose or a code fence; the fallback
// recovers those cases. Anything else is an extraction failure.
func decodeResult(content string, keys []string) (Result, error) {
	var raw map[string]any
	if err := sonic.UnmarshalString(content, &raw); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in response: %w", err)
		}
		if err2 := sonic.UnmarshalString(content[start:end+1], &raw); err2 != nil {
			return nil, fmt.Errorf("unparsable response: %w", err2)
		}
	}

	out := make(Result, len(keys))
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			out[k] = v
		} else {
			out[k] = nil
		}
	}
	return out, nil
}

// Merge copies every usable non-null proposal into the listing, coercing to
// the field's kind. Values the model typed wrongly go through the same
// parsers as conversational answers; a proposal that still cannot be
// coerced is skipped and the slot stays absent for the dialogue to ask.
func (r Result) Merge(sc *listing.Schema, l *listing.Listing) {
	for _, f := range sc.Fields() {
		raw, ok := r[f.Key]
		if !ok || raw == nil {
			continue
		}
		v, ok := coerce(f.Kind, raw)
		if !ok {
			slog.Debug("skipping uncoercible extraction value", "field", f.Key, "value", raw)
			continue
		}
		if err := f.Set(l, v); err != nil {
			slog.Debug("skipping extraction value", "field", f.Key, "error", err)
		}
	}
}

func coerce(kind listing.Kind, raw any) (any, bool) {
	switch v := raw.(type) {
	case float64:
		switch kind {
		case listing.KindCurrency, listing.KindCount, listing.KindFloor:
			return int(v), true
		}
	case bool:
		if kind == listing.KindBool {
			return v, true
		}
	case string:
		return normalize.Normalize(kind, v)
	}
	return nil, false
}
