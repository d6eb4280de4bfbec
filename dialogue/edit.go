package dialogue

import (
	"fmt"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/rentmatch/intake/normalize"
)

// operation is one RFC6902 patch op. Listing JSON always carries every key
// (null when absent), so replace is valid for both setting and clearing.
type operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// EditField overwrites one slot directly from the ficha surface, bypassing
// the question flow. The raw input goes through the same kind-specific
// parser as conversational answers; empty or unparsable input explicitly
// clears the slot. Clearing a required field re-opens its question.
func (c *Controller) EditField(conv *Conversation, key, raw string) error {
	field, ok := c.schema.Field(key)
	if !ok {
		return fmt.Errorf("unknown field %q", key)
	}

	value, parsed := normalize.Normalize(field.Kind, raw)
	op := operation{Op: "replace", Path: "/" + key, Value: nil}
	if parsed {
		op.Value = value
	}

	patched, err := applyOps(conv.Listing, []operation{op})
	if err != nil {
		return fmt.Errorf("edit %s: %w", key, err)
	}
	conv.Listing = patched

	// Edits can complete the form or re-open a question, but never regress
	// a conversation that is still waiting for its description.
	if conv.Phase != PhaseAwaitingDescription {
		c.advance(conv, "", "")
	}
	return nil
}

// applyOps patches a deep copy and only swaps it in when the whole patch
// applied, so a failed edit leaves the listing untouched.
func applyOps[T any](current *T, ops []operation) (*T, error) {
	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("marshal current state: %w", err)
	}
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	modified, err := patch.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}
	result := new(T)
	if err := sonic.Unmarshal(modified, result); err != nil {
		return nil, fmt.Errorf("patched state no longer matches %T: %w", result, err)
	}
	return result, nil
}
