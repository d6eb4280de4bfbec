package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rentmatch/intake/extract"
	"github.com/rentmatch/intake/listing"
	"github.com/rentmatch/intake/normalize"
)

// BulkExtractor proposes values for every field from the initial free-text
// description. *extract.Extractor satisfies it; tests plug in fakes.
type BulkExtractor interface {
	Extract(ctx context.Context, description string) (extract.Result, error)
}

// Controller applies one state transition per user utterance. It never
// rolls back: a failed turn leaves the conversation exactly where it was.
type Controller struct {
	schema    *listing.Schema
	extractor BulkExtractor
}

func NewController(sc *listing.Schema, ex BulkExtractor) *Controller {
	return &Controller{schema: sc, extractor: ex}
}

// Reply is the controller's answer to one utterance.
type Reply struct {
	Message string
	Phase   Phase
	// AskedField is the key of the outstanding question, empty when none.
	AskedField string
	// Reasked is set when the previous answer was unusable and the same
	// question is being emitted again.
	Reasked bool
}

const (
	msgNeedDescription = "Escribe la descripción del piso para empezar."
	msgMissingIntro    = "Gracias. Me faltan algunos datos."
	msgExtractionFull  = "Perfecto, ya tengo lo necesario. Revisa la ficha y guarda."
	msgAllFilled       = "¡Listo! Revisa la ficha y pulsa Guardar."
	msgAnnotated       = "He anotado tu comentario. Ajusta la ficha si lo necesitas."
)

// HandleUtterance processes exactly one user utterance. On error the
// conversation is untouched and the same utterance may be retried.
func (c *Controller) HandleUtterance(ctx context.Context, conv *Conversation, text string) (*Reply, error) {
	switch conv.Phase {
	case PhaseAwaitingDescription:
		return c.handleDescription(ctx, conv, text)
	case PhaseAskingField:
		return c.handleAnswer(conv, text), nil
	case PhaseComplete:
		return c.handleAnnotation(conv, text), nil
	default:
		return nil, fmt.Errorf("conversation in unknown phase %q", conv.Phase)
	}
}

func (c *Controller) handleDescription(ctx context.Context, conv *Conversation, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return &Reply{Message: msgNeedDescription, Phase: conv.Phase}, nil
	}

	result, err := c.extractor.Extract(ctx, text)
	if err != nil {
		// Slots and phase stay as they were; the user may resubmit.
		return nil, fmt.Errorf("bulk extraction: %w", err)
	}

	conv.Description = text
	conv.record(RoleUser, text)
	result.Merge(c.schema, conv.Listing)
	slog.Debug("bulk extraction merged", "missing", len(c.schema.MissingRequired(conv.Listing)))

	reply := c.advance(conv, msgMissingIntro+" ", msgExtractionFull)
	conv.record(RoleAssistant, reply.Message)
	return reply, nil
}

func (c *Controller) handleAnswer(conv *Conversation, text string) *Reply {
	field, ok := c.schema.Field(conv.PendingField)
	if !ok {
		// The pending field was removed by an external edit; just move on.
		return c.advance(conv, "", msgAllFilled)
	}

	conv.record(RoleUser, text)
	value, ok := normalize.Normalize(field.Kind, text)
	if !ok {
		// Never silently accept an unusable answer for a required field:
		// same state, same question.
		reply := &Reply{
			Message:    field.Prompt,
			Phase:      conv.Phase,
			AskedField: field.Key,
			Reasked:    true,
		}
		conv.record(RoleAssistant, reply.Message)
		return reply
	}

	if err := field.Set(conv.Listing, value); err != nil {
		slog.Warn("normalized value did not fit its field", "field", field.Key, "error", err)
		return &Reply{Message: field.Prompt, Phase: conv.Phase, AskedField: field.Key, Reasked: true}
	}

	reply := c.advance(conv, "", msgAllFilled)
	conv.record(RoleAssistant, reply.Message)
	return reply
}

func (c *Controller) handleAnnotation(conv *Conversation, text string) *Reply {
	conv.record(RoleUser, text)
	if t := strings.TrimSpace(text); t != "" {
		conv.Annotations = append(conv.Annotations, t)
	}
	reply := &Reply{Message: msgAnnotated, Phase: PhaseComplete}
	conv.record(RoleAssistant, reply.Message)
	return reply
}

// advance recomputes the required-field queue and emits either the next
// question, in schema order, or the completion message.
func (c *Controller) advance(conv *Conversation, prefix, doneMsg string) *Reply {
	missing := c.schema.MissingRequired(conv.Listing)
	if len(missing) == 0 {
		conv.Phase = PhaseComplete
		conv.PendingField = ""
		return &Reply{Message: doneMsg, Phase: PhaseComplete}
	}
	next := missing[0]
	conv.Phase = PhaseAskingField
	conv.PendingField = next.Key
	return &Reply{
		Message:    prefix + next.Prompt,
		Phase:      PhaseAskingField,
		AskedField: next.Key,
	}
}

// Progress reports filled versus total required fields.
func (c *Controller) Progress(conv *Conversation) (filled, total int) {
	return c.schema.Progress(conv.Listing)
}

// Schema exposes the field table the controller was built with.
func (c *Controller) Schema() *listing.Schema {
	return c.schema
}
