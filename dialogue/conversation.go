// Package dialogue drives the turn-based intake conversation: one bulk
// extraction from the initial description, then one question at a time for
// whatever required field is still missing.
package dialogue

import (
	"github.com/rentmatch/intake/listing"
)

// Phase is the conversation's dialogue state.
type Phase string

const (
	// PhaseAwaitingDescription waits for the first free-text description.
	PhaseAwaitingDescription Phase = "awaiting_description"
	// PhaseAskingField has exactly one outstanding question.
	PhaseAskingField Phase = "asking_field"
	// PhaseComplete has every required field filled; further utterances
	// are kept as annotations.
	PhaseComplete Phase = "complete"
)

// Turn is one transcript entry.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation owns the slot store for one listing intake. Conversations
// are independent: nothing is shared between two of them, and a single
// conversation processes one utterance at a time.
type Conversation struct {
	Phase   Phase            `json:"phase"`
	Listing *listing.Listing `json:"listing"`

	// Description is the first utterance, kept verbatim. It is set once,
	// when bulk extraction succeeds, and never changes afterwards.
	Description string `json:"description"`

	// PendingField is the key of the single outstanding question, only
	// meaningful in PhaseAskingField.
	PendingField string `json:"pending_field,omitempty"`

	// Annotations are free-form notes captured after completion.
	Annotations []string `json:"annotations,omitempty"`

	Transcript []Turn `json:"transcript,omitempty"`
}

// NewConversation starts with every slot absent.
func NewConversation() *Conversation {
	return &Conversation{
		Phase:   PhaseAwaitingDescription,
		Listing: &listing.Listing{},
	}
}

func (c *Conversation) record(role, text string) {
	if text == "" {
		return
	}
	if n := len(c.Transcript); n > 0 {
		last := c.Transcript[n-1]
		if last.Role == role && last.Text == text {
			return
		}
	}
	c.Transcript = append(c.Transcript, Turn{Role: role, Text: text})
}
