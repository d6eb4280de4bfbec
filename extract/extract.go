// Package extract asks an external chat model to propose values for every
// listing field at once from the owner's free-text description.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rentmatch/intake/listing"
)

// Error reasons. Timeout and transport failures fold into ReasonCallFailed;
// unparsable model output is ReasonBadResponse.
const (
	ReasonCallFailed  = "call_failed"
	ReasonBadResponse = "bad_response"
)

// Error reports a failed bulk extraction. It is non-fatal for the
// conversation: the caller stays where it was and the user may resubmit.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction %s: %v", e.Reason, e.Err)
	}
	return "extraction " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

const defaultTimeout = 30 * time.Second

// Extractor performs the one-shot bulk extraction. The chat model call is
// the only blocking operation in the whole engine and is bounded by
// timeout.
type Extractor struct {
	model   model.BaseChatModel
	schema  *listing.Schema
	cache   Cache[Result]
	timeout time.Duration

	system string
}

type options struct {
	cache   Cache[Result]
	timeout time.Duration
}

type Option func(*options)

// WithCache replaces the default in-memory result cache.
func WithCache(c Cache[Result]) Option {
	return func(o *options) { o.cache = c }
}

// WithTimeout bounds the chat model call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func New(cm model.BaseChatModel, sc *listing.Schema, opts ...Option) (*Extractor, error) {
	o := options{
		cache:   NewMemoryCache[Result](),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	system, err := buildSystemPrompt(sc)
	if err != nil {
		return nil, fmt.Errorf("build extraction prompt: %w", err)
	}
	return &Extractor{
		model:   cm,
		schema:  sc,
		cache:   o.cache,
		timeout: o.timeout,
		system:  system,
	}, nil
}

// Extract returns one value proposal per schema key, with null for unknown
// fields. Results are cached by the exact input text; identical
// descriptions within a session hit the cache instead of the model.
func (e *Extractor) Extract(ctx context.Context, description string) (Result, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &Error{Reason: ReasonBadResponse, Err: fmt.Errorf("empty description")}
	}

	key := cacheKey(description)
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		slog.Debug("extraction cache hit", "key", key)
		return cached, nil
	} else if err != nil {
		slog.Warn("extraction cache read failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	messages := []*schema.Message{
		schema.SystemMessage(e.system),
		schema.UserMessage("Texto del propietario: " + description + "\n\nDevuelve SOLO el JSON, sin texto adicional."),
	}
	response, err := e.model.Generate(ctx, messages, model.WithTemperature(0))
	if err != nil {
		return nil, &Error{Reason: ReasonCallFailed, Err: err}
	}

	result, err := decodeResult(response.Content, e.schema.Keys())
	if err != nil {
		return nil, &Error{Reason: ReasonBadResponse, Err: err}
	}

	if err := e.cache.Set(ctx, key, result); err != nil {
		slog.Warn("extraction cache write failed", "error", err)
	}
	return result, nil
}

func cacheKey(description string) string {
	sum := sha256.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}
