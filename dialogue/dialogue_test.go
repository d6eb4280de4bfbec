package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentmatch/intake/extract"
	"github.com/rentmatch/intake/listing"
)

type fakeExtractor struct {
	result extract.Result
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, description string) (extract.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestController(ex BulkExtractor) *Controller {
	return NewController(listing.MustSchema(), ex)
}

func TestFullIntakeFlow(t *testing.T) {
	// The description yields price, area and rooms; the controller must ask
	// for exactly the remaining required fields, one at a time, in schema
	// order: barrio_ciudad, banos, disponibilidad.
	ex := &fakeExtractor{result: extract.Result{
		"precio":       float64(900),
		"m2":           float64(80),
		"habitaciones": float64(2),
	}}
	c := newTestController(ex)
	conv := NewConversation()
	ctx := context.Background()

	reply, err := c.HandleUtterance(ctx, conv, "piso de 80 m2, 2 habitaciones, 900 euros")
	require.NoError(t, err)
	assert.Equal(t, PhaseAskingField, reply.Phase)
	assert.Equal(t, "barrio_ciudad", reply.AskedField)
	assert.Equal(t, "piso de 80 m2, 2 habitaciones, 900 euros", conv.Description)

	reply, err = c.HandleUtterance(ctx, conv, "Sant Gervasi, Barcelona")
	require.NoError(t, err)
	assert.Equal(t, "banos", reply.AskedField)

	reply, err = c.HandleUtterance(ctx, conv, "1 baño")
	require.NoError(t, err)
	assert.Equal(t, "disponibilidad", reply.AskedField)

	reply, err = c.HandleUtterance(ctx, conv, "15 de diciembre de 2025")
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, reply.Phase)
	assert.Empty(t, reply.AskedField)

	require.NotNil(t, conv.Listing.Banos)
	assert.Equal(t, 1, *conv.Listing.Banos)
	require.NotNil(t, conv.Listing.Disponibilidad)
	assert.Equal(t, "2025-12-15", *conv.Listing.Disponibilidad)
	assert.Equal(t, 1, ex.calls)
}

func TestQuestionOrderIgnoresSourceOrder(t *testing.T) {
	// Extraction leaves two gaps; they are asked in schema order no matter
	// how the user mentioned things.
	ex := &fakeExtractor{result: extract.Result{
		"precio":         float64(900),
		"habitaciones":   float64(2),
		"banos":          float64(1),
		"disponibilidad": "2025-12-15",
	}}
	c := newTestController(ex)
	conv := NewConversation()
	ctx := context.Background()

	reply, err := c.HandleUtterance(ctx, conv, "disponible el 15, 900 euros, 2 hab, 1 baño")
	require.NoError(t, err)
	assert.Equal(t, "barrio_ciudad", reply.AskedField)

	reply, err = c.HandleUtterance(ctx, conv, "Lavapiés, Madrid")
	require.NoError(t, err)
	assert.Equal(t, "m2", reply.AskedField)

	reply, err = c.HandleUtterance(ctx, conv, "80")
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, reply.Phase)
}

func TestUnusableAnswerReasksSameQuestion(t *testing.T) {
	ex := &fakeExtractor{result: extract.Result{}}
	c := newTestController(ex)
	conv := NewConversation()
	ctx := context.Background()

	reply, err := c.HandleUtterance(ctx, conv, "un piso bonito")
	require.NoError(t, err)
	require.Equal(t, "precio", reply.AskedField)
	prompt := reply.Message

	reply, err = c.HandleUtterance(ctx, conv, "pues no sabría decirte")
	require.NoError(t, err)
	assert.True(t, reply.Reasked)
	assert.Equal(t, "precio", reply.AskedField)
	assert.Equal(t, PhaseAskingField, reply.Phase)
	assert.Nil(t, conv.Listing.Precio)

	// the re-emitted prompt is the field's own question
	assert.Contains(t, prompt, reply.Message)

	reply, err = c.HandleUtterance(ctx, conv, "900 euros")
	require.NoError(t, err)
	assert.False(t, reply.Reasked)
	require.NotNil(t, conv.Listing.Precio)
	assert.Equal(t, 900, *conv.Listing.Precio)
}

func TestExtractionFailureLeavesConversationUntouched(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("service unreachable")}
	c := newTestController(ex)
	conv := NewConversation()
	ctx := context.Background()

	_, err := c.HandleUtterance(ctx, conv, "piso en Chamberí")
	require.Error(t, err)
	assert.Equal(t, PhaseAwaitingDescription, conv.Phase)
	assert.Empty(t, conv.Description)
	assert.Empty(t, conv.Transcript)

	// Retrying with the same text works once the service recovers.
	ex.err = nil
	ex.result = extract.Result{}
	reply, err := c.HandleUtterance(ctx, conv, "piso en Chamberí")
	require.NoError(t, err)
	assert.Equal(t, PhaseAskingField, reply.Phase)
	assert.Equal(t, "piso en Chamberí", conv.Description)
}

func TestEmptyFirstUtteranceDoesNotExtract(t *testing.T) {
	ex := &fakeExtractor{result: extract.Result{}}
	c := newTestController(ex)
	conv := NewConversation()

	reply, err := c.HandleUtterance(context.Background(), conv, "   ")
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingDescription, reply.Phase)
	assert.Zero(t, ex.calls)
}

func TestExtractionCanCompleteImmediately(t *testing.T) {
	ex := &fakeExtractor{result: extract.Result{
		"precio":         float64(900),
		"barrio_ciudad":  "Ruzafa, Valencia",
		"m2":             float64(80),
		"habitaciones":   float64(2),
		"banos":          float64(1),
		"disponibilidad": "2025-12-15",
	}}
	c := newTestController(ex)
	conv := NewConversation()

	reply, err := c.HandleUtterance(context.Background(), conv, "piso completo en Ruzafa")
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, reply.Phase)
}

func TestCompleteKeepsAnnotations(t *testing.T) {
	ex := &fakeExtractor{result: extract.Result{
		"precio":         float64(900),
		"barrio_ciudad":  "Ruzafa, Valencia",
		"m2":             float64(80),
		"habitaciones":   float64(2),
		"banos":          float64(1),
		"disponibilidad": "2025-12-15",
	}}
	c := newTestController(ex)
	conv := NewConversation()
	ctx := context.Background()

	_, err := c.HandleUtterance(ctx, conv, "piso completo")
	require.NoError(t, err)

	reply, err := c.HandleUtterance(ctx, conv, "tiene mucha luz por la mañana")
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, reply.Phase)
	assert.Equal(t, []string{"tiene mucha luz por la mañana"}, conv.Annotations)

	// a second annotation stacks, still no state change
	_, err = c.HandleUtterance(ctx, conv, "el portal es nuevo")
	require.NoError(t, err)
	assert.Len(t, conv.Annotations, 2)
}

func TestProgress(t *testing.T) {
	ex := &fakeExtractor{result: extract.Result{
		"precio": float64(900),
		"m2":     float64(80),
	}}
	c := newTestController(ex)
	conv := NewConversation()

	filled, total := c.Progress(conv)
	assert.Zero(t, filled)
	assert.Equal(t, 6, total)

	_, err := c.HandleUtterance(context.Background(), conv, "piso de 80m2 por 900")
	require.NoError(t, err)
	filled, total = c.Progress(conv)
	assert.Equal(t, 2, filled)
	assert.Equal(t, 6, total)
}
