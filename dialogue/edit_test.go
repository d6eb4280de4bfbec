package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentmatch/intake/extract"
)

func completedConversation(t *testing.T) (*Controller, *Conversation) {
	t.Helper()
	ex := &fakeExtractor{result: extract.Result{
		"precio":         float64(900),
		"barrio_ciudad":  "Gràcia, Barcelona",
		"m2":             float64(80),
		"habitaciones":   float64(2),
		"banos":          float64(1),
		"disponibilidad": "2025-12-15",
	}}
	c := newTestController(ex)
	conv := NewConversation()
	_, err := c.HandleUtterance(context.Background(), conv, "piso completo en Gràcia")
	require.NoError(t, err)
	require.Equal(t, PhaseComplete, conv.Phase)
	return c, conv
}

func TestEditFieldParsesLikeAnswers(t *testing.T) {
	c, conv := completedConversation(t)

	require.NoError(t, c.EditField(conv, "precio", "1.200 €/mes"))
	require.NotNil(t, conv.Listing.Precio)
	assert.Equal(t, 1200, *conv.Listing.Precio)

	require.NoError(t, c.EditField(conv, "planta", "bajo"))
	require.NotNil(t, conv.Listing.Planta)
	assert.Equal(t, 0, *conv.Listing.Planta)

	require.NoError(t, c.EditField(conv, "ascensor", "sin ascensor"))
	require.NotNil(t, conv.Listing.Ascensor)
	assert.False(t, *conv.Listing.Ascensor)

	assert.Equal(t, PhaseComplete, conv.Phase)
}

func TestEditUnparsableInputClearsSlot(t *testing.T) {
	c, conv := completedConversation(t)

	require.NoError(t, c.EditField(conv, "disponibilidad", "cuando se pueda"))
	assert.Nil(t, conv.Listing.Disponibilidad)
}

func TestEditClearingRequiredFieldReopensQuestion(t *testing.T) {
	c, conv := completedConversation(t)

	require.NoError(t, c.EditField(conv, "m2", ""))
	assert.Nil(t, conv.Listing.M2)
	assert.Equal(t, PhaseAskingField, conv.Phase)
	assert.Equal(t, "m2", conv.PendingField)

	// answering the re-opened question closes the form again
	reply, err := c.HandleUtterance(context.Background(), conv, "75 metros")
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, reply.Phase)
	require.NotNil(t, conv.Listing.M2)
	assert.Equal(t, 75, *conv.Listing.M2)
}

func TestEditClearingOptionalFieldStaysComplete(t *testing.T) {
	c, conv := completedConversation(t)

	require.NoError(t, c.EditField(conv, "mascotas", "sí, se permiten"))
	require.NotNil(t, conv.Listing.Mascotas)
	assert.True(t, *conv.Listing.Mascotas)

	require.NoError(t, c.EditField(conv, "mascotas", ""))
	assert.Nil(t, conv.Listing.Mascotas)
	assert.Equal(t, PhaseComplete, conv.Phase)
}

func TestEditUnknownFieldFails(t *testing.T) {
	c, conv := completedConversation(t)

	err := c.EditField(conv, "terraza", "20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terraza")
}

func TestEditBeforeDescriptionDoesNotStartQuestions(t *testing.T) {
	c := newTestController(&fakeExtractor{result: extract.Result{}})
	conv := NewConversation()

	require.NoError(t, c.EditField(conv, "precio", "950"))
	require.NotNil(t, conv.Listing.Precio)
	assert.Equal(t, 950, *conv.Listing.Precio)
	assert.Equal(t, PhaseAwaitingDescription, conv.Phase)
}

func TestEditDuringQuestionsRecomputesPending(t *testing.T) {
	ex := &fakeExtractor{result: extract.Result{
		"barrio_ciudad":  "Triana, Sevilla",
		"m2":             float64(60),
		"habitaciones":   float64(2),
		"banos":          float64(1),
		"disponibilidad": "2025-10-01",
	}}
	c := newTestController(ex)
	conv := NewConversation()
	_, err := c.HandleUtterance(context.Background(), conv, "piso en Triana")
	require.NoError(t, err)
	require.Equal(t, "precio", conv.PendingField)

	// filling the pending field from the ficha closes the form
	require.NoError(t, c.EditField(conv, "precio", "850"))
	assert.Equal(t, PhaseComplete, conv.Phase)
	assert.Empty(t, conv.PendingField)
}
