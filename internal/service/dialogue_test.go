package service

import (
	"context"
	"testing"

	"ruralmatch/internal/model"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guidedQuery = "Procuro uma fazenda para pecuária em Minas Gerais"

func newTestDialogue(catalog *fakeCatalog, log *fakeSearchLog) *SearchDialogue {
	if log == nil {
		return NewSearchDialogue(NewFilterExtractor(), catalog, nil, 5)
	}
	return NewSearchDialogue(NewFilterExtractor(), catalog, log, 5)
}

func TestReduceTurn_GuidedQueryIsReady(t *testing.T) {
	state, _ := ReduceTurn(model.NewConversationState(), guidedQuery, NewFilterExtractor())

	assert.Equal(t, model.PhaseReady, state.Phase)
	require.NotNil(t, state.Filters.Purpose)
	assert.Equal(t, model.PurposeLivestock, *state.Filters.Purpose)
	assert.Equal(t, "MG", *state.Filters.State)
	require.Len(t, state.History, 1)
	assert.Equal(t, model.SpeakerUser, state.History[0].Speaker)
}

func TestReduceTurn_DoesNotMutateInput(t *testing.T) {
	start := model.NewConversationState().WithTurn(model.SpeakerAssistant, "oi")
	_, _ = ReduceTurn(start, guidedQuery, NewFilterExtractor())

	assert.Len(t, start.History, 1)
	assert.True(t, start.Filters.IsEmpty())
}

func TestReduceTurn_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		phase model.DialoguePhase
		text  string
		want  model.DialoguePhase
	}{
		{"small talk keeps collecting", model.PhaseGreeting, "olá, tudo bem?", model.PhaseCollecting},
		{"price alone is not enough", model.PhaseCollecting, "até 2 milhões", model.PhaseCollecting},
		{"search directive forces search", model.PhaseCollecting, "pode buscar", model.PhaseReady},
		{"offer type is enough", model.PhaseCollecting, "quero arrendar", model.PhaseReady},
		{"browse directive", model.PhaseNoResults, "ver todos", model.PhaseReady},
		{"restart directive", model.PhaseResults, "nova busca", model.PhaseIdle},
	}

	e := NewFilterExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := model.NewConversationState()
			state.Phase = tt.phase
			next, reply := ReduceTurn(state, tt.text, e)
			assert.Equal(t, tt.want, next.Phase)
			assert.NotEmpty(t, reply)
		})
	}
}

func TestReduceTurn_NewStateDropsCityElsewhere(t *testing.T) {
	e := NewFilterExtractor()
	state, _ := ReduceTurn(model.NewConversationState(), "fazenda em Uberaba", e)
	require.NotNil(t, state.Filters.City)
	assert.Equal(t, "MG", *state.Filters.State)

	state, _ = ReduceTurn(state, "e em Goiás?", e)
	require.NotNil(t, state.Filters.State)
	assert.Equal(t, "GO", *state.Filters.State)
	assert.Nil(t, state.Filters.City)

	// Naming the city's own state keeps the city.
	state, _ = ReduceTurn(model.NewConversationState(), "fazenda em Uberaba", e)
	state, _ = ReduceTurn(state, "em Minas Gerais", e)
	require.NotNil(t, state.Filters.City)
	assert.Equal(t, "Uberaba", *state.Filters.City)
}

func TestSearchDialogue_EndToEnd(t *testing.T) {
	catalog := &fakeCatalog{entries: fixtureCatalog()}
	log := &fakeSearchLog{}
	d := newTestDialogue(catalog, log)

	open := d.Open()
	assert.Equal(t, model.PhaseGreeting, open.Phase)

	reply := d.SubmitTurn(context.Background(), guidedQuery)

	assert.Equal(t, model.PhaseResults, reply.Phase)
	assert.Equal(t, []int64{2, 5, 9}, entryIDs(reply.Candidates))
	assert.Contains(t, reply.Text, "Encontrei 3 imóveis")
	assert.Contains(t, reply.Text, "Fazenda Boa Vista")
	assert.Equal(t, 1, catalog.calls)

	require.Len(t, log.calls, 1)
	assert.Equal(t, guidedQuery, log.calls[0].query)
	assert.Equal(t, 3, log.calls[0].count)
	assert.Equal(t, []int64{2, 5, 9}, log.calls[0].ids)

	state := d.State()
	assert.True(t, state.ResultsShown)
	assert.Len(t, state.History, 3)
}

func TestSearchDialogue_CollectingDoesNotFetch(t *testing.T) {
	catalog := &fakeCatalog{entries: fixtureCatalog()}
	d := newTestDialogue(catalog, nil)

	reply := d.SubmitTurn(context.Background(), "olá, tudo bem?")
	assert.Equal(t, model.PhaseCollecting, reply.Phase)
	assert.Empty(t, reply.Candidates)
	assert.Equal(t, 0, catalog.calls)
}

func TestSearchDialogue_AccumulatesAcrossTurns(t *testing.T) {
	catalog := &fakeCatalog{entries: fixtureCatalog()}
	d := newTestDialogue(catalog, nil)

	first := d.SubmitTurn(context.Background(), "quero uma fazenda em Minas")
	assert.Equal(t, model.PhaseResults, first.Phase)

	second := d.SubmitTurn(context.Background(), "para pecuária")
	assert.Equal(t, model.PhaseResults, second.Phase)
	assert.Equal(t, []int64{2, 5, 9}, entryIDs(second.Candidates))

	third := d.SubmitTurn(context.Background(), "só para arrendamento")
	assert.Equal(t, []int64{5}, entryIDs(third.Candidates))
	assert.Equal(t, 3, catalog.calls)
}

func TestSearchDialogue_NoResultsThenBrowse(t *testing.T) {
	catalog := &fakeCatalog{entries: fixtureCatalog()}
	d := newTestDialogue(catalog, nil)

	reply := d.SubmitTurn(context.Background(), "fazenda em Roraima")
	assert.Equal(t, model.PhaseNoResults, reply.Phase)
	assert.Empty(t, reply.Candidates)
	assert.Contains(t, reply.Text, "ver todos")
	assert.Contains(t, reply.Text, "nova busca")

	browse := d.SubmitTurn(context.Background(), "ver todos")
	assert.Equal(t, model.PhaseResults, browse.Phase)
	assert.Len(t, browse.Candidates, 10)
	assert.Contains(t, browse.Text, "e mais 5")
}

func TestSearchDialogue_TurnWithoutNewInfoAfterResults(t *testing.T) {
	catalog := &fakeCatalog{entries: fixtureCatalog()}
	d := newTestDialogue(catalog, nil)

	d.SubmitTurn(context.Background(), guidedQuery)
	reply := d.SubmitTurn(context.Background(), "obrigado!")

	assert.Equal(t, model.PhaseCollecting, reply.Phase)
	assert.Equal(t, 1, catalog.calls)
}

func TestSearchDialogue_RestartBehavesLikeFresh(t *testing.T) {
	const next = "sítio de lazer em São Paulo"

	used := newTestDialogue(&fakeCatalog{entries: fixtureCatalog()}, nil)
	used.Open()
	used.SubmitTurn(context.Background(), guidedQuery)
	restarted := used.Restart()
	assert.Equal(t, model.PhaseIdle, restarted.Phase)
	assert.True(t, used.State().Filters.IsEmpty())

	fresh := newTestDialogue(&fakeCatalog{entries: fixtureCatalog()}, nil)

	got := used.SubmitTurn(context.Background(), next)
	want := fresh.SubmitTurn(context.Background(), next)
	assert.Equal(t, want, got)
	assert.Equal(t, fresh.State(), used.State())
}

func TestSearchDialogue_RestartDirective(t *testing.T) {
	d := newTestDialogue(&fakeCatalog{entries: fixtureCatalog()}, nil)
	d.SubmitTurn(context.Background(), guidedQuery)

	reply := d.SubmitTurn(context.Background(), "quero fazer uma nova busca")
	assert.Equal(t, model.PhaseIdle, reply.Phase)
	assert.True(t, d.State().Filters.IsEmpty())
	assert.Empty(t, d.State().History)
}

func TestSearchDialogue_CatalogFailureIsReply(t *testing.T) {
	catalog := &fakeCatalog{err: eris.New("catalog: connection refused")}
	d := newTestDialogue(catalog, nil)

	reply := d.SubmitTurn(context.Background(), guidedQuery)
	assert.Equal(t, model.PhaseCollecting, reply.Phase)
	assert.Equal(t, fetchErrText, reply.Text)
	assert.NotNil(t, reply.Filters.State)

	catalog.err = nil
	catalog.entries = fixtureCatalog()
	retry := d.SubmitTurn(context.Background(), "pode buscar")
	assert.Equal(t, model.PhaseResults, retry.Phase)
	assert.Len(t, retry.Candidates, 3)
}
