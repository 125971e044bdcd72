package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"ruralmatch/internal/model"
	"ruralmatch/internal/utils"

	"go.uber.org/zap"
)

const (
	greetingText = "Olá! Me conte que tipo de imóvel rural você procura: região, finalidade e se é para compra ou arrendamento."
	collectText  = "Para buscar, preciso saber a região (estado ou cidade), a finalidade ou se você procura venda ou arrendamento."
	refineText   = "Quer refinar a busca? Informe outra região, finalidade ou faixa de preço, ou diga \"nova busca\"."
	restartText  = "Certo, vamos começar de novo. Que imóvel você procura?"
	browseText   = "Vou mostrar todos os imóveis disponíveis."
	noResultText = "Não encontrei imóveis com esses critérios. Diga \"nova busca\" para recomeçar ou \"ver todos\" para ver o catálogo completo."
	fetchErrText = "Não consegui consultar o catálogo agora. Tente buscar novamente em instantes."
)

// ReduceTurn applies one user turn to state. It is pure: the returned state
// says what to do next (PhaseReady means a search should run) and the reply
// is the assistant's answer for every other phase.
func ReduceTurn(state model.ConversationState, text string, extractor *FilterExtractor) (model.ConversationState, string) {
	tokens := utils.Normalize(text)

	if utils.RestartDirectives.Any(tokens) {
		return model.NewConversationState(), restartText
	}

	state = state.WithTurn(model.SpeakerUser, text)
	state.Browse = false

	if utils.BrowseDirectives.Any(tokens) {
		state.Phase = model.PhaseReady
		state.Browse = true
		return state, browseText
	}

	detected := extractor.Detect(text)
	state.Filters = mergeFilters(state.Filters, detected)
	searchNow := utils.SearchDirectives.Any(tokens)

	// After results, only a turn that adds something triggers a new search.
	afterResults := state.Phase == model.PhaseResults || state.Phase == model.PhaseNoResults
	switch {
	case searchNow:
		state.Phase = model.PhaseReady
		return state, "Buscando imóveis" + describeFilters(state.Filters) + "."
	case state.Filters.HasSearchDimension() && (!afterResults || !detected.IsEmpty()):
		state.Phase = model.PhaseReady
		return state, "Buscando imóveis" + describeFilters(state.Filters) + "."
	case afterResults:
		state.Phase = model.PhaseCollecting
		return state, refineText
	default:
		state.Phase = model.PhaseCollecting
		return state, collectText
	}
}

// DialogueReply is the outcome of one dialogue turn.
type DialogueReply struct {
	Text       string               `json:"reply"`
	Phase      model.DialoguePhase  `json:"phase"`
	Filters    model.FilterSet      `json:"filters"`
	Candidates []model.CatalogEntry `json:"candidates,omitempty"`
}

// SearchDialogue drives a guided search conversation. Turns are serialized,
// so at most one catalog fetch is outstanding per dialogue.
type SearchDialogue struct {
	mu        sync.Mutex
	state     model.ConversationState
	extractor *FilterExtractor
	catalog   CatalogClient
	searchLog SearchLogger
	maxListed int
}

// NewSearchDialogue creates a dialogue in the idle phase. searchLog may be nil.
func NewSearchDialogue(extractor *FilterExtractor, catalog CatalogClient, searchLog SearchLogger, maxListed int) *SearchDialogue {
	if maxListed <= 0 {
		maxListed = 5
	}
	return &SearchDialogue{
		state:     model.NewConversationState(),
		extractor: extractor,
		catalog:   catalog,
		searchLog: searchLog,
		maxListed: maxListed,
	}
}

// Open greets the user. Opening an already open dialogue is a no-op.
func (d *SearchDialogue) Open() DialogueReply {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.Phase == model.PhaseIdle && len(d.state.History) == 0 {
		d.state = d.state.WithTurn(model.SpeakerAssistant, greetingText)
		d.state.Phase = model.PhaseGreeting
	}
	return DialogueReply{Text: greetingText, Phase: d.state.Phase, Filters: d.state.Filters}
}

// State returns a snapshot of the conversation.
func (d *SearchDialogue) State() model.ConversationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Restart discards accumulated filters and history.
func (d *SearchDialogue) Restart() DialogueReply {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = model.NewConversationState()
	return DialogueReply{Text: restartText, Phase: d.state.Phase}
}

// SubmitTurn processes a user message and, when enough is known, runs the
// search. Collaborator failures become reply text; they are never returned.
func (d *SearchDialogue) SubmitTurn(ctx context.Context, text string) DialogueReply {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.state.Phase
	next, reply := ReduceTurn(d.state, text, d.extractor)
	zap.L().Debug("dialogue turn",
		zap.String("from", string(prev)),
		zap.String("to", string(next.Phase)),
		zap.Any("filters", next.Filters),
	)

	if next.Phase != model.PhaseReady {
		if next.Phase != model.PhaseIdle {
			next = next.WithTurn(model.SpeakerAssistant, reply)
		}
		d.state = next
		return DialogueReply{Text: reply, Phase: next.Phase, Filters: next.Filters}
	}

	next.Phase = model.PhaseSearching
	d.state = next
	return d.search(ctx, text)
}

func (d *SearchDialogue) search(ctx context.Context, query string) DialogueReply {
	entries, err := d.catalog.FetchActiveListings(ctx)
	if err != nil {
		zap.L().Warn("catalog fetch failed", zap.Error(err))
		d.state.Phase = model.PhaseCollecting
		d.state = d.state.WithTurn(model.SpeakerAssistant, fetchErrText)
		return DialogueReply{Text: fetchErrText, Phase: d.state.Phase, Filters: d.state.Filters}
	}

	matches := entries
	if !d.state.Browse {
		matches = ApplyHardFilters(d.state.Filters, entries)
	}
	d.logSearch(ctx, query, matches)

	var reply string
	if len(matches) == 0 {
		d.state.Phase = model.PhaseNoResults
		reply = noResultText
	} else {
		d.state.Phase = model.PhaseResults
		d.state.ResultsShown = true
		reply = d.renderResults(matches)
	}
	d.state = d.state.WithTurn(model.SpeakerAssistant, reply)

	zap.L().Info("guided search",
		zap.String("phase", string(d.state.Phase)),
		zap.Bool("browse", d.state.Browse),
		zap.Int("catalog", len(entries)),
		zap.Int("matches", len(matches)),
	)
	return DialogueReply{Text: reply, Phase: d.state.Phase, Filters: d.state.Filters, Candidates: matches}
}

func (d *SearchDialogue) logSearch(ctx context.Context, query string, matches []model.CatalogEntry) {
	if d.searchLog == nil {
		return
	}
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	if err := d.searchLog.LogSearch(ctx, query, d.state.Filters, len(matches), ids); err != nil {
		zap.L().Warn("search log failed", zap.Error(err))
	}
}

func (d *SearchDialogue) renderResults(matches []model.CatalogEntry) string {
	var b strings.Builder
	if len(matches) == 1 {
		b.WriteString("Encontrei 1 imóvel:")
	} else {
		fmt.Fprintf(&b, "Encontrei %d imóveis:", len(matches))
	}
	for i, m := range matches {
		if i == d.maxListed {
			fmt.Fprintf(&b, "\n... e mais %d.", len(matches)-d.maxListed)
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, describeEntry(m))
	}
	return b.String()
}

func describeEntry(e model.CatalogEntry) string {
	parts := []string{e.Title}
	if d := e.Detail; d != nil && (d.City != "" || d.State != "") {
		switch {
		case d.City != "" && d.State != "":
			parts = append(parts, d.City+"/"+d.State)
		case d.City != "":
			parts = append(parts, d.City)
		default:
			parts = append(parts, d.State)
		}
	}
	if e.Price != "" {
		parts = append(parts, e.Price)
	}
	return strings.Join(parts, " - ")
}

// describeFilters renders the known dimensions, e.g. " (Fazenda, Pecuária, MG)".
func describeFilters(f model.FilterSet) string {
	var parts []string
	if f.PropertyType != nil {
		parts = append(parts, *f.PropertyType)
	}
	if f.Purpose != nil {
		parts = append(parts, f.Purpose.Label())
	}
	if f.OfferType != nil {
		parts = append(parts, f.OfferType.Label())
	}
	switch {
	case f.City != nil && f.State != nil:
		parts = append(parts, *f.City+"/"+*f.State)
	case f.City != nil:
		parts = append(parts, *f.City)
	case f.State != nil:
		parts = append(parts, *f.State)
	}
	if f.PriceCeiling != nil {
		parts = append(parts, "até "+utils.FormatCurrency(int64(math.Round(*f.PriceCeiling))))
	}
	if f.AreaFloor != nil {
		parts = append(parts, "a partir de "+utils.FormatNumber(*f.AreaFloor)+" ha")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
