package service

import (
	"sort"
	"strings"

	"ruralmatch/internal/model"
	"ruralmatch/internal/utils"
)

// Match reason constants
const (
	ReasonTypeMatch    = "Tipo compatível"
	ReasonCityMatch    = "Cidade compatível"
	ReasonStateMatch   = "Estado compatível"
	ReasonPurposeMatch = "Finalidade compatível"
	ReasonKeyword      = "Menciona"
	ReasonGeneralMatch = "Sugestão geral"
)

// DefaultTopK is used when a caller asks for k <= 0.
const DefaultTopK = 3

// RankingWeights are the points awarded per matching dimension.
type RankingWeights struct {
	Type    float64
	City    float64
	State   float64
	Purpose float64
	Keyword float64
}

// DefaultRankingWeights returns the standard weights.
func DefaultRankingWeights() RankingWeights {
	return RankingWeights{Type: 10, City: 15, State: 10, Purpose: 10, Keyword: 5}
}

// RankQuery is what candidates are scored against: the filters detected in
// a description plus the keyword concepts it mentions.
type RankQuery struct {
	Filters  model.FilterSet
	Keywords []map[string]struct{}
}

// NewRankQuery builds a query from free text.
func NewRankQuery(text string, extractor *FilterExtractor) RankQuery {
	tokens := utils.Normalize(text)
	q := RankQuery{Filters: extractor.Detect(text)}
	for _, dict := range utils.KeywordCategories {
		q.Keywords = append(q.Keywords, dict.Set(tokens))
	}
	return q
}

// Ranker handles ranking and scoring of catalog entries
type Ranker struct {
	weights  RankingWeights
	defaultK int
}

// NewRanker creates a new ranker with specified weights
func NewRanker(weights RankingWeights, defaultK int) *Ranker {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &Ranker{weights: weights, defaultK: defaultK}
}

// Rank scores every candidate, sorts by descending score and returns at most
// k entries. Equal scores keep catalog order. When nothing scores, the first
// k candidates are still returned with score 0 so the caller always has a
// shortlist; HasRelevantMatch tells the two cases apart.
func (r *Ranker) Rank(q RankQuery, candidates []model.CatalogEntry, k int) []model.ScoredCandidate {
	if k <= 0 {
		k = r.defaultK
	}
	results := make([]model.ScoredCandidate, 0, len(candidates))
	for _, entry := range candidates {
		score, reasons := r.score(q, entry)
		results = append(results, model.ScoredCandidate{
			Entry:          entry,
			Score:          score,
			MatchedReasons: reasons,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// HasRelevantMatch reports whether any ranked candidate scored above zero.
func HasRelevantMatch(results []model.ScoredCandidate) bool {
	for _, r := range results {
		if r.Score > 0 {
			return true
		}
	}
	return false
}

func (r *Ranker) score(q RankQuery, entry model.CatalogEntry) (float64, []string) {
	var score float64
	reasons := []string{}
	f := q.Filters
	d := entry.Detail

	if f.PropertyType != nil && sameFolded(entry.Category, *f.PropertyType) {
		score += r.weights.Type
		reasons = append(reasons, ReasonTypeMatch)
	}
	if d != nil {
		if f.City != nil && sameFolded(d.City, *f.City) {
			score += r.weights.City
			reasons = append(reasons, ReasonCityMatch)
		}
		if f.State != nil && strings.EqualFold(d.State, *f.State) {
			score += r.weights.State
			reasons = append(reasons, ReasonStateMatch)
		}
		if f.Purpose != nil && d.HasPurpose(*f.Purpose) {
			score += r.weights.Purpose
			reasons = append(reasons, ReasonPurposeMatch)
		}
	}

	if shared := sharedKeywords(q.Keywords, entry); len(shared) > 0 {
		score += r.weights.Keyword * float64(len(shared))
		reasons = append(reasons, ReasonKeyword+": "+strings.Join(shared, ", "))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	return score, reasons
}

// sharedKeywords returns the concepts mentioned by both the query and the
// entry's title or attribute lists, category by category.
func sharedKeywords(query []map[string]struct{}, entry model.CatalogEntry) []string {
	if len(query) == 0 {
		return nil
	}
	tokens := utils.Normalize(entryText(entry))

	var shared []string
	for i, dict := range utils.KeywordCategories {
		if i >= len(query) || len(query[i]) == 0 {
			continue
		}
		have := dict.Set(tokens)
		for _, c := range dict.Canonicals() {
			_, inQuery := query[i][c]
			_, inEntry := have[c]
			if inQuery && inEntry {
				shared = append(shared, c)
			}
		}
	}
	return shared
}

// entryText serializes the matchable attributes of an entry.
func entryText(entry model.CatalogEntry) string {
	parts := []string{entry.Title}
	if d := entry.Detail; d != nil {
		parts = append(parts, d.WaterSources...)
		parts = append(parts, d.Energy...)
		parts = append(parts, d.SoilTypes...)
		parts = append(parts, d.Structures...)
	}
	return strings.Join(parts, " ; ")
}

func sameFolded(a, b string) bool {
	return a != "" && utils.NormalizeJoined(a) == utils.NormalizeJoined(b)
}
