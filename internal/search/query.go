package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Hit is one ranked search result.
type Hit struct {
	ID    string
	Score float64
}

// Result is one page of ranked hits for a query.
type Result struct {
	Total uint64
	Hits  []Hit
}

// IDs returns the hit IDs in rank order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// SearchIdeas ranks ownerID's ideas against q, best match first.
// Equal scores fall back to newest first.
func (s *IdeaIndex) SearchIdeas(ctx context.Context, ownerID, q string, offset, limit int) (*Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return &Result{Hits: []Hit{}}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildIdeaQuery(ownerID, q), limit, offset, false)
	req.SortBy([]string{"-_score", "-created_at", "_id"})

	found, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Total: found.Total,
		Hits:  make([]Hit, 0, len(found.Hits)),
	}
	for _, hit := range found.Hits {
		result.Hits = append(result.Hits, Hit{ID: hit.ID, Score: hit.Score})
	}
	return result, nil
}

func ownerQuery(ownerID string) query.Query {
	tq := bleve.NewTermQuery(ownerID)
	tq.SetField("owner_id")
	return tq
}

// buildIdeaQuery matches content first, then labels, with fuzzy and prefix
// fallbacks for typos and partially typed words. The owner term is mandatory.
func buildIdeaQuery(ownerID, q string) query.Query {
	contentMatch := bleve.NewMatchQuery(q)
	contentMatch.SetField("content")
	contentMatch.SetBoost(3.0)

	textQueries := []query.Query{contentMatch}

	for _, field := range []string{"project", "theme"} {
		labelMatch := bleve.NewMatchQuery(q)
		labelMatch.SetField(field)
		labelMatch.SetBoost(1.0)
		textQueries = append(textQueries, labelMatch)
	}

	words := strings.Fields(strings.ToLower(q))
	if len(words) == 1 {
		fuzzyQuery := bleve.NewFuzzyQuery(words[0])
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("content")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)
	}

	// Prefix on the last word, minimum 2 chars.
	if last := words[len(words)-1]; len(last) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(last)
		prefixQuery.SetField("content")
		prefixQuery.SetBoost(0.5)
		textQueries = append(textQueries, prefixQuery)
	}

	return bleve.NewConjunctionQuery(ownerQuery(ownerID), bleve.NewDisjunctionQuery(textQueries...))
}
