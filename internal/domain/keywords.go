package domain

import "strings"

// minKeywordLen excludes short stop-word-like tokens from the keyword bag.
// Tokens must be strictly longer than 2 characters.
const minKeywordLen = 3

// ProductKeywordSource is the slice of a product row the keyword aggregation
// reads: the owning supplier plus the searchable text fields.
type ProductKeywordSource struct {
	SupplierID   string
	Title        string
	CategoryName string
}

// SupplierAggregate is the per-supplier product aggregate: a product count
// and a deduplicated keyword set. The set keeps insertion order so repeated
// runs over the same input produce the same joined string.
type SupplierAggregate struct {
	Count int

	seen  map[string]struct{}
	order []string
}

// add records one lowercased token, ignoring duplicates and short tokens.
func (a *SupplierAggregate) add(token string) {
	if len(token) < minKeywordLen {
		return
	}
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	if _, ok := a.seen[token]; ok {
		return
	}
	a.seen[token] = struct{}{}
	a.order = append(a.order, token)
}

// addText tokenizes text by whitespace, lowercases it, and records each token.
func (a *SupplierAggregate) addText(text string) {
	for _, token := range strings.Fields(strings.ToLower(text)) {
		a.add(token)
	}
}

// Keywords returns the space-joined keyword set.
func (a SupplierAggregate) Keywords() string {
	return strings.Join(a.order, " ")
}

// KeywordSet returns the keyword set as a slice, for callers that need
// membership checks.
func (a SupplierAggregate) KeywordSet() []string {
	return a.order
}

// BuildSupplierAggregates groups products by supplier id, counting products
// and collecting title and category keywords. The result is rebuilt from
// scratch on every call, never merged with a previous run. Products without
// a supplier are skipped.
func BuildSupplierAggregates(products []ProductKeywordSource) map[string]*SupplierAggregate {
	aggregates := make(map[string]*SupplierAggregate)

	for _, p := range products {
		if p.SupplierID == "" {
			continue
		}

		agg, ok := aggregates[p.SupplierID]
		if !ok {
			agg = &SupplierAggregate{}
			aggregates[p.SupplierID] = agg
		}

		agg.Count++
		agg.addText(p.Title)
		agg.addText(p.CategoryName)
	}

	return aggregates
}
