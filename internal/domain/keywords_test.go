package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSupplierAggregates_CountsAndKeywords(t *testing.T) {
	aggregates := BuildSupplierAggregates([]ProductKeywordSource{
		{SupplierID: "s1", Title: "Cotton Shirt", CategoryName: "Textiles"},
		{SupplierID: "s1", Title: "Cotton Scarf", CategoryName: "Textiles"},
		{SupplierID: "s2", Title: "Steel Pipe", CategoryName: "Hardware"},
	})

	require.Len(t, aggregates, 2)
	assert.Equal(t, 2, aggregates["s1"].Count)
	assert.Equal(t, 1, aggregates["s2"].Count)
	assert.Equal(t, "cotton shirt textiles scarf", aggregates["s1"].Keywords())
	assert.Equal(t, "steel pipe hardware", aggregates["s2"].Keywords())
}

func TestBuildSupplierAggregates_LowercasesTokens(t *testing.T) {
	aggregates := BuildSupplierAggregates([]ProductKeywordSource{
		{SupplierID: "s1", Title: "COTTON Shirt", CategoryName: "TeXtIlEs"},
	})

	assert.Equal(t, "cotton shirt textiles", aggregates["s1"].Keywords())
}

func TestBuildSupplierAggregates_DropsShortTokens(t *testing.T) {
	aggregates := BuildSupplierAggregates([]ProductKeywordSource{
		{SupplierID: "s1", Title: "A to Z of Tea", CategoryName: ""},
	})

	// Tokens of 2 characters or fewer are excluded; "tea" (3 chars) stays.
	assert.Equal(t, "tea", aggregates["s1"].Keywords())
}

func TestBuildSupplierAggregates_DeduplicatesAcrossProducts(t *testing.T) {
	aggregates := BuildSupplierAggregates([]ProductKeywordSource{
		{SupplierID: "s1", Title: "Leather Bag", CategoryName: "Leather"},
		{SupplierID: "s1", Title: "Leather Belt", CategoryName: "Leather"},
	})

	assert.Equal(t, []string{"leather", "bag", "belt"}, aggregates["s1"].KeywordSet())
}

func TestBuildSupplierAggregates_SkipsProductsWithoutSupplier(t *testing.T) {
	aggregates := BuildSupplierAggregates([]ProductKeywordSource{
		{SupplierID: "", Title: "Orphan Product"},
	})

	assert.Empty(t, aggregates)
}

func TestBuildSupplierAggregates_Deterministic(t *testing.T) {
	input := []ProductKeywordSource{
		{SupplierID: "s1", Title: "Woven Basket", CategoryName: "Home Goods"},
		{SupplierID: "s1", Title: "Clay Vase", CategoryName: "Home Goods"},
	}

	first := BuildSupplierAggregates(input)["s1"].Keywords()
	second := BuildSupplierAggregates(input)["s1"].Keywords()
	assert.Equal(t, first, second, "same input must produce the same keyword string")
}
