package index

// IndexConfig describes one search index: its name, primary key, and managed
// settings.
type IndexConfig struct {
	Name       string
	PrimaryKey string
	Settings   Settings
}

const (
	// IndexProducts holds the flattened product documents.
	IndexProducts = "products"
	// IndexSuppliers holds the keyword-enriched supplier documents.
	IndexSuppliers = "suppliers"
)

// defaultRankingRules is the engine's standard relevance ordering.
var defaultRankingRules = []string{
	"words",
	"typo",
	"proximity",
	"attribute",
	"sort",
	"exactness",
}

// Indexes is the configuration for all search indexes the pipeline manages.
var Indexes = map[string]IndexConfig{
	IndexProducts: {
		Name:       IndexProducts,
		PrimaryKey: "id",
		Settings: Settings{
			SearchableAttributes: []string{
				"title",
				"category",
				"supplier",
				"country",
			},
			FilterableAttributes: []string{
				"category",
				"country",
				"source",
				"supplier",
			},
			SortableAttributes: []string{"price"},
			RankingRules:       defaultRankingRules,
			TypoTolerance: &TypoTolerance{
				Enabled:  true,
				OneTypo:  4,
				TwoTypos: 8,
			},
			MaxTotalHits: 100000,
		},
	},
	IndexSuppliers: {
		Name:       IndexSuppliers,
		PrimaryKey: "Supplier_ID",
		Settings: Settings{
			SearchableAttributes: []string{
				"Supplier_Title",
				"Supplier_Description",
				"Supplier_Location",
				"Supplier_Country_Name",
				"Supplier_City_Name",
				"Supplier_Email",
				"Supplier_Whatsapp",
				"Supplier_ID",
				"product_keywords",
			},
			FilterableAttributes: []string{
				"Supplier_Country_Name",
				"Supplier_Source_ID",
				"product_count",
			},
			SortableAttributes: []string{
				"Supplier_Title",
				"Supplier_Country_Name",
				"product_count",
			},
			DisplayedAttributes: []string{
				"Supplier_ID",
				"Supplier_Title",
				"Supplier_Description",
				"Supplier_Location",
				"Supplier_Country_Name",
				"Supplier_City_Name",
				"Supplier_Email",
				"Supplier_Whatsapp",
				"Supplier_Website",
				"Supplier_Source_ID",
				"product_count",
				"product_keywords",
			},
			// Suppliers with more products rank higher on ties.
			RankingRules: append(append([]string{}, defaultRankingRules...), "product_count:desc"),
		},
	},
}
