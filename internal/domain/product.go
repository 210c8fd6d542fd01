package domain

// UnknownTitle is the explicit fallback written when an optional lookup
// cannot be resolved to a display name. Full reindex rows and INSERT events
// use it; UPDATE events omit unresolved fields instead so merge semantics
// preserve the previous value.
const UnknownTitle = "Unknown"

// ProductRow is one catalog row with its lookup joins already resolved to
// display titles. An empty lookup field means the foreign key was absent or
// dangling.
type ProductRow struct {
	ID       string
	Title    string
	Price    string
	ImageURL string
	URL      string
	MOQ      string
	Country  string
	Category string
	Supplier string
	Source   string
}

// SearchDocument returns the flattened projection stored in the products
// index. The document id equals the source primary key so re-upserts stay
// idempotent, and every lookup field carries a display string, never a raw
// foreign key.
func (r ProductRow) SearchDocument() map[string]any {
	return map[string]any{
		"id":       r.ID,
		"title":    r.Title,
		"price":    r.Price,
		"image":    r.ImageURL,
		"url":      r.URL,
		"moq":      r.MOQ,
		"country":  orUnknown(r.Country),
		"category": orUnknown(r.Category),
		"supplier": orUnknown(r.Supplier),
		"source":   orUnknown(r.Source),
	}
}

func orUnknown(title string) string {
	if title == "" {
		return UnknownTitle
	}
	return title
}
