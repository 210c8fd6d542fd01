package domain

// SupplierRow is one supplier record from the catalog source. Fields keep
// their source column names in the index so existing consumers keep working.
type SupplierRow struct {
	ID          string
	Title       string
	Description string
	Website     string
	Email       string
	Location    string
	Whatsapp    string
	CountryName string
	CityName    string
	SourceID    string
}

// EnrichedDocument merges the supplier's base attributes with the derived
// product aggregate. A supplier with no products still gets a document with
// product_count 0 and empty keywords.
func (s SupplierRow) EnrichedDocument(agg SupplierAggregate) map[string]any {
	return map[string]any{
		"Supplier_ID":           s.ID,
		"Supplier_Title":        s.Title,
		"Supplier_Description":  s.Description,
		"Supplier_Website":      s.Website,
		"Supplier_Email":        s.Email,
		"Supplier_Location":     s.Location,
		"Supplier_Whatsapp":     s.Whatsapp,
		"Supplier_Country_Name": s.CountryName,
		"Supplier_City_Name":    s.CityName,
		"Supplier_Source_ID":    s.SourceID,
		"product_count":         agg.Count,
		"product_keywords":      agg.Keywords(),
	}
}
