package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
)

func TestChangeEvent_Validate(t *testing.T) {
	validRecord := &ProductRecord{ProductID: "p1", Title: "Cotton Shirt"}

	tests := []struct {
		name    string
		event   ChangeEvent
		wantErr bool
	}{
		{"valid insert", ChangeEvent{Type: ChangeInsert, Record: validRecord}, false},
		{"valid update", ChangeEvent{Type: ChangeUpdate, Record: validRecord}, false},
		{"valid delete", ChangeEvent{Type: ChangeDelete, OldRecord: &DeletedRecord{ProductID: "p1"}}, false},
		{"empty type", ChangeEvent{Record: validRecord}, true},
		{"unsupported type", ChangeEvent{Type: "TRUNCATE", Record: validRecord}, true},
		{"lowercase type", ChangeEvent{Type: "insert", Record: validRecord}, true},
		{"insert missing record", ChangeEvent{Type: ChangeInsert}, true},
		{"insert missing id", ChangeEvent{Type: ChangeInsert, Record: &ProductRecord{Title: "Shirt"}}, true},
		{"insert missing title", ChangeEvent{Type: ChangeInsert, Record: &ProductRecord{ProductID: "p1"}}, true},
		{"update missing record", ChangeEvent{Type: ChangeUpdate}, true},
		{"delete missing old record", ChangeEvent{Type: ChangeDelete}, true},
		{"delete missing id", ChangeEvent{Type: ChangeDelete, OldRecord: &DeletedRecord{}}, true},
		{"delete ignores record", ChangeEvent{Type: ChangeDelete, Record: validRecord, OldRecord: &DeletedRecord{ProductID: "p1"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChangeEvent_UnmarshalsWebhookPayload(t *testing.T) {
	payload := `{
		"type": "UPDATE",
		"record": {
			"Product_ID": "p1",
			"Product_Title": "Cotton Shirt",
			"Product_Price": "12.50",
			"Product_Country_ID": "c1"
		},
		"old_record": {"Product_ID": "p1"}
	}`

	var event ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	require.NoError(t, event.Validate())

	assert.Equal(t, ChangeUpdate, event.Type)
	assert.Equal(t, "p1", event.Record.ProductID)
	assert.Equal(t, "12.50", event.Record.Price)
	assert.Equal(t, "c1", event.Record.CountryID)
}

func TestChangeEvent_ProductID(t *testing.T) {
	insert := ChangeEvent{Type: ChangeInsert, Record: &ProductRecord{ProductID: "p1"}}
	assert.Equal(t, "p1", insert.ProductID())

	del := ChangeEvent{Type: ChangeDelete, OldRecord: &DeletedRecord{ProductID: "p2"}}
	assert.Equal(t, "p2", del.ProductID())

	assert.Equal(t, "", (&ChangeEvent{}).ProductID())
}

func TestProductRow_SearchDocument(t *testing.T) {
	row := ProductRow{
		ID:       "p1",
		Title:    "Cotton Shirt",
		Price:    "12.50",
		ImageURL: "https://img.example/p1.jpg",
		URL:      "https://example.com/p1",
		MOQ:      "100",
		Country:  "Mexico",
		Category: "Textiles",
		Supplier: "Acme",
		Source:   "Alibaba",
	}

	doc := row.SearchDocument()
	assert.Equal(t, "p1", doc["id"])
	assert.Equal(t, "Cotton Shirt", doc["title"])
	assert.Equal(t, "12.50", doc["price"])
	assert.Equal(t, "https://img.example/p1.jpg", doc["image"])
	assert.Equal(t, "Mexico", doc["country"])
	assert.Equal(t, "Alibaba", doc["source"])
}

func TestProductRow_SearchDocumentUnknownFallback(t *testing.T) {
	doc := ProductRow{ID: "p1", Title: "Shirt"}.SearchDocument()

	assert.Equal(t, UnknownTitle, doc["country"])
	assert.Equal(t, UnknownTitle, doc["category"])
	assert.Equal(t, UnknownTitle, doc["supplier"])
	assert.Equal(t, UnknownTitle, doc["source"])
	// Plain attributes stay empty rather than Unknown.
	assert.Equal(t, "", doc["price"])
}

func TestSupplierRow_EnrichedDocument(t *testing.T) {
	var agg SupplierAggregate
	agg.Count = 2
	agg.addText("cotton shirt")

	doc := SupplierRow{
		ID:          "s1",
		Title:       "Acme Textiles",
		CountryName: "Mexico",
	}.EnrichedDocument(agg)

	assert.Equal(t, "s1", doc["Supplier_ID"])
	assert.Equal(t, "Acme Textiles", doc["Supplier_Title"])
	assert.Equal(t, "Mexico", doc["Supplier_Country_Name"])
	assert.Equal(t, 2, doc["product_count"])
	assert.Equal(t, "cotton shirt", doc["product_keywords"])
}
