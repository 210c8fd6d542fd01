// Package domain holds the catalog synchronization model: change events,
// source rows, and their flattened search-document projections.
package domain

import (
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
	"github.com/ihaney/Alpha.A1/pkg/validator"
)

// ChangeType identifies a row-level mutation in the catalog source.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ProductRecord is the row payload delivered with INSERT and UPDATE change
// events. Field names follow the source schema; foreign keys are raw IDs that
// must be resolved before the document is written.
type ProductRecord struct {
	ProductID  string `json:"Product_ID" validate:"required"`
	Title      string `json:"Product_Title"`
	Price      string `json:"Product_Price,omitempty"`
	ImageURL   string `json:"Product_Image_URL,omitempty"`
	TitleURL   string `json:"Product_Title_URL,omitempty"`
	MOQ        string `json:"Product_MOQ,omitempty"`
	CountryID  string `json:"Product_Country_ID,omitempty"`
	CategoryID string `json:"Product_Category_ID,omitempty"`
	SupplierID string `json:"Product_Supplier_ID,omitempty"`
	SourceID   string `json:"Product_Source_ID,omitempty"`
}

// DeletedRecord is the minimal payload delivered with DELETE change events.
type DeletedRecord struct {
	ProductID string `json:"Product_ID" validate:"required"`
}

// ChangeEvent is one row-level insert/update/delete notification from the
// catalog source. INSERT and UPDATE require Record; DELETE requires OldRecord.
type ChangeEvent struct {
	Type      ChangeType     `json:"type" validate:"required,oneof=INSERT UPDATE DELETE"`
	Record    *ProductRecord `json:"record,omitempty"`
	OldRecord *DeletedRecord `json:"old_record,omitempty"`
}

// ProductID returns the primary key the event targets, from whichever
// payload the event carries.
func (e *ChangeEvent) ProductID() string {
	switch {
	case e.Record != nil:
		return e.Record.ProductID
	case e.OldRecord != nil:
		return e.OldRecord.ProductID
	}
	return ""
}

// Validate checks the event shape. A malformed event must be rejected before
// any index mutation is attempted.
func (e *ChangeEvent) Validate() error {
	if err := validator.Validate(e); err != nil {
		return apperrors.Validation(err.Error())
	}

	switch e.Type {
	case ChangeInsert, ChangeUpdate:
		if e.Record == nil {
			return apperrors.Validation("record required for " + string(e.Type))
		}
		if e.Record.ProductID == "" {
			return apperrors.Validation("record.Product_ID is required")
		}
		if e.Record.Title == "" {
			return apperrors.Validation("record.Product_Title is required")
		}
	case ChangeDelete:
		if e.OldRecord == nil {
			return apperrors.Validation("old_record required for DELETE")
		}
		if e.OldRecord.ProductID == "" {
			return apperrors.Validation("old_record.Product_ID is required")
		}
	}

	return nil
}
