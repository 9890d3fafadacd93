package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
)

// View is the API projection of a product row.
type View struct {
	ID           uuid.UUID           `json:"id"`
	SerialNumber string              `json:"serial_number"`
	Name         string              `json:"name"`
	Description  *string             `json:"description,omitempty"`
	Status       enums.ProductStatus `json:"status"`
	OwnerID      uuid.UUID           `json:"owner_id"`
	CategoryID   *uuid.UUID          `json:"category_id,omitempty"`
	BrandID      *uuid.UUID          `json:"brand_id,omitempty"`
	RegisteredAt time.Time           `json:"registered_at"`
	CreatedAt    time.Time           `json:"created_at"`
}

// PublicView is the anonymous verification projection. It never exposes the
// owner.
type PublicView struct {
	SerialNumber string              `json:"serial_number"`
	Name         string              `json:"name"`
	Status       enums.ProductStatus `json:"status"`
	CategoryID   *uuid.UUID          `json:"category_id,omitempty"`
	BrandID      *uuid.UUID          `json:"brand_id,omitempty"`
	SaleEligible bool                `json:"sale_eligible"`
}

// StatusLogView is the API projection of one status audit entry.
type StatusLogView struct {
	ID          uuid.UUID            `json:"id"`
	OldStatus   *enums.ProductStatus `json:"old_status,omitempty"`
	NewStatus   enums.ProductStatus  `json:"new_status"`
	ChangedByID *uuid.UUID           `json:"changed_by_id,omitempty"`
	DealID      *uuid.UUID           `json:"deal_id,omitempty"`
	Note        string               `json:"note"`
	ChangedAt   time.Time            `json:"changed_at"`
}

// OwnershipView is the API projection of one ownership audit entry.
type OwnershipView struct {
	ID              uuid.UUID             `json:"id"`
	PreviousOwnerID *uuid.UUID            `json:"previous_owner_id,omitempty"`
	NewOwnerID      uuid.UUID             `json:"new_owner_id"`
	DealID          *uuid.UUID            `json:"deal_id,omitempty"`
	Method          enums.OwnershipMethod `json:"method"`
	TransferredAt   time.Time             `json:"transferred_at"`
}

// FromModel maps a product row to its API view.
func FromModel(product *models.Product) View {
	if product == nil {
		return View{}
	}
	return View{
		ID:           product.ID,
		SerialNumber: product.SerialNumber,
		Name:         product.Name,
		Description:  product.Description,
		Status:       product.Status,
		OwnerID:      product.OwnerID,
		CategoryID:   product.CategoryID,
		BrandID:      product.BrandID,
		RegisteredAt: product.RegisteredAt,
		CreatedAt:    product.CreatedAt,
	}
}

// PublicFromVerification maps an anonymous lookup result to its view.
func PublicFromVerification(v *Verification) PublicView {
	if v == nil || v.Product == nil {
		return PublicView{}
	}
	return PublicView{
		SerialNumber: v.Product.SerialNumber,
		Name:         v.Product.Name,
		Status:       v.Product.Status,
		CategoryID:   v.Product.CategoryID,
		BrandID:      v.Product.BrandID,
		SaleEligible: v.SaleEligible,
	}
}

// ViewsFromModels maps a slice of product rows.
func ViewsFromModels(rows []models.Product) []View {
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, FromModel(&rows[i]))
	}
	return views
}

// StatusLogViews maps status audit rows.
func StatusLogViews(rows []models.ProductStatusLog) []StatusLogView {
	views := make([]StatusLogView, 0, len(rows))
	for _, row := range rows {
		views = append(views, StatusLogView{
			ID:          row.ID,
			OldStatus:   row.OldStatus,
			NewStatus:   row.NewStatus,
			ChangedByID: row.ChangedByID,
			DealID:      row.DealID,
			Note:        row.Note,
			ChangedAt:   row.ChangedAt,
		})
	}
	return views
}

// OwnershipViews maps ownership audit rows.
func OwnershipViews(rows []models.ProductOwnership) []OwnershipView {
	views := make([]OwnershipView, 0, len(rows))
	for _, row := range rows {
		views = append(views, OwnershipView{
			ID:              row.ID,
			PreviousOwnerID: row.PreviousOwnerID,
			NewOwnerID:      row.NewOwnerID,
			DealID:          row.DealID,
			Method:          row.Method,
			TransferredAt:   row.TransferredAt,
		})
	}
	return views
}
