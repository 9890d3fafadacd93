package deals

import (
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// View is the API projection of a deal.
type View struct {
	ID            uuid.UUID        `json:"id"`
	Status        enums.DealStatus `json:"status"`
	BuyerID       uuid.UUID        `json:"buyer_id"`
	SellerID      *uuid.UUID       `json:"seller_id,omitempty"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Description   *string          `json:"description,omitempty"`
	SellerName    *string          `json:"seller_name,omitempty"`
	SellerMobile  *string          `json:"seller_mobile,omitempty"`
	DecidedByID   *uuid.UUID       `json:"decided_by_id,omitempty"`
	DecidedAt     *time.Time       `json:"decided_at,omitempty"`
	DecisionNotes *string          `json:"decision_notes,omitempty"`
	Items         []ItemView       `json:"items,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ItemView is one product line inside a deal, carrying the snapshot taken
// when the deal was created.
type ItemView struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	SerialNumber string          `json:"serial_number"`
	Name         string          `json:"name"`
	BrandName    *string         `json:"brand_name,omitempty"`
	CategoryName *string         `json:"category_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
}

// FromModel maps a deal row to its API view.
func FromModel(deal *models.SaleDeal) View {
	if deal == nil {
		return View{}
	}
	items := make([]ItemView, 0, len(deal.Items))
	for _, item := range deal.Items {
		items = append(items, ItemView{
			ID:           item.ID,
			ProductID:    item.ProductID,
			SerialNumber: item.SerialNumber,
			Name:         item.Name,
			BrandName:    item.BrandName,
			CategoryName: item.CategoryName,
			Price:        item.Price,
		})
	}
	return View{
		ID:            deal.ID,
		Status:        deal.Status,
		BuyerID:       deal.BuyerID,
		SellerID:      deal.SellerID,
		TotalAmount:   deal.TotalAmount,
		Description:   deal.Description,
		SellerName:    deal.SellerName,
		SellerMobile:  deal.SellerMobile,
		DecidedByID:   deal.DecidedByID,
		DecidedAt:     deal.DecidedAt,
		DecisionNotes: deal.DecisionNotes,
		Items:         items,
		CreatedAt:     deal.CreatedAt,
	}
}

// ViewsFromModels maps a slice of deal rows.
func ViewsFromModels(rows []models.SaleDeal) []View {
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, FromModel(&rows[i]))
	}
	return views
}
