package deals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence surface the deal service depends on. Deal
// approval rewrites product rows, so the product side of the transfer lives
// here too.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateDeal(ctx context.Context, deal *models.SaleDeal) (*models.SaleDeal, error)
	CreateDealItems(ctx context.Context, items []models.DealItem) error
	FindDealByID(ctx context.Context, id uuid.UUID) (*models.SaleDeal, error)
	FindDealByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.SaleDeal, error)
	FindDealItems(ctx context.Context, dealID uuid.UUID) ([]models.DealItem, error)
	ListDealsByParticipant(ctx context.Context, userID uuid.UUID, limit int, before *time.Time) ([]models.SaleDeal, error)
	ListDealsByStatus(ctx context.Context, status enums.DealStatus, limit int, before *time.Time) ([]models.SaleDeal, error)

	// UpdateDealDecisionGuarded finalizes the deal only while it is still
	// PENDING. Returns the number of rows written.
	UpdateDealDecisionGuarded(ctx context.Context, dealID uuid.UUID, status enums.DealStatus, decidedBy uuid.UUID, decidedAt time.Time, notes *string) (int64, error)

	FindProductsByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	UpdateProductOwner(ctx context.Context, productID, newOwnerID uuid.UUID) error
	AppendOwnership(ctx context.Context, entry *models.ProductOwnership) error
	AppendStatusLog(ctx context.Context, entry *models.ProductStatusLog) error

	FindCategoryNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	FindBrandNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a deals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateDeal(ctx context.Context, deal *models.SaleDeal) (*models.SaleDeal, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(deal).Error; err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *repository) CreateDealItems(ctx context.Context, items []models.DealItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindDealByID(ctx context.Context, id uuid.UUID) (*models.SaleDeal, error) {
	var deal models.SaleDeal
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repository) FindDealByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.SaleDeal, error) {
	var deal models.SaleDeal
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&deal).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repository) FindDealItems(ctx context.Context, dealID uuid.UUID) ([]models.DealItem, error) {
	var items []models.DealItem
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListDealsByParticipant(ctx context.Context, userID uuid.UUID, limit int, before *time.Time) ([]models.SaleDeal, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ? OR seller_id = ?", userID, userID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var rows []models.SaleDeal
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListDealsByStatus(ctx context.Context, status enums.DealStatus, limit int, before *time.Time) ([]models.SaleDeal, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var rows []models.SaleDeal
	err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateDealDecisionGuarded(ctx context.Context, dealID uuid.UUID, status enums.DealStatus, decidedBy uuid.UUID, decidedAt time.Time, notes *string) (int64, error) {
	updates := map[string]any{
		"status":        status,
		"decided_by_id": decidedBy,
		"decided_at":    decidedAt,
	}
	if notes != nil {
		updates["decision_notes"] = *notes
	}
	res := r.db.WithContext(ctx).
		Model(&models.SaleDeal{}).
		Where("id = ? AND status = ?", dealID, enums.DealStatusPending).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// FindProductsByIDsForUpdate locks the product rows in ascending id order so
// concurrent decisions acquire locks in the same sequence.
func (r *repository) FindProductsByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) UpdateProductOwner(ctx context.Context, productID, newOwnerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("owner_id", newOwnerID).Error
}

func (r *repository) AppendOwnership(ctx context.Context, entry *models.ProductOwnership) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) AppendStatusLog(ctx context.Context, entry *models.ProductStatusLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindCategoryNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *repository) FindBrandNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.Brand
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *repository) lockForUpdate(q *gorm.DB) *gorm.DB {
	if r.db.Dialector != nil && r.db.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
