package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence surface the product service depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySerial(ctx context.Context, serial string) (*models.Product, error)
	FindBySerialForUpdate(ctx context.Context, serial string) (*models.Product, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error)

	// UpdateStatusGuarded flips the status only when the row still carries the
	// status the caller observed. Returns the number of rows written.
	UpdateStatusGuarded(ctx context.Context, productID uuid.UUID, from, to string) (int64, error)

	AppendStatusLog(ctx context.Context, entry *models.ProductStatusLog) error
	AppendOwnership(ctx context.Context, entry *models.ProductOwnership) error
	ListStatusLogs(ctx context.Context, productID uuid.UUID) ([]models.ProductStatusLog, error)
	ListOwnerships(ctx context.Context, productID uuid.UUID) ([]models.ProductOwnership, error)
	ListOwnershipsInvolving(ctx context.Context, productID, userID uuid.UUID) ([]models.ProductOwnership, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySerial(ctx context.Context, serial string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("serial_number = ?", serial).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySerialForUpdate(ctx context.Context, serial string) (*models.Product, error) {
	var product models.Product
	err := r.lockForUpdate(r.db.WithContext(ctx)).
		Where("serial_number = ?", serial).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, productID uuid.UUID, from, to string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ?", productID, from).
		Update("status", to)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) AppendStatusLog(ctx context.Context, entry *models.ProductStatusLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) AppendOwnership(ctx context.Context, entry *models.ProductOwnership) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListStatusLogs(ctx context.Context, productID uuid.UUID) ([]models.ProductStatusLog, error) {
	var logs []models.ProductStatusLog
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("changed_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repository) ListOwnerships(ctx context.Context, productID uuid.UUID) ([]models.ProductOwnership, error) {
	var rows []models.ProductOwnership
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("transferred_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListOwnershipsInvolving(ctx context.Context, productID, userID uuid.UUID) ([]models.ProductOwnership, error) {
	var rows []models.ProductOwnership
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND (previous_owner_id = ? OR new_owner_id = ?)", productID, userID, userID).
		Order("transferred_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// lockForUpdate applies a row lock on dialects that support it. The sqlite
// driver used in tests has no FOR UPDATE syntax; serialization there comes
// from the single-writer file lock.
func (r *repository) lockForUpdate(q *gorm.DB) *gorm.DB {
	if r.db.Dialector != nil && r.db.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
