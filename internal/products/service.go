package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/internal/deals"
	"github.com/serialguard/serialguard-backend/pkg/config"
	"github.com/serialguard/serialguard-backend/pkg/db"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/metrics"
	"gorm.io/gorm"
)

const (
	noteRegistered         = "Registered"
	noteUserChangedStatus  = "User changed status"
	noteAdminChangedStatus = "Admin changed status"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userReader interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service defines product registry operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Product, error)
	ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Product, error)
	VerifySerial(ctx context.Context, serial string) (*Verification, error)
	ListOwned(ctx context.Context, actor authz.Actor) ([]models.Product, error)
	StatusHistory(ctx context.Context, actor authz.Actor, serial string) ([]models.ProductStatusLog, error)
	OwnershipHistory(ctx context.Context, actor authz.Actor, serial string) ([]models.ProductOwnership, error)
}

type service struct {
	repo     Repository
	users    userReader
	tx       txRunner
	registry config.RegistryConfig
	metrics  *metrics.RegistryMetrics
	now      func() time.Time
}

// RegisterInput carries a new product registration.
type RegisterInput struct {
	Actor        authz.Actor
	SerialNumber string
	Name         string
	Description  *string
	CategoryID   *uuid.UUID
	BrandID      *uuid.UUID
}

// ChangeStatusInput carries a requested status transition.
type ChangeStatusInput struct {
	Actor        authz.Actor
	SerialNumber string
	Target       enums.ProductStatus
}

// Verification is the anonymous serial lookup result.
type Verification struct {
	Product      *models.Product
	SaleEligible bool
}

// NewService builds a product service with the required dependencies.
func NewService(repo Repository, users userReader, tx txRunner, registry config.RegistryConfig, m *metrics.RegistryMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		users:    users,
		tx:       tx,
		registry: registry,
		metrics:  m,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Product, error) {
	serial := strings.TrimSpace(input.SerialNumber)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	owner, err := s.users.FindUserByID(ctx, input.Actor.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}

	quota := s.quotaFor(owner)
	if quota > 0 {
		count, err := s.repo.CountByOwner(ctx, owner.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count owned products")
		}
		if count >= int64(quota) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product registration quota reached").
				WithDetails(map[string]any{"quota": quota})
		}
	}

	now := s.now().UTC()
	product := &models.Product{
		SerialNumber: serial,
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Status:       enums.ProductStatusForSale,
		OwnerID:      owner.ID,
		CategoryID:   input.CategoryID,
		BrandID:      input.BrandID,
		RegisteredAt: now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateProduct(ctx, product)
		if err != nil {
			if db.IsUniqueViolation(err, "uq_products_serial_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, "serial number already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}

		actorID := owner.ID
		initialStatus := created.Status
		if err := repo.AppendStatusLog(ctx, &models.ProductStatusLog{
			ProductID:   created.ID,
			OldStatus:   nil,
			NewStatus:   initialStatus,
			ChangedByID: &actorID,
			Note:        noteRegistered,
			ChangedAt:   now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
		}

		if err := repo.AppendOwnership(ctx, &models.ProductOwnership{
			ProductID:     created.ID,
			NewOwnerID:    owner.ID,
			Method:        enums.OwnershipMethodRegistration,
			TransferredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ownership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ChangeStatus moves a product through the lattice. The product row is
// re-read under lock inside the transaction so the decision is made against
// the committed state, and the write is guarded on the status the transaction
// observed.
func (s *service) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Product, error) {
	serial := strings.TrimSpace(input.SerialNumber)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status").
			WithDetails(map[string]any{"target": string(input.Target)})
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindBySerialForUpdate(ctx, serial)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if !authz.CanChangeStatus(input.Actor, product.OwnerID) {
			s.metrics.IncTransitionDenied("forbidden")
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to change this product's status")
		}

		from := product.Status
		if !from.CanTransitionTo(input.Target) {
			s.metrics.IncTransitionDenied("illegal_transition")
			return pkgerrors.New(pkgerrors.CodeIllegalTransition, "status transition disallowed").
				WithDetails(map[string]any{
					"from": from.String(),
					"to":   input.Target.String(),
				})
		}

		rows, err := repo.UpdateStatusGuarded(ctx, product.ID, from.String(), input.Target.String())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product status")
		}
		if rows == 0 {
			s.metrics.IncConflict()
			return pkgerrors.New(pkgerrors.CodeConcurrentModified, "product status changed concurrently")
		}

		note := noteUserChangedStatus
		if input.Actor.IsAdmin() && input.Actor.UserID != product.OwnerID {
			note = noteAdminChangedStatus
		}
		actorID := input.Actor.UserID
		if err := repo.AppendStatusLog(ctx, &models.ProductStatusLog{
			ProductID:   product.ID,
			OldStatus:   &from,
			NewStatus:   input.Target,
			ChangedByID: &actorID,
			Note:        note,
			ChangedAt:   s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
		}

		product.Status = input.Target
		updated = product
		s.metrics.IncStatusTransition(from.String(), input.Target.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// VerifySerial is the public lookup surface. No identity is required; the
// caller learns the registered name, current status, and whether the product
// could legally enter a deal right now. The owner is never exposed.
func (s *service) VerifySerial(ctx context.Context, serial string) (*Verification, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number required")
	}
	product, err := s.repo.FindBySerial(ctx, serial)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	owner, err := s.users.FindUserByID(ctx, product.OwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}

	eligibility := deals.CheckSellable(deals.SellabilityCheck{
		SerialNumber: product.SerialNumber,
		Status:       product.Status,
		Seller:       deals.SellerProfile{Role: owner.Role},
		RegisteredAt: product.RegisteredAt,
	}, s.now().UTC(), s.registry.SellerCooldownDays)

	return &Verification{Product: product, SaleEligible: eligibility == nil}, nil
}

func (s *service) ListOwned(ctx context.Context, actor authz.Actor) ([]models.Product, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	products, err := s.repo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) StatusHistory(ctx context.Context, actor authz.Actor, serial string) ([]models.ProductStatusLog, error) {
	product, err := s.loadForHistory(ctx, actor, serial)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ListStatusLogs(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list status logs")
	}
	return logs, nil
}

// OwnershipHistory applies the visibility rules: owner and admins see the
// full chain, previous owners only the rows that involve them.
func (s *service) OwnershipHistory(ctx context.Context, actor authz.Actor, serial string) ([]models.ProductOwnership, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	product, err := s.repo.FindBySerial(ctx, serial)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if authz.CanViewFullHistory(actor, product.OwnerID) {
		rows, err := s.repo.ListOwnerships(ctx, product.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ownership history")
		}
		return rows, nil
	}

	rows, err := s.repo.ListOwnershipsInvolving(ctx, product.ID, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ownership history")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no ownership record for this product")
	}
	return rows, nil
}

func (s *service) loadForHistory(ctx context.Context, actor authz.Actor, serial string) (*models.Product, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	product, err := s.repo.FindBySerial(ctx, serial)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !authz.CanViewFullHistory(actor, product.OwnerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "history restricted to the owner")
	}
	return product, nil
}

func (s *service) quotaFor(owner *models.User) int {
	switch owner.Role {
	case enums.UserRoleShopkeeper:
		if owner.ShopkeeperApproved {
			return s.registry.ShopkeeperProductQuota
		}
		return s.registry.UserProductQuota
	case enums.UserRoleAdmin:
		return 0
	default:
		return s.registry.UserProductQuota
	}
}
