package deals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/pkg/config"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/metrics"
	"github.com/serialguard/serialguard-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const noteDealTransfer = "Ownership transferred via approved deal"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	WithSerializableTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productReader interface {
	FindBySerial(ctx context.Context, serial string) (*models.Product, error)
}

type userReader interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service defines the deal workflow operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.SaleDeal, error)
	Approve(ctx context.Context, input DecideInput) (*models.SaleDeal, error)
	Reject(ctx context.Context, input DecideInput) (*models.SaleDeal, error)
	Get(ctx context.Context, actor authz.Actor, dealID uuid.UUID) (*models.SaleDeal, error)
	ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) ([]models.SaleDeal, error)
	ListPending(ctx context.Context, actor authz.Actor, params pagination.Params) ([]models.SaleDeal, error)
}

type service struct {
	repo     Repository
	products productReader
	users    userReader
	tx       txRunner
	registry config.RegistryConfig
	metrics  *metrics.RegistryMetrics
	now      func() time.Time
}

// ItemInput is one product the buyer wants, priced as agreed offline.
type ItemInput struct {
	SerialNumber string
	Price        decimal.Decimal
}

// SellerContact captures an off-platform seller when no account exists.
type SellerContact struct {
	Name    string
	Mobile  string
	IDCard  string
	Address string
}

// CreateInput carries a buyer's deal request.
type CreateInput struct {
	Actor         authz.Actor
	Items         []ItemInput
	Description   *string
	SellerContact *SellerContact
}

// DecideInput carries an admin decision on a pending deal.
type DecideInput struct {
	Actor  authz.Actor
	DealID uuid.UUID
	Notes  *string
}

// NewService builds a deal service with the required dependencies.
func NewService(repo Repository, products productReader, users userReader, tx txRunner, registry config.RegistryConfig, m *metrics.RegistryMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deals repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		products: products,
		users:    users,
		tx:       tx,
		registry: registry,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Create validates every requested product and persists the deal atomically.
// Validation is all-or-nothing: a single ineligible product fails the whole
// request, and the response details name every failing serial, not just the
// first.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.SaleDeal, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal requires at least one item")
	}
	if max := s.registry.MaxDealItems; max > 0 && len(input.Items) > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many items in deal").
			WithDetails(map[string]any{"max_items": max})
	}

	seen := make(map[string]struct{}, len(input.Items))
	for _, item := range input.Items {
		serial := strings.TrimSpace(item.SerialNumber)
		if serial == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item serial number required")
		}
		if item.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative").
				WithDetails(map[string]any{"serial_number": serial})
		}
		if _, dup := seen[serial]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate serial number in deal").
				WithDetails(map[string]any{"serial_number": serial})
		}
		seen[serial] = struct{}{}
	}

	resolved, err := s.resolveProducts(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	sellerID := resolved[0].product.OwnerID
	for _, entry := range resolved {
		if entry.product.OwnerID != sellerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "all products in a deal must share one seller")
		}
	}
	if sellerID == input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot buy your own product")
	}

	seller, err := s.users.FindUserByID(ctx, sellerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "product owner no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}

	now := s.now().UTC()
	var eligibilityErr error
	var failures []any
	for _, entry := range resolved {
		check := SellabilityCheck{
			SerialNumber: entry.product.SerialNumber,
			Status:       entry.product.Status,
			Seller:       SellerProfile{Role: seller.Role},
			RegisteredAt: entry.product.RegisteredAt,
		}
		if cerr := CheckSellable(check, now, s.registry.SellerCooldownDays); cerr != nil {
			eligibilityErr = multierr.Append(eligibilityErr, cerr)
			failures = append(failures, cerr.Details())
		}
	}
	if eligibilityErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotEligible, eligibilityErr, "one or more products cannot be sold").
			WithDetails(failures)
	}

	categoryNames, brandNames, err := s.referenceNames(ctx, resolved)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range input.Items {
		total = total.Add(item.Price)
	}

	deal := &models.SaleDeal{
		Status:      enums.DealStatusPending,
		BuyerID:     input.Actor.UserID,
		SellerID:    &sellerID,
		TotalAmount: total,
		Description: input.Description,
	}
	if input.SellerContact != nil {
		deal.SellerName = optional(input.SellerContact.Name)
		deal.SellerMobile = optional(input.SellerContact.Mobile)
		deal.SellerIDCard = optional(input.SellerContact.IDCard)
		deal.SellerAddress = optional(input.SellerContact.Address)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateDeal(ctx, deal)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deal")
		}
		items := make([]models.DealItem, 0, len(input.Items))
		for i, item := range input.Items {
			product := resolved[i].product
			line := models.DealItem{
				DealID:       created.ID,
				ProductID:    product.ID,
				SerialNumber: product.SerialNumber,
				Name:         product.Name,
				Price:        item.Price,
			}
			if product.CategoryID != nil {
				if name, ok := categoryNames[*product.CategoryID]; ok {
					line.CategoryName = &name
				}
			}
			if product.BrandID != nil {
				if name, ok := brandNames[*product.BrandID]; ok {
					line.BrandName = &name
				}
			}
			items = append(items, line)
		}
		if err := repo.CreateDealItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deal items")
		}
		deal.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deal, nil
}

// Approve transfers every product in the deal to the buyer in one
// transaction. The deal and all product rows are locked, products in
// ascending id order, and each product is re-validated against the committed
// state before any transfer happens.
func (s *service) Approve(ctx context.Context, input DecideInput) (*models.SaleDeal, error) {
	if err := s.checkDecideInput(input); err != nil {
		return nil, err
	}

	started := s.now()
	var decided *models.SaleDeal
	err := s.tx.WithSerializableTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		deal, err := repo.FindDealByIDForUpdate(ctx, input.DealID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
		}
		if deal.Status != enums.DealStatusPending {
			return pkgerrors.New(pkgerrors.CodeDealNotPending, "deal already decided").
				WithDetails(map[string]any{"status": deal.Status.String()})
		}

		items, err := repo.FindDealItems(ctx, deal.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeDependency, "deal has no items")
		}

		ids := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}
		products, err := repo.FindProductsByIDsForUpdate(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
		}
		if len(products) != len(items) {
			return pkgerrors.New(pkgerrors.CodeDependency, "deal references missing products")
		}

		// Re-check against the committed rows under lock. A product sold or
		// locked since the deal was created fails the whole decision.
		var staleErr error
		var failures []any
		for _, product := range products {
			if product.Status != enums.ProductStatusForSale {
				detail := map[string]any{
					"serial_number": product.SerialNumber,
					"status":        product.Status.String(),
				}
				staleErr = multierr.Append(staleErr,
					pkgerrors.New(pkgerrors.CodeNotEligible, "product is not for sale").WithDetails(detail))
				failures = append(failures, detail)
				continue
			}
			if deal.SellerID != nil && product.OwnerID != *deal.SellerID {
				detail := map[string]any{
					"serial_number": product.SerialNumber,
					"reason":        "owner changed since deal creation",
				}
				staleErr = multierr.Append(staleErr,
					pkgerrors.New(pkgerrors.CodeNotEligible, "product owner changed").WithDetails(detail))
				failures = append(failures, detail)
			}
		}
		if staleErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotEligible, staleErr, "deal can no longer be approved").
				WithDetails(failures)
		}

		now := s.now().UTC()
		actorID := input.Actor.UserID
		for _, product := range products {
			previousOwner := product.OwnerID
			if err := repo.UpdateProductOwner(ctx, product.ID, deal.BuyerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transfer product")
			}
			if err := repo.AppendOwnership(ctx, &models.ProductOwnership{
				ProductID:       product.ID,
				PreviousOwnerID: &previousOwner,
				NewOwnerID:      deal.BuyerID,
				DealID:          &deal.ID,
				Method:          enums.OwnershipMethodDealApproved,
				TransferredAt:   now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ownership")
			}
			status := product.Status
			if err := repo.AppendStatusLog(ctx, &models.ProductStatusLog{
				ProductID:   product.ID,
				OldStatus:   &status,
				NewStatus:   status,
				ChangedByID: &actorID,
				DealID:      &deal.ID,
				Note:        noteDealTransfer,
				ChangedAt:   now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
			}
		}

		rows, err := repo.UpdateDealDecisionGuarded(ctx, deal.ID, enums.DealStatusApproved, actorID, now, input.Notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize deal")
		}
		if rows == 0 {
			s.metrics.IncConflict()
			return pkgerrors.New(pkgerrors.CodeConcurrentModified, "deal decided concurrently")
		}

		deal.Status = enums.DealStatusApproved
		deal.DecidedByID = &actorID
		deal.DecidedAt = &now
		deal.DecisionNotes = input.Notes
		deal.Items = items
		decided = deal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDealDecision(enums.DealStatusApproved.String())
	s.metrics.ObserveDecisionDuration(enums.DealStatusApproved.String(), s.now().Sub(started))
	return decided, nil
}

// Reject finalizes the deal without touching any product. Like Approve it is
// idempotent in the negative: deciding an already decided deal fails with
// DEAL_NOT_PENDING.
func (s *service) Reject(ctx context.Context, input DecideInput) (*models.SaleDeal, error) {
	if err := s.checkDecideInput(input); err != nil {
		return nil, err
	}

	var decided *models.SaleDeal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		deal, err := repo.FindDealByIDForUpdate(ctx, input.DealID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
		}
		if deal.Status != enums.DealStatusPending {
			return pkgerrors.New(pkgerrors.CodeDealNotPending, "deal already decided").
				WithDetails(map[string]any{"status": deal.Status.String()})
		}

		now := s.now().UTC()
		actorID := input.Actor.UserID
		rows, err := repo.UpdateDealDecisionGuarded(ctx, deal.ID, enums.DealStatusRejected, actorID, now, input.Notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize deal")
		}
		if rows == 0 {
			s.metrics.IncConflict()
			return pkgerrors.New(pkgerrors.CodeConcurrentModified, "deal decided concurrently")
		}

		deal.Status = enums.DealStatusRejected
		deal.DecidedByID = &actorID
		deal.DecidedAt = &now
		deal.DecisionNotes = input.Notes
		decided = deal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDealDecision(enums.DealStatusRejected.String())
	return decided, nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, dealID uuid.UUID) (*models.SaleDeal, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if dealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	deal, err := s.repo.FindDealByID(ctx, dealID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	if !authz.CanViewDeal(actor, deal.BuyerID, deal.SellerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "deal restricted to its participants")
	}
	return deal, nil
}

func (s *service) ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) ([]models.SaleDeal, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	before, limit, err := decodePage(params)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListDealsByParticipant(ctx, actor.UserID, limit, before)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deals")
	}
	return rows, nil
}

func (s *service) ListPending(ctx context.Context, actor authz.Actor, params pagination.Params) ([]models.SaleDeal, error) {
	if !authz.CanDecideDeal(actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	before, limit, err := decodePage(params)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListDealsByStatus(ctx, enums.DealStatusPending, limit, before)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending deals")
	}
	return rows, nil
}

func (s *service) checkDecideInput(input DecideInput) error {
	if input.Actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !authz.CanDecideDeal(input.Actor) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if input.DealID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	return nil
}

type resolvedItem struct {
	product *models.Product
}

func (s *service) resolveProducts(ctx context.Context, items []ItemInput) ([]resolvedItem, error) {
	resolved := make([]resolvedItem, 0, len(items))
	var missingErr error
	var missing []any
	for _, item := range items {
		serial := strings.TrimSpace(item.SerialNumber)
		product, err := s.products.FindBySerial(ctx, serial)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				detail := map[string]any{"serial_number": serial}
				missingErr = multierr.Append(missingErr,
					pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(detail))
				missing = append(missing, detail)
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		resolved = append(resolved, resolvedItem{product: product})
	}
	if missingErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, missingErr, "one or more products not found").
			WithDetails(missing)
	}
	return resolved, nil
}

// referenceNames resolves the category and brand names to freeze onto the
// deal items.
func (s *service) referenceNames(ctx context.Context, resolved []resolvedItem) (map[uuid.UUID]string, map[uuid.UUID]string, error) {
	var categoryIDs, brandIDs []uuid.UUID
	for _, entry := range resolved {
		if entry.product.CategoryID != nil {
			categoryIDs = append(categoryIDs, *entry.product.CategoryID)
		}
		if entry.product.BrandID != nil {
			brandIDs = append(brandIDs, *entry.product.BrandID)
		}
	}
	categoryNames, err := s.repo.FindCategoryNames(ctx, categoryIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category names")
	}
	brandNames, err := s.repo.FindBrandNames(ctx, brandIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand names")
	}
	return categoryNames, brandNames, nil
}

func decodePage(params pagination.Params) (*time.Time, int, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor == nil {
		return nil, limit, nil
	}
	return &cursor.CreatedAt, limit, nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
