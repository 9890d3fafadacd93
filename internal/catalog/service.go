package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/pkg/db"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
)

// Service manages category and brand reference data. Lists are public;
// creation is restricted to admins.
type Service interface {
	CreateCategory(ctx context.Context, actor authz.Actor, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateBrand(ctx context.Context, actor authz.Actor, name string) (*models.Brand, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCategory(ctx context.Context, actor authz.Actor, name string) (*models.Category, error) {
	name, err := s.validateReferenceName(actor, name)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateCategory(ctx, &models.Category{Name: name})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return created, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) CreateBrand(ctx context.Context, actor authz.Actor, name string) (*models.Brand, error) {
	name, err := s.validateReferenceName(actor, name)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateBrand(ctx, &models.Brand{Name: name})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_brands_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "brand already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
	}
	return created, nil
}

func (s *service) ListBrands(ctx context.Context) ([]models.Brand, error) {
	rows, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	return rows, nil
}

func (s *service) validateReferenceName(actor authz.Actor, name string) (string, error) {
	if actor.UserID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin() {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "reference data is admin managed")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	return name, nil
}

// ReferenceView is the API projection of a category or brand row.
type ReferenceView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryViews maps category rows.
func CategoryViews(rows []models.Category) []ReferenceView {
	views := make([]ReferenceView, 0, len(rows))
	for _, row := range rows {
		views = append(views, ReferenceView{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	return views
}

// BrandViews maps brand rows.
func BrandViews(rows []models.Brand) []ReferenceView {
	views := make([]ReferenceView, 0, len(rows))
	for _, row := range rows {
		views = append(views, ReferenceView{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	return views
}

// CategoryView maps one category row.
func CategoryView(row *models.Category) ReferenceView {
	if row == nil {
		return ReferenceView{}
	}
	return ReferenceView{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
}

// BrandView maps one brand row.
func BrandView(row *models.Brand) ReferenceView {
	if row == nil {
		return ReferenceView{}
	}
	return ReferenceView{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
}
