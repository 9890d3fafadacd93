package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
)

type stubCatalogRepo struct {
	categories []models.Category
	brands     []models.Brand
	createErr  error
}

func (s *stubCatalogRepo) CreateCategory(_ context.Context, category *models.Category) (*models.Category, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	category.ID = uuid.New()
	s.categories = append(s.categories, *category)
	return category, nil
}

func (s *stubCatalogRepo) ListCategories(_ context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func (s *stubCatalogRepo) CreateBrand(_ context.Context, brand *models.Brand) (*models.Brand, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	brand.ID = uuid.New()
	s.brands = append(s.brands, *brand)
	return brand, nil
}

func (s *stubCatalogRepo) ListBrands(_ context.Context) ([]models.Brand, error) {
	return s.brands, nil
}

func newCatalogService(t *testing.T, repo *stubCatalogRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func admin() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin, AdminTier: enums.AdminTierLimited}
}

func TestCreateCategoryTrimsAndPersists(t *testing.T) {
	repo := &stubCatalogRepo{}
	svc := newCatalogService(t, repo)

	created, err := svc.CreateCategory(context.Background(), admin(), "  Electronics ")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if created.Name != "Electronics" {
		t.Fatalf("name = %q", created.Name)
	}
	if len(repo.categories) != 1 {
		t.Fatalf("persisted = %d", len(repo.categories))
	}
}

func TestCreateCategoryAdminOnly(t *testing.T) {
	svc := newCatalogService(t, &stubCatalogRepo{})

	_, err := svc.CreateCategory(context.Background(), authz.Actor{UserID: uuid.New(), Role: enums.UserRoleShopkeeper}, "Electronics")
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeForbidden)
	}

	_, err = svc.CreateCategory(context.Background(), authz.Actor{}, "Electronics")
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeUnauthorized)
	}
}

func TestCreateBrandDuplicateConflicts(t *testing.T) {
	repo := &stubCatalogRepo{createErr: errors.New(`duplicate key value violates unique constraint "uq_brands_name"`)}
	svc := newCatalogService(t, repo)

	_, err := svc.CreateBrand(context.Background(), admin(), "Acme")
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeConflict)
	}
}

func TestCreateCategoryRejectsBlankName(t *testing.T) {
	svc := newCatalogService(t, &stubCatalogRepo{})

	_, err := svc.CreateCategory(context.Background(), admin(), "   ")
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestListsArePublic(t *testing.T) {
	repo := &stubCatalogRepo{
		categories: []models.Category{{ID: uuid.New(), Name: "Electronics"}},
		brands:     []models.Brand{{ID: uuid.New(), Name: "Acme"}},
	}
	svc := newCatalogService(t, repo)

	categories, err := svc.ListCategories(context.Background())
	if err != nil || len(categories) != 1 {
		t.Fatalf("categories = %v err = %v", categories, err)
	}
	brands, err := svc.ListBrands(context.Background())
	if err != nil || len(brands) != 1 {
		t.Fatalf("brands = %v err = %v", brands, err)
	}
}
