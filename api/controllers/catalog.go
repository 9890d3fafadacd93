package controllers

import (
	"net/http"

	"github.com/serialguard/serialguard-backend/api/middleware"
	"github.com/serialguard/serialguard-backend/api/responses"
	"github.com/serialguard/serialguard-backend/api/validators"
	"github.com/serialguard/serialguard-backend/internal/catalog"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/logger"
)

type createReferenceRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

// CreateCategory records a new product category.
func CreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req createReferenceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateCategory(ctx, actor, req.Name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.CategoryView(created))
	}
}

// ListCategories returns all categories, unauthenticated.
func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := svc.ListCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.CategoryViews(rows))
	}
}

// CreateBrand records a new product brand.
func CreateBrand(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req createReferenceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateBrand(ctx, actor, req.Name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.BrandView(created))
	}
}

// ListBrands returns all brands, unauthenticated.
func ListBrands(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := svc.ListBrands(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.BrandViews(rows))
	}
}
