package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/api/middleware"
	"github.com/serialguard/serialguard-backend/api/responses"
	"github.com/serialguard/serialguard-backend/api/validators"
	"github.com/serialguard/serialguard-backend/internal/products"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/logger"
)

type registerProductRequest struct {
	SerialNumber string     `json:"serial_number" validate:"required"`
	Name         string     `json:"name" validate:"required"`
	Description  *string    `json:"description,omitempty"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	BrandID      *uuid.UUID `json:"brand_id,omitempty"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=for_sale locked stolen"`
}

// RegisterProduct records a new product under the caller's ownership.
func RegisterProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req registerProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.Register(ctx, products.RegisterInput{
			Actor:        actor,
			SerialNumber: req.SerialNumber,
			Name:         req.Name,
			Description:  req.Description,
			CategoryID:   req.CategoryID,
			BrandID:      req.BrandID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, products.FromModel(product))
	}
}

// ChangeProductStatus moves a product through the status lattice.
func ChangeProductStatus(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		serial := chi.URLParam(r, "serial")
		ctx = logg.WithSerial(ctx, serial)

		var req changeStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := enums.ParseProductStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown target status"))
			return
		}

		product, err := svc.ChangeStatus(ctx, products.ChangeStatusInput{
			Actor:        actor,
			SerialNumber: serial,
			Target:       target,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products.FromModel(product))
	}
}

// ListOwnedProducts returns the caller's registered products.
func ListOwnedProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		rows, err := svc.ListOwned(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products.ViewsFromModels(rows))
	}
}

// VerifySerial is the anonymous check a buyer runs before handing over money.
func VerifySerial(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		serial := chi.URLParam(r, "serial")
		ctx = logg.WithSerial(ctx, serial)

		verification, err := svc.VerifySerial(ctx, serial)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products.PublicFromVerification(verification))
	}
}

// ProductStatusHistory returns the append-only status trail.
func ProductStatusHistory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		serial := chi.URLParam(r, "serial")
		ctx = logg.WithSerial(ctx, serial)

		rows, err := svc.StatusHistory(ctx, actor, serial)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products.StatusLogViews(rows))
	}
}

// ProductOwnershipHistory returns the ownership trail the caller may see.
func ProductOwnershipHistory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		serial := chi.URLParam(r, "serial")
		ctx = logg.WithSerial(ctx, serial)

		rows, err := svc.OwnershipHistory(ctx, actor, serial)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products.OwnershipViews(rows))
	}
}
