package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/api/middleware"
	"github.com/serialguard/serialguard-backend/api/responses"
	"github.com/serialguard/serialguard-backend/api/validators"
	"github.com/serialguard/serialguard-backend/internal/users"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/logger"
)

type setRoleRequest struct {
	Role      string  `json:"role" validate:"required,oneof=user shopkeeper admin"`
	AdminTier *string `json:"admin_tier,omitempty" validate:"omitempty,oneof=limited full"`
}

// Me returns the caller's own account.
func Me(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		user, err := svc.Get(ctx, actor, actor.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// SetUserRole changes the target account's role and admin tier.
func SetUserRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		userID, err := userIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req setRoleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := users.SetRoleInput{
			Actor:  actor,
			UserID: userID,
			Role:   enums.UserRole(req.Role),
		}
		if req.AdminTier != nil {
			tier := enums.AdminTier(*req.AdminTier)
			input.AdminTier = &tier
		}

		user, err := svc.SetRole(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// ApproveShopkeeper lifts the plain-user selling restrictions for a shopkeeper.
func ApproveShopkeeper(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		userID, err := userIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.ApproveShopkeeper(ctx, actor, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "userID")
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}
