package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/internal/authz"
	"github.com/serialguard/serialguard-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID             contextKey = "user_id"
	ctxRole               contextKey = "user_role"
	ctxAdminTier          contextKey = "admin_tier"
	ctxShopkeeperApproved contextKey = "shopkeeper_approved"
	ctxAccessID           contextKey = "access_id"
	ctxRequestID          contextKey = "request_id"
)

func withUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}

// UserIDFromContext returns the authenticated user ID, if present.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxUserID).(uuid.UUID)
	return id, ok
}

func withRole(ctx context.Context, role enums.UserRole) context.Context {
	return context.WithValue(ctx, ctxRole, role)
}

// RoleFromContext returns the authenticated user's role, if present.
func RoleFromContext(ctx context.Context) (enums.UserRole, bool) {
	role, ok := ctx.Value(ctxRole).(enums.UserRole)
	return role, ok
}

func withAdminTier(ctx context.Context, tier *enums.AdminTier) context.Context {
	if tier == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxAdminTier, *tier)
}

// AdminTierFromContext returns the admin tier claim, if present.
func AdminTierFromContext(ctx context.Context) (enums.AdminTier, bool) {
	tier, ok := ctx.Value(ctxAdminTier).(enums.AdminTier)
	return tier, ok
}

func withShopkeeperApproved(ctx context.Context, approved bool) context.Context {
	return context.WithValue(ctx, ctxShopkeeperApproved, approved)
}

// ShopkeeperApprovedFromContext returns the shopkeeper approval claim, if present.
func ShopkeeperApprovedFromContext(ctx context.Context) (bool, bool) {
	approved, ok := ctx.Value(ctxShopkeeperApproved).(bool)
	return approved, ok
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// AccessIDFromContext returns the session access ID (JWT jti), if present.
func AccessIDFromContext(ctx context.Context) (string, bool) {
	accessID, ok := ctx.Value(ctxAccessID).(string)
	return accessID, ok
}

func withRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestID, requestID)
}

// RequestIDFromContext returns the request correlation ID, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ctxRequestID).(string)
	return requestID, ok
}

// ActorFromContext assembles the authorization actor from the verified
// token claims seeded by the auth middleware.
func ActorFromContext(ctx context.Context) (authz.Actor, bool) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return authz.Actor{}, false
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return authz.Actor{}, false
	}
	actor := authz.Actor{UserID: userID, Role: role}
	if tier, ok := AdminTierFromContext(ctx); ok {
		actor.AdminTier = tier
	}
	if approved, ok := ShopkeeperApprovedFromContext(ctx); ok {
		actor.ShopkeeperApproved = approved
	}
	return actor, true
}
