package middleware

import (
	"net/http"
	"strings"

	"github.com/serialguard/serialguard-backend/api/responses"
	pkgAuth "github.com/serialguard/serialguard-backend/pkg/auth"
	"github.com/serialguard/serialguard-backend/pkg/auth/session"
	"github.com/serialguard/serialguard-backend/pkg/config"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/logger"
)

const bearerPrefix = "Bearer "

// Auth verifies the bearer token, confirms the session is still live in
// Redis, and seeds identity claims into the request context.
func Auth(jwtCfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, bearerPrefix) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token"))
				return
			}

			if sessions != nil {
				active, err := sessions.HasSession(ctx, claims.ID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session lookup failed"))
					return
				}
				if !active {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
					return
				}
			}

			ctx = withUserID(ctx, claims.UserID)
			ctx = withRole(ctx, claims.Role)
			ctx = withAdminTier(ctx, claims.AdminTier)
			ctx = withShopkeeperApproved(ctx, claims.ShopkeeperApproved)
			ctx = withAccessID(ctx, claims.ID)

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
