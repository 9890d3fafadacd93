package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/serialguard/serialguard-backend/api/responses"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/logger"
)

const maxAuthBodyBytes = 1 << 16

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps attempts per client IP and per submitted email
// within a fixed window.
type RateLimitPolicy struct {
	Scope      string
	Window     time.Duration
	IPLimit    int64
	EmailLimit int64
}

// AuthRateLimit throttles credential endpoints before they reach the handler.
// The request body is buffered so the email scope can be keyed without
// consuming it.
func AuthRateLimit(limiter rateLimiter, policy RateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if policy.IPLimit > 0 && ip != "" {
				allowed, _, err := limiter.FixedWindowAllow(ctx, policy.Scope+":ip:"+ip, policy.IPLimit, policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if !allowed {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, slow down"))
					return
				}
			}

			if policy.EmailLimit > 0 {
				email, restored, err := peekEmail(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
					return
				}
				r.Body = restored
				if email != "" {
					allowed, _, err := limiter.FixedWindowAllow(ctx, policy.Scope+":email:"+email, policy.EmailLimit, policy.Window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
						return
					}
					if !allowed {
						responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts for this account"))
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func peekEmail(r *http.Request) (string, io.ReadCloser, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthBodyBytes))
	if err != nil {
		return "", nil, err
	}
	r.Body.Close()
	restored := io.NopCloser(bytes.NewReader(body))

	var probe struct {
		Email string `json:"email"`
	}
	// Malformed JSON falls through to the handler's decoder for a proper error.
	_ = json.Unmarshal(body, &probe)

	return strings.ToLower(strings.TrimSpace(probe.Email)), restored, nil
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
