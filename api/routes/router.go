package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serialguard/serialguard-backend/api/controllers"
	"github.com/serialguard/serialguard-backend/api/middleware"
	internalauth "github.com/serialguard/serialguard-backend/internal/auth"
	"github.com/serialguard/serialguard-backend/internal/catalog"
	"github.com/serialguard/serialguard-backend/internal/deals"
	"github.com/serialguard/serialguard-backend/internal/products"
	"github.com/serialguard/serialguard-backend/internal/users"
	"github.com/serialguard/serialguard-backend/pkg/auth/session"
	"github.com/serialguard/serialguard-backend/pkg/config"
	"github.com/serialguard/serialguard-backend/pkg/enums"
	"github.com/serialguard/serialguard-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions *session.Manager
	Limiter  rateLimiter

	AuthService    internalauth.Service
	ProductService products.Service
	DealService    deals.Service
	UserService    users.Service
	CatalogService catalog.Service

	DBPinger    pinger
	RedisPinger pinger

	Metrics prometheus.Gatherer
}

// New assembles the full route tree.
func New(deps Dependencies) chi.Router {
	logg := deps.Logger
	jwtCfg := deps.Config.JWT
	rl := deps.Config.AuthRateLimit

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(deps.Config.App.CORSOrigins))

	r.Get("/health/live", controllers.Liveness())
	r.Get("/health/ready", controllers.Readiness(deps.DBPinger, deps.RedisPinger, logg))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	// Anonymous serial verification for buyers, plus reference data lists.
	r.Get("/api/public/verify/{serial}", controllers.VerifySerial(deps.ProductService, logg))
	r.Get("/api/public/categories", controllers.ListCategories(deps.CatalogService, logg))
	r.Get("/api/public/brands", controllers.ListBrands(deps.CatalogService, logg))

	loginPolicy := middleware.RateLimitPolicy{
		Scope:      "auth:login",
		Window:     rl.LoginWindow,
		IPLimit:    int64(rl.LoginIPLimit),
		EmailLimit: int64(rl.LoginEmailLimit),
	}
	registerPolicy := middleware.RateLimitPolicy{
		Scope:      "auth:register",
		Window:     rl.RegisterWindow,
		IPLimit:    int64(rl.RegisterIPLimit),
		EmailLimit: int64(rl.RegisterEmailLimit),
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(deps.Limiter, registerPolicy, logg)).
			Post("/register", controllers.Register(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(deps.Limiter, loginPolicy, logg)).
			Post("/login", controllers.Login(deps.AuthService, logg))
		r.Post("/refresh", controllers.Refresh(deps.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtCfg, deps.Sessions, logg))
			r.Post("/logout", controllers.Logout(deps.AuthService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(jwtCfg, deps.Sessions, logg))

		r.Get("/me", controllers.Me(deps.UserService, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.RegisterProduct(deps.ProductService, logg))
			r.Get("/", controllers.ListOwnedProducts(deps.ProductService, logg))
			r.Patch("/{serial}/status", controllers.ChangeProductStatus(deps.ProductService, logg))
			r.Get("/{serial}/status-history", controllers.ProductStatusHistory(deps.ProductService, logg))
			r.Get("/{serial}/ownership-history", controllers.ProductOwnershipHistory(deps.ProductService, logg))
		})

		r.Route("/deals", func(r chi.Router) {
			r.Post("/", controllers.CreateDeal(deps.DealService, logg))
			r.Get("/", controllers.ListMyDeals(deps.DealService, logg))
			r.Get("/{dealID}", controllers.GetDeal(deps.DealService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(deps.Limiter, loginPolicy, logg)).
			Post("/auth/login", controllers.AdminLogin(deps.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(jwtCfg, deps.Sessions, logg))
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

			r.Route("/deals", func(r chi.Router) {
				r.Get("/pending", controllers.ListPendingDeals(deps.DealService, logg))
				r.Post("/{dealID}/approve", controllers.ApproveDeal(deps.DealService, logg))
				r.Post("/{dealID}/reject", controllers.RejectDeal(deps.DealService, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Put("/{userID}/role", controllers.SetUserRole(deps.UserService, logg))
				r.Post("/{userID}/approve-shopkeeper", controllers.ApproveShopkeeper(deps.UserService, logg))
			})

			r.Post("/categories", controllers.CreateCategory(deps.CatalogService, logg))
			r.Post("/brands", controllers.CreateBrand(deps.CatalogService, logg))
		})
	})

	return r
}
