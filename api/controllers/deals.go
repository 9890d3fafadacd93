package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/serialguard/serialguard-backend/api/middleware"
	"github.com/serialguard/serialguard-backend/api/responses"
	"github.com/serialguard/serialguard-backend/api/validators"
	"github.com/serialguard/serialguard-backend/internal/deals"
	"github.com/serialguard/serialguard-backend/pkg/db/models"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
	"github.com/serialguard/serialguard-backend/pkg/logger"
	"github.com/serialguard/serialguard-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type dealItemRequest struct {
	SerialNumber string          `json:"serial_number" validate:"required"`
	Price        decimal.Decimal `json:"price"`
}

type createDealRequest struct {
	Items         []dealItemRequest  `json:"items" validate:"required,min=1,dive"`
	Description   *string            `json:"description,omitempty"`
	SellerContact *sellerContactBody `json:"seller_contact,omitempty"`
}

type sellerContactBody struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	IDCard  string `json:"id_card"`
	Address string `json:"address"`
}

type decideDealRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// CreateDeal opens a pending deal for the caller as buyer.
func CreateDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req createDealRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items := make([]deals.ItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, deals.ItemInput{
				SerialNumber: item.SerialNumber,
				Price:        item.Price,
			})
		}

		input := deals.CreateInput{
			Actor:       actor,
			Items:       items,
			Description: req.Description,
		}
		if req.SellerContact != nil {
			input.SellerContact = &deals.SellerContact{
				Name:    req.SellerContact.Name,
				Mobile:  req.SellerContact.Mobile,
				IDCard:  req.SellerContact.IDCard,
				Address: req.SellerContact.Address,
			}
		}

		deal, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, deals.FromModel(deal))
	}
}

// GetDeal returns a deal visible to the caller.
func GetDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		dealID, err := dealIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithDealID(ctx, dealID.String())

		deal, err := svc.Get(ctx, actor, dealID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deals.FromModel(deal))
	}
}

// ListMyDeals returns the deals the caller participates in.
func ListMyDeals(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		rows, err := svc.ListMine(ctx, actor, pageParams(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deals.ViewsFromModels(rows))
	}
}

// ListPendingDeals returns undecided deals for the admin queue.
func ListPendingDeals(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		rows, err := svc.ListPending(ctx, actor, pageParams(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deals.ViewsFromModels(rows))
	}
}

// ApproveDeal finalizes a pending deal and transfers every product to the buyer.
func ApproveDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return decideDeal(svc.Approve, logg)
}

// RejectDeal finalizes a pending deal without transferring anything.
func RejectDeal(svc deals.Service, logg *logger.Logger) http.HandlerFunc {
	return decideDeal(svc.Reject, logg)
}

func decideDeal(decide func(ctx context.Context, input deals.DecideInput) (*models.SaleDeal, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		dealID, err := dealIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithDealID(ctx, dealID.String())

		var req decideDealRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		deal, err := decide(ctx, deals.DecideInput{
			Actor:  actor,
			DealID: dealID,
			Notes:  req.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, deals.FromModel(deal))
	}
}

func dealIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "dealID")
	dealID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid deal id")
	}
	return dealID, nil
}

func pageParams(r *http.Request) pagination.Params {
	params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}
	return params
}
