package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vpexchange/internal/exchange/models"
	"vpexchange/internal/platform/middleware"
	"vpexchange/pkg/platform/httputil"
)

// Issuer-side scopes.
const (
	ScopeManage = "exchange:manage"
	ScopeReview = "exchange:review"
)

// Service defines the exchange operations exposed over HTTP.
type Service interface {
	CreateExchange(ctx context.Context, req *models.CreateExchangeRequest) (*models.ExchangeDefinition, error)
	GetExchange(ctx context.Context, exchangeID string) (*models.ExchangeDefinition, error)
	StartExchange(ctx context.Context, exchangeID string) (*models.ExchangeResponse, error)
	ContinueExchange(ctx context.Context, exchangeID, transactionID string, vp *models.Presentation) (*models.ExchangeResponse, error)
	GetTransaction(ctx context.Context, exchangeID, transactionID string) (*models.Transaction, error)
	AddReview(ctx context.Context, exchangeID, transactionID string, req *models.ReviewRequest) (*models.Transaction, error)
}

// Handler serves the exchange protocol endpoints.
type Handler struct {
	service Service
	auth    middleware.TokenValidator
	logger  *slog.Logger
}

// New creates a Handler. A nil auth leaves the issuer routes unprotected.
func New(service Service, auth middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

// Register registers the exchange routes with the chi router.
// Holder routes are public; issuer routes need a bearer token with the matching scope.
func (h *Handler) Register(r chi.Router) {
	manage := middleware.RequireIssuer(h.auth, ScopeManage, h.logger)
	review := middleware.RequireIssuer(h.auth, ScopeReview, h.logger)

	r.With(manage).Post("/exchanges", h.handleCreateExchange)
	r.With(manage).Get("/exchanges/{exchangeID}", h.handleGetExchange)
	r.Post("/exchanges/{exchangeID}", h.handleStartExchange)
	r.Put("/exchanges/{exchangeID}/{transactionID}", h.handleContinueExchange)
	r.With(review).Get("/exchanges/{exchangeID}/{transactionID}", h.handleGetTransaction)
	r.With(review).Post("/exchanges/{exchangeID}/{transactionID}/review", h.handleAddReview)
}

func (h *Handler) handleCreateExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateExchangeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	def, err := h.service.CreateExchange(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create exchange",
			"error", err,
			"request_id", requestID,
			"exchange_id", req.ExchangeID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, def)
}

func (h *Handler) handleGetExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	def, err := h.service.GetExchange(ctx, chi.URLParam(r, "exchangeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) handleStartExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	exchangeID := chi.URLParam(r, "exchangeID")

	resp, err := h.service.StartExchange(ctx, exchangeID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to start exchange",
			"error", err,
			"request_id", requestID,
			"exchange_id", exchangeID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleContinueExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	exchangeID := chi.URLParam(r, "exchangeID")
	transactionID := chi.URLParam(r, "transactionID")

	req, ok := httputil.DecodeAndPrepare[models.SubmitPresentationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resp, err := h.service.ContinueExchange(ctx, exchangeID, transactionID, &req.Presentation)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to continue exchange",
			"error", err,
			"request_id", requestID,
			"exchange_id", exchangeID,
			"transaction_id", transactionID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tx, err := h.service.GetTransaction(ctx, chi.URLParam(r, "exchangeID"), chi.URLParam(r, "transactionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	exchangeID := chi.URLParam(r, "exchangeID")
	transactionID := chi.URLParam(r, "transactionID")

	req, ok := httputil.DecodeAndPrepare[models.ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tx, err := h.service.AddReview(ctx, exchangeID, transactionID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to add review",
			"error", err,
			"request_id", requestID,
			"exchange_id", exchangeID,
			"transaction_id", transactionID,
			"reviewer", middleware.GetIssuer(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tx)
}
