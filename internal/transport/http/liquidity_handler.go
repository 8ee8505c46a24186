package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "itemliquidity/internal/errors"
	"itemliquidity/internal/middleware"
	"itemliquidity/internal/services"
	api "itemliquidity/pkg/contracts/api/v1"
)

// Listing limits
const (
	DefaultItemsLimit = 100
	MaxItemsLimit     = 10000
	maxItemKeyLength  = 255
)

// LiquidityHandler handles liquidity-related HTTP requests
type LiquidityHandler struct {
	scores       ScoreServiceInterface
	stats        StatsServiceInterface
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewLiquidityHandler creates a new liquidity handler
func NewLiquidityHandler(scores ScoreServiceInterface, stats StatsServiceInterface, validator *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *LiquidityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	if validator == nil {
		validator = middleware.NewValidationMiddleware(logger, errorHandler, 0)
	}
	return &LiquidityHandler{
		scores:       scores,
		stats:        stats,
		validator:    validator,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "liquidity")),
	}
}

// RegisterRoutes registers the liquidity routes
func (h *LiquidityHandler) RegisterRoutes(r chi.Router) {
	r.Route("/liquidity", func(r chi.Router) {
		r.With(middleware.ContentTypeValidator("application/json")).Post("/score", h.Score)
		r.Get("/items", h.ListItems)
		r.Get("/items/{key}", h.GetItem)
	})
}

// Score handles POST /api/v1/liquidity/score
func (h *LiquidityHandler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ScoreRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.scores.Score(ctx, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "Series scored",
		slog.String("item", req.Item),
		slog.Int("observations", len(req.Dates)),
		slog.Float64("liquidity", resp.Liquidity),
		slog.String("request_id", middleware.GetRequestID(ctx)))

	render.JSON(w, r, resp)
}

// ListItems handles GET /api/v1/liquidity/items
func (h *LiquidityHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	minLiquidity, ok := h.query.ValidateFloat(w, r, "min_liquidity", 0, 100, 0)
	if !ok {
		return
	}
	limit, ok := h.query.ValidateInt(w, r, "limit", 0, MaxItemsLimit, DefaultItemsLimit)
	if !ok {
		return
	}

	resp, err := h.stats.List(r.Context(), api.ItemsQuery{MinLiquidity: minLiquidity, Limit: limit})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Last-Modified", resp.GeneratedAt.UTC().Format(http.TimeFormat))
	render.JSON(w, r, resp)
}

// GetItem handles GET /api/v1/liquidity/items/{key}
func (h *LiquidityHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || strings.TrimSpace(key) == "" || len(key) > maxItemKeyLength {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("key", "key must be a URL-encoded item name"))
		return
	}

	entry, err := h.stats.Get(r.Context(), key)
	if errors.Is(err, services.ErrItemNotFound) {
		h.errorHandler.HandleError(w, r, apierrors.ItemNotFoundError(key))
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, entry)
}
