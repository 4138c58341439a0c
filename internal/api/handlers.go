// Package api exposes the pricing engine over HTTP: a basket priced against a
// named fixture stack comes back as a receipt.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/basket-engine/internal/catalog"
	"github.com/noah-isme/basket-engine/internal/common"
	"github.com/noah-isme/basket-engine/internal/fixture"
	"github.com/noah-isme/basket-engine/internal/ilp"
	"github.com/noah-isme/basket-engine/internal/money"
	"github.com/noah-isme/basket-engine/internal/obs"
	"github.com/noah-isme/basket-engine/internal/receipt"
)

// Handler serves the pricing endpoints.
type Handler struct {
	Logger   zerolog.Logger
	Metrics  *obs.EngineMetrics
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger zerolog.Logger, metrics *obs.EngineMetrics) *Handler {
	return &Handler{
		Logger:   logger,
		Metrics:  metrics,
		validate: validator.New(),
	}
}

// Routes mounts the pricing API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/fixtures", h.ListFixtures)
	r.Post("/price", h.Price)
	return r
}

type priceRequest struct {
	Fixture string        `json:"fixture" validate:"required"`
	Limit   *int          `json:"limit,omitempty" validate:"omitempty,gte=0"`
	Items   []itemRequest `json:"items,omitempty" validate:"omitempty,dive"`
	Export  bool          `json:"export,omitempty"`
}

type itemRequest struct {
	Key   string   `json:"key" validate:"required"`
	Name  string   `json:"name,omitempty"`
	Price string   `json:"price" validate:"required"`
	Tags  []string `json:"tags,omitempty"`
}

type redemptionResponse struct {
	Promotion string `json:"promotion"`
	Item      string `json:"item"`
	Bundle    uint32 `json:"bundle"`
	Layer     string `json:"layer"`
	Original  string `json:"original"`
	Final     string `json:"final"`
	Saved     string `json:"saved"`
}

type itemResponse struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type receiptResponse struct {
	RunID       string               `json:"run_id"`
	Subtotal    string               `json:"subtotal"`
	Total       string               `json:"total"`
	Saved       string               `json:"saved"`
	FullPrice   []itemResponse       `json:"full_price_items"`
	Redemptions []redemptionResponse `json:"redemptions"`
	Export      string               `json:"export,omitempty"`
}

// ListFixtures returns the embedded fixture set names.
func (h *Handler) ListFixtures(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"fixtures": fixture.Names()})
}

// Price runs the basket through the fixture's promotion stack.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	runID := uuid.NewString()
	logger := h.Logger.With().Str("run_id", runID).Logger()

	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.Error(w, http.StatusBadRequest, common.ErrorBody{
			Code:    "invalid_json",
			Message: "request body is not valid JSON",
			RunID:   runID,
		})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.Error(w, http.StatusUnprocessableEntity, common.ErrorBody{
			Code:    "validation_failed",
			Message: "request failed validation",
			RunID:   runID,
			Details: err.Error(),
		})
		return
	}

	def, err := fixture.Load(req.Fixture)
	if err != nil {
		h.fail(w, start, runID, err)
		return
	}
	stack, err := def.Build(logger)
	if err != nil {
		h.fail(w, start, runID, err)
		return
	}

	items, err := h.basket(def, req)
	if err != nil {
		h.fail(w, start, runID, err)
		return
	}

	var exporter *ilp.Exporter
	var rcpt receipt.Receipt
	if req.Export {
		exporter = ilp.NewExporter()
		rcpt, err = stack.ProcessWithObserver(items, exporter)
	} else {
		rcpt, err = stack.Process(items)
	}
	if err != nil {
		h.fail(w, start, runID, err)
		return
	}

	saved, err := rcpt.TotalSavings()
	if err != nil {
		h.fail(w, start, runID, err)
		return
	}
	h.Metrics.ObserveProcess(start, "ok", len(rcpt.Redemptions), saved.Amount())
	logger.Info().
		Str("fixture", req.Fixture).
		Int("redemptions", len(rcpt.Redemptions)).
		Str("total", rcpt.Total.String()).
		Msg("basket priced")

	resp := receiptResponse{
		RunID:       runID,
		Subtotal:    rcpt.Subtotal.String(),
		Total:       rcpt.Total.String(),
		Saved:       saved.String(),
		FullPrice:   make([]itemResponse, 0, len(rcpt.FullPriceItems)),
		Redemptions: make([]redemptionResponse, 0, len(rcpt.Redemptions)),
	}
	for _, it := range rcpt.FullPriceItems {
		resp.FullPrice = append(resp.FullPrice, itemResponse{Key: it.Key, Name: it.Name, Price: it.Price.String()})
	}
	for _, red := range rcpt.Redemptions {
		redSaved, err := red.Savings()
		if err != nil {
			h.fail(w, start, runID, err)
			return
		}
		resp.Redemptions = append(resp.Redemptions, redemptionResponse{
			Promotion: red.PromotionKey,
			Item:      red.ItemKey,
			Bundle:    red.BundleID,
			Layer:     red.LayerKey,
			Original:  red.OriginalPrice.String(),
			Final:     red.FinalPrice.String(),
			Saved:     redSaved.String(),
		})
	}
	if exporter != nil {
		resp.Export = exporter.Document()
	}
	common.JSON(w, http.StatusOK, resp)
}

// basket resolves the priced items: the request's own lines when present,
// otherwise the fixture's declared basket.
func (h *Handler) basket(def *fixture.Definition, req priceRequest) ([]catalog.Item, error) {
	limit := -1
	if req.Limit != nil {
		limit = *req.Limit
	}
	if len(req.Items) == 0 {
		return def.Items(limit)
	}
	lines := req.Items
	if limit >= 0 && limit < len(lines) {
		lines = lines[:limit]
	}
	items := make([]catalog.Item, len(lines))
	for i, line := range lines {
		price, err := money.Parse(line.Price)
		if err != nil {
			return nil, err
		}
		name := line.Name
		if name == "" {
			name = line.Key
		}
		items[i] = catalog.NewItem(line.Key, name, price, line.Tags...)
	}
	return items, nil
}

func (h *Handler) fail(w http.ResponseWriter, start time.Time, runID string, err error) {
	code, _ := common.CodeFor(err)
	h.Logger.Error().Err(err).Str("code", code).Str("run_id", runID).Msg("price request failed")
	h.Metrics.ObserveProcess(start, code, 0, 0)
	common.Fail(w, runID, err)
}
