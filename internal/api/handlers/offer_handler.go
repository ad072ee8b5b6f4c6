package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/offer"
	"github.com/Cheertaboi/offer-engine/internal/service"
)

const (
	maxBodyBytes   = 1 << 20
	maxBatchSize   = 100
	defaultErrCode = "internal_error"
)

// OfferService is what the handlers need from the service layer.
type OfferService interface {
	PriceBasket(ctx context.Context, req models.Basket) (*models.PricedBasket, error)
	PriceBaskets(ctx context.Context, reqs []models.Basket) ([]models.BatchResult, error)
	Checkout(ctx context.Context, req models.CheckoutRequest) (*models.PricedBasket, error)
	ListOpenOffers(ctx context.Context) ([]models.OfferSummary, error)
	CreateOffer(ctx context.Context, def models.Offer) (*models.Offer, error)
	VoucherStatus(ctx context.Context, code, userID string) (*models.VoucherStatus, error)
}

// --- Request / Response DTOs ---

type BatchRequest struct {
	Baskets []models.Basket `json:"baskets"`
}

type BatchResponse struct {
	Results []models.BatchResult `json:"results"`
}

type OffersResponse struct {
	Offers []models.OfferSummary `json:"offers"`
}

type OfferHandler struct {
	service OfferService
}

func NewOfferHandler(svc OfferService) *OfferHandler {
	return &OfferHandler{service: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body", "detail": err.Error()})
		return false
	}
	return true
}

// writeError maps service errors to a status code and a stable error name.
func writeError(w http.ResponseWriter, err error) {
	code, name := http.StatusInternalServerError, defaultErrCode
	switch {
	case errors.Is(err, service.ErrEmptyBasket):
		code, name = http.StatusBadRequest, "empty_basket"
	case errors.Is(err, service.ErrInvalidBasket):
		code, name = http.StatusBadRequest, "invalid_basket"
	case offer.IsConfigError(err):
		code, name = http.StatusBadRequest, "invalid_offer"
	case errors.Is(err, service.ErrProductNotFound):
		code, name = http.StatusUnprocessableEntity, "product_not_found"
	case errors.Is(err, service.ErrVoucherNotFound):
		code, name = http.StatusNotFound, "voucher_not_found"
	case errors.Is(err, service.ErrVoucherInactive):
		code, name = http.StatusUnprocessableEntity, "voucher_inactive"
	case errors.Is(err, service.ErrVoucherUnavailable):
		code, name = http.StatusUnprocessableEntity, "voucher_unavailable"
	case errors.Is(err, service.ErrUsageLimitReached):
		code, name = http.StatusConflict, "usage_limit_reached"
	case errors.Is(err, context.DeadlineExceeded):
		code, name = http.StatusGatewayTimeout, "timeout"
	}
	writeJSON(w, code, map[string]string{"error": name, "detail": err.Error()})
}

// --- Handlers ---

// PriceBasket handles POST /baskets/price
func (h *OfferHandler) PriceBasket(w http.ResponseWriter, r *http.Request) {
	var req models.Basket
	if !decode(w, r, &req) {
		return
	}
	priced, err := h.service.PriceBasket(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priced)
}

// PriceBaskets handles POST /baskets/price-batch
func (h *OfferHandler) PriceBaskets(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Baskets) == 0 || len(req.Baskets) > maxBatchSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "baskets must hold 1 to 100 entries"})
		return
	}
	results, err := h.service.PriceBaskets(r.Context(), req.Baskets)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchResponse{Results: results})
}

// Checkout handles POST /checkout
func (h *OfferHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	priced, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priced)
}

// ListOffers handles GET /offers
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ListOpenOffers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OffersResponse{Offers: offers})
}

// CreateOffer handles POST /admin/offers
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var def models.Offer
	if !decode(w, r, &def) {
		return
	}
	if strings.TrimSpace(def.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name required"})
		return
	}
	created, err := h.service.CreateOffer(r.Context(), def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// VoucherStatus handles GET /vouchers/{code}?user=
func (h *OfferHandler) VoucherStatus(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	status, err := h.service.VoucherStatus(r.Context(), code, r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
