package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Cheertaboi/offer-engine/internal/api/handlers"
	"github.com/Cheertaboi/offer-engine/internal/api/middleware"
)

// NewRouter builds the HTTP router for the offer-service
func NewRouter(svc handlers.OfferService, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)

	offerHandler := handlers.NewOfferHandler(svc)

	r.Route("/baskets", func(r chi.Router) {
		r.Post("/price", offerHandler.PriceBasket)
		r.Post("/price-batch", offerHandler.PriceBaskets)
	})
	r.Post("/checkout", offerHandler.Checkout)
	r.Get("/offers", offerHandler.ListOffers)
	r.Get("/vouchers/{code}", offerHandler.VoucherStatus)

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Post("/offers", offerHandler.CreateOffer)
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
