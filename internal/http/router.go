package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Checkout     *CheckoutHandler
	Payment      *PaymentHandler
	Transaction  *TransactionHandler
	Verify       *VerifyHandler
	Catalog      *CatalogHandler
	Cart         *CartHandler
	Admin        *AdminHandler
	Health       *HealthHandler
	Auth         *Authenticator
	Metrics      func(http.Handler) http.Handler
	MetricsRoute http.Handler
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if h.Metrics != nil {
		r.Use(h.Metrics)
	}

	r.Get("/health", h.Health.Health)
	r.Get("/version", h.Health.Version)
	if h.MetricsRoute != nil {
		r.Handle("/metrics", h.MetricsRoute)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/stores", h.Catalog.ListStores)
		r.Get("/stores/{id}", h.Catalog.GetStore)
		r.Get("/stores/{id}/products", h.Catalog.ListStoreProducts)
		r.Post("/scan-barcode", h.Catalog.ScanBarcode)

		r.With(h.Auth.OptionalAuth).Post("/checkout/create", h.Checkout.CreateCheckout)

		r.Post("/payment/sheet", h.Payment.CreatePaymentSheet)
		r.Post("/payment/confirm", h.Payment.ConfirmPayment)
		r.Post("/payment/fail", h.Payment.FailPayment)

		r.Get("/transaction/{id}", h.Transaction.GetTransaction)
		r.Get("/transaction/{id}/items", h.Transaction.GetItems)
		r.Get("/transaction/{id}/qr", h.Transaction.GetQR)

		r.Post("/verify-qr", h.Verify.VerifyQR)
		r.Get("/verify/transaction/{id}", h.Verify.GetTransactionForVerification)

		r.Route("/cart", func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/add", h.Cart.AddItem)
			r.Put("/update", h.Cart.UpdateQuantity)
			r.Delete("/remove", h.Cart.RemoveItem)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.Use(RequireAdmin)
			r.Post("/stores", h.Admin.CreateStore)
			r.Post("/products", h.Admin.CreateProduct)
			r.Put("/products/{id}", h.Admin.UpdateProduct)
			r.Delete("/products/{id}", h.Admin.DeleteProduct)
		})
	})

	return otelhttp.NewHandler(r, "qless")
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
