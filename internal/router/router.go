package router

import (
	"net/http"
	"strings"

	"giftkart/internal/handler"
	"giftkart/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	cartHandler *handler.CartHandler,
	checkoutHandler *handler.CheckoutHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Cart routes
	cartRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/cart" || r.URL.Path == "/api/cart/":
			if r.Method == http.MethodDelete {
				cartHandler.Clear(w, r)
				return
			}
			cartHandler.Get(w, r)
		case r.URL.Path == "/api/cart/items" || r.URL.Path == "/api/cart/items/":
			cartHandler.AddItem(w, r)
		case r.URL.Path == "/api/cart/price" || r.URL.Path == "/api/cart/price/":
			cartHandler.PriceLine(w, r)
		case strings.HasPrefix(r.URL.Path, "/api/cart/items/"):
			if r.Method == http.MethodDelete {
				cartHandler.RemoveItem(w, r)
				return
			}
			cartHandler.UpdateItem(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/cart", cartRouteHandler)
	mux.HandleFunc("/api/cart/", cartRouteHandler)

	// Checkout routes
	checkoutRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimSuffix(r.URL.Path, "/") {
		case "/api/checkout/begin":
			checkoutHandler.Begin(w, r)
		case "/api/checkout/stage":
			checkoutHandler.Stage(w, r)
		case "/api/checkout/currency":
			checkoutHandler.SetCurrency(w, r)
		case "/api/checkout/shipping":
			checkoutHandler.SubmitShipping(w, r)
		case "/api/checkout/back/shipping":
			checkoutHandler.BackToShipping(w, r)
		case "/api/checkout/back/cart":
			checkoutHandler.BackToCart(w, r)
		case "/api/checkout/promo":
			if r.Method == http.MethodDelete {
				checkoutHandler.RemovePromo(w, r)
				return
			}
			checkoutHandler.ApplyPromo(w, r)
		case "/api/checkout/quote":
			checkoutHandler.Quote(w, r)
		case "/api/checkout/gateway/ready":
			checkoutHandler.GatewayReady(w, r)
		case "/api/checkout/payment":
			checkoutHandler.BeginPayment(w, r)
		case "/api/checkout/payment/cancel":
			checkoutHandler.CancelPayment(w, r)
		case "/api/checkout/payment/complete":
			checkoutHandler.CompletePayment(w, r)
		case "/api/checkout/confirmation":
			checkoutHandler.Confirmation(w, r)
		case "/api/checkout/popup":
			checkoutHandler.PopupSeen(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/checkout", checkoutRouteHandler)
	mux.HandleFunc("/api/checkout/", checkoutRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> Account
	var h http.Handler = mux
	h = middleware.Account()(h)
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
