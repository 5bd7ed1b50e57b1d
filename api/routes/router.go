package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harvestly/harvestly-backend/api/controllers"
	"github.com/harvestly/harvestly-backend/api/middleware"
	"github.com/harvestly/harvestly-backend/internal/cart"
	checkoutsvc "github.com/harvestly/harvestly-backend/internal/checkout"
	"github.com/harvestly/harvestly-backend/internal/coupons"
	"github.com/harvestly/harvestly-backend/internal/orders"
	"github.com/harvestly/harvestly-backend/internal/products"
	"github.com/harvestly/harvestly-backend/pkg/config"
	"github.com/harvestly/harvestly-backend/pkg/db"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/harvestly/harvestly-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	cartManager *cart.Manager,
	productsRepo *products.Repo,
	couponsService coupons.Service,
	ordersService orders.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/products", controllers.ProductsList(productsRepo, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartManager, logg))
			r.Delete("/", controllers.CartClear(cartManager, logg))
			r.Post("/items", controllers.CartAddItem(cartManager, productsRepo, logg))
			r.Put("/items/{productId}", controllers.CartSetQuantity(cartManager, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartManager, logg))
			r.Post("/coupon", controllers.CartApplyCoupon(cartManager, couponsService, logg))
			r.Delete("/coupon", controllers.CartRemoveCoupon(cartManager, logg))
		})

		r.Post("/coupons/check", controllers.CouponCheck(couponsService, logg))

		r.With(middleware.RequireRole("customer", logg)).
			Post("/checkout", controllers.Checkout(checkoutService, cartManager, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Post("/coupons", controllers.AdminCouponCreate(couponsService, logg))
	})

	return r
}
