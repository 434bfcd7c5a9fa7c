package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shopfront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/shopfront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/shopfront-backend/api/controllers/orders"
	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/coupons"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/products"
	"github.com/angelmondragon/shopfront-backend/internal/stores"
	"github.com/angelmondragon/shopfront-backend/internal/wishlist"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/shopfront-backend/pkg/redis"
)

var placeOrderIdempotency = middleware.IdempotencyPolicy{
	Scope: "place_order",
	TTL:   7 * 24 * time.Hour,
}

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
	controllers.Pinger
}

// Params collects the router dependencies. Registry and HTTPMetrics are
// optional; without a registry /metrics is not mounted.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       RedisStore
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	Cart     cart.Service
	Coupons  coupons.Service
	Orders   orders.Service
	Stores   stores.Service
	Products products.Service
	Wishlist wishlist.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Logging(logg, p.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(p.Registry))
	}

	couponLookupPolicy := middleware.RateLimitPolicy{
		Name:   "coupon_lookup",
		Limit:  cfg.RateLimit.CouponLookupLimit,
		Window: cfg.RateLimit.CouponLookupWindow,
	}
	merchantsOnly := middleware.RequireRole(logg, enums.ActorRoleVendor, enums.ActorRoleAdmin)
	adminOnly := middleware.RequireRole(logg, enums.ActorRoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
			r.Post("/", cartcontrollers.CartAddItem(p.Cart, logg))
			r.Delete("/", cartcontrollers.CartRemoveItem(p.Cart, logg))
			r.Put("/quantity", cartcontrollers.CartUpdateQuantity(p.Cart, logg))
			r.Delete("/clear", cartcontrollers.CartClear(p.Cart, logg))
			r.Get("/count", cartcontrollers.CartCount(p.Cart, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.CouponList(p.Coupons, logg))
			r.With(merchantsOnly).Post("/", controllers.CouponCreate(p.Coupons, logg))
			r.With(middleware.RateLimitPerUser(couponLookupPolicy, p.Redis, logg)).
				Get("/code/{code}", controllers.CouponValidate(p.Coupons, logg))
			r.Get("/store/{storeId}", controllers.CouponListByStore(p.Coupons, logg))
			r.Get("/{couponId}", controllers.CouponGet(p.Coupons, logg))
			r.With(merchantsOnly).Put("/{couponId}", controllers.CouponUpdate(p.Coupons, logg))
			r.With(merchantsOnly).Delete("/{couponId}", controllers.CouponDelete(p.Coupons, logg))
		})

		r.With(middleware.Idempotency(placeOrderIdempotency, p.Redis, logg)).Post("/orders", ordercontrollers.PlaceOrder(p.Orders, logg))
		r.With(adminOnly).Get("/orders", ordercontrollers.OrderList(p.Orders, logg))
		r.Get("/orders/user", ordercontrollers.OrderListMine(p.Orders, logg))
		r.Get("/orders/{orderId}", ordercontrollers.OrderGet(p.Orders, logg))
		r.With(merchantsOnly).Patch("/orders/{orderId}", ordercontrollers.OrderUpdateStatus(p.Orders, logg))
		r.With(adminOnly).Delete("/orders/{orderId}", ordercontrollers.OrderDelete(p.Orders, logg))

		r.Route("/stores", func(r chi.Router) {
			r.Post("/", controllers.StoreCreate(p.Stores, logg))
			r.Get("/", controllers.StoreList(p.Stores, logg))
			r.Get("/user", controllers.StoreListMine(p.Stores, logg))
			r.Get("/{storeId}", controllers.StoreGet(p.Stores, logg))
			r.Put("/{storeId}", controllers.StoreUpdate(p.Stores, logg))
			r.Delete("/{storeId}", controllers.StoreDelete(p.Stores, logg))
			r.Get("/{storeId}/products", controllers.StoreProducts(p.Products, logg))
			r.Get("/{storeId}/orders", ordercontrollers.StoreOrders(p.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductSearch(p.Products, logg))
			r.With(merchantsOnly).Post("/", controllers.ProductCreate(p.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(p.Products, logg))
			r.With(merchantsOnly).Put("/{productId}", controllers.ProductUpdate(p.Products, logg))
			r.With(merchantsOnly).Delete("/{productId}", controllers.ProductDelete(p.Products, logg))
			r.Get("/{productId}/reviews", controllers.ReviewList(p.Products, logg))
			r.Post("/{productId}/reviews", controllers.ReviewCreate(p.Products, logg))
		})
		r.Delete("/reviews/{reviewId}", controllers.ReviewDelete(p.Products, logg))

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(p.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(p.Wishlist, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(p.Wishlist, logg))
		})
	})

	return r
}
