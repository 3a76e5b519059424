package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"storefront-checkout/internal/domain"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/checkout"
)

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
}

type cartService interface {
	Create(ctx context.Context, sess domain.Session) (*domain.Cart, error)
	Get(ctx context.Context, id string, sess domain.Session) (*domain.Cart, error)
	Update(ctx context.Context, id string, sess domain.Session, in cartsvc.UpdateInput) (*domain.Cart, error)
	Reset(ctx context.Context, id string, sess domain.Session) (*domain.Cart, error)
	Delete(ctx context.Context, id string, sess domain.Session) error
}

type checkoutService interface {
	View(ctx context.Context, cartID string, step domain.Step, sess domain.Session) (*checkout.View, error)
	Submit(ctx context.Context, cartID string, sess domain.Session) (*checkout.Result, error)
}

type orderService interface {
	Create(ctx context.Context, userID string, req domain.OrderRequest) (*domain.Order, error)
	Get(ctx context.Context, id, userID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
}

type sessionVerifier interface {
	Verify(token string) (domain.Session, error)
}

// Deps are the services the router exposes. OrderSvc is optional: without it
// the order boundary lives in another service.
type Deps struct {
	ProductSvc  productService
	CartSvc     cartService
	CheckoutSvc checkoutService
	OrderSvc    orderService
	Sessions    sessionVerifier

	ReadyChecks    map[string]ReadyCheck
	MetricsHandler http.Handler
	CORSOrigins    []string
	ServiceName    string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if deps.ProductSvc == nil || deps.CartSvc == nil || deps.CheckoutSvc == nil {
		return nil, errors.New("product, cart and checkout services are required")
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	if deps.ServiceName != "" {
		router.Use(otelgin.Middleware(deps.ServiceName))
	}

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.ReadyChecks))
	router.GET("/metrics", gin.WrapH(metricsHandler))

	h := &handlers{deps: deps, logger: log.NewEntry(logger).WithField("component", "http")}

	api := router.Group("/api")
	api.Use(sessionMiddleware(deps.Sessions))

	api.GET("/products", h.listProducts)
	api.GET("/products/:slug", h.getProduct)

	api.POST("/carts", h.createCart)
	api.GET("/carts/:id", h.getCart)
	api.POST("/carts/:id", h.updateCart)
	api.DELETE("/carts/:id", h.deleteCart)
	api.POST("/carts/:id/reset", h.resetCart)
	api.GET("/carts/:id/checkout/:step", h.checkoutStep)
	api.GET("/carts/:id/placeorder", h.placeOrderSummary)
	api.POST("/carts/:id/placeorder", h.placeOrder)

	if deps.OrderSvc != nil {
		orders := api.Group("/orders", requireSession())
		orders.GET("", h.listOrders)
		orders.POST("", h.createOrder)
		orders.GET("/:id", h.getOrder)
	}

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
