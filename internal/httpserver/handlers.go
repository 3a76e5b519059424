package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/pricing"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/checkout"
)

type handlers struct {
	deps   Deps
	logger *log.Entry
}

type cartResponse struct {
	*domain.Cart
	Totals domain.OrderTotals `json:"totals"`
}

type checkoutResponse struct {
	Step string `json:"step"`
	*checkout.View
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *handlers) getProduct(c *gin.Context) {
	product, err := h.deps.ProductSvc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handlers) createCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Create(c.Request.Context(), sessionFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.writeCart(c, http.StatusCreated, cart)
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), c.Param("id"), sessionFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *handlers) updateCart(c *gin.Context) {
	var in cartsvc.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	cart, err := h.deps.CartSvc.Update(c.Request.Context(), c.Param("id"), sessionFrom(c), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *handlers) resetCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Reset(c.Request.Context(), c.Param("id"), sessionFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.writeCart(c, http.StatusOK, cart)
}

func (h *handlers) deleteCart(c *gin.Context) {
	if err := h.deps.CartSvc.Delete(c.Request.Context(), c.Param("id"), sessionFrom(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeCart derives totals on every read; they are never stored.
func (h *handlers) writeCart(c *gin.Context, status int, cart *domain.Cart) {
	totals, err := pricing.ForCart(cart)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(status, cartResponse{Cart: cart, Totals: totals})
}

func (h *handlers) checkoutStep(c *gin.Context) {
	step, ok := domain.ParseStep(c.Param("step"))
	if !ok {
		writeError(c, h.logger, fmt.Errorf("%w: unknown checkout step %q", domain.ErrInvalidInput, c.Param("step")))
		return
	}
	h.writeView(c, step)
}

func (h *handlers) placeOrderSummary(c *gin.Context) {
	h.writeView(c, domain.StepPlaceOrder)
}

func (h *handlers) writeView(c *gin.Context, step domain.Step) {
	view, err := h.deps.CheckoutSvc.View(c.Request.Context(), c.Param("id"), step, sessionFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse{Step: step.String(), View: view})
}

func (h *handlers) placeOrder(c *gin.Context) {
	res, err := h.deps.CheckoutSvc.Submit(c.Request.Context(), c.Param("id"), sessionFrom(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Location", res.Redirect)
	c.JSON(http.StatusCreated, res)
}

func (h *handlers) createOrder(c *gin.Context) {
	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	order, err := h.deps.OrderSvc.Create(c.Request.Context(), sessionFrom(c).UserID, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handlers) listOrders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, h.logger, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}
	orders, err := h.deps.OrderSvc.ListByUser(c.Request.Context(), sessionFrom(c).UserID, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.OrderSvc.Get(c.Request.Context(), c.Param("id"), sessionFrom(c).UserID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
