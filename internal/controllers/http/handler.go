package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
	"github.com/vhxmt/doantotnghiep-sub001/internal/services"
)

const orderCacheTTL = 10 * time.Second

type Handler struct {
	orders   *services.OrderService
	payments *services.PaymentService
	rdb      *redis.Client
}

func NewHandler(orders *services.OrderService, payments *services.PaymentService, rdb *redis.Client) *Handler {
	return &Handler{orders: orders, payments: payments, rdb: rdb}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	v1.POST("/orders", h.CreateOrder)
	v1.GET("/orders/:id", h.GetOrder)
	v1.GET("/users/:userId/orders", h.ListUserOrders)
	v1.POST("/orders/:id/cancel", h.CancelOrder)
	v1.POST("/orders/:id/status", h.TransitionStatus)
	v1.POST("/orders/:id/payment", h.InitiatePayment)
	v1.POST("/coupons/preview", h.PreviewCoupon)

	v1.POST("/payments/zalopay/callback", h.ZaloPayCallback)
	v1.GET("/payments/vnpay/ipn", h.VNPayIPN)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.CreateOrderInput{
		UserID:          req.UserID,
		Items:           make([]services.OrderItemInput, 0, len(req.Items)),
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		CouponCode:      req.CouponCode,
		ShippingName:    req.ShippingName,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
	}
	if req.Guest != nil {
		input.Guest = &services.GuestContact{
			Email: req.Guest.Email,
			Name:  req.Guest.Name,
			Phone: req.Guest.Phone,
		}
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, services.OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	ctx := c.Request.Context()
	cacheKey := orderCacheKey(id)
	if b, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var cached domain.Order
		if json.Unmarshal([]byte(b), &cached) == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	order, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if data, err := json.Marshal(order); err == nil {
		h.rdb.Set(ctx, cacheKey, data, orderCacheTTL)
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) ListUserOrders(c *gin.Context) {
	userID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, err := h.orders.ListUserOrders(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.invalidateOrderCache(id)
	c.JSON(http.StatusOK, order)
}

func (h *Handler) TransitionStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.TransitionStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.invalidateOrderCache(id)
	c.JSON(http.StatusOK, order)
}

func (h *Handler) InitiatePayment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	redirectURL, err := h.payments.InitiatePayment(c.Request.Context(), id, req.Gateway, c.ClientIP())
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.invalidateOrderCache(id)
	c.JSON(http.StatusOK, InitiatePaymentResponse{RedirectURL: redirectURL})
}

func (h *Handler) PreviewCoupon(c *gin.Context) {
	var req PreviewCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.orders.PreviewCoupon(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDiscountResponse(req.Code, d))
}

// ZaloPayCallback receives the gateway's JSON callback body. The response is
// always 200 with the gateway's own ack codes; retry behavior is driven by
// the body, not the HTTP status.
func (h *Handler) ZaloPayCallback(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	ack := h.payments.HandleCallback(c.Request.Context(), "zalopay", raw)
	c.JSON(http.StatusOK, ack)
}

// VNPayIPN receives the signed query string of the IPN GET.
func (h *Handler) VNPayIPN(c *gin.Context) {
	ack := h.payments.HandleCallback(c.Request.Context(), "vnpay", []byte(c.Request.URL.RawQuery))
	c.JSON(http.StatusOK, ack)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		stockErr      *domain.InsufficientStockError
		couponErr     *domain.CouponRejectedError
		transitionErr *domain.InvalidTransitionError
		validationErr *domain.ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"productId": stockErr.ProductID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &couponErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  err.Error(),
			"coupon": couponErr.Code,
			"reason": couponErr.Reason,
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) invalidateOrderCache(id uint64) {
	h.rdb.Del(context.Background(), orderCacheKey(id))
}

func orderCacheKey(id uint64) string {
	return "orders:" + strconv.FormatUint(id, 10)
}

func parseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
