package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/travel/pkg/auth"
	"github.com/mamadbah2/travel/services/payment-service/internal/domain"
	"github.com/mamadbah2/travel/services/payment-service/internal/service"
)

type Handler struct {
	svc *service.PaymentService
}

func NewHandler(svc *service.PaymentService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine, jwtSecret string) {
	api := r.Group("/api/v1")
	api.Use(jwtAuth(jwtSecret))

	api.GET("/payments", h.ListMine)
	api.GET("/payments/:id", h.Get)
	api.GET("/payments/subscription/:subscriptionID", h.GetBySubscription)
}

// GET /api/v1/payments/:id
func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/v1/payments/subscription/:subscriptionID
func (h *Handler) GetBySubscription(c *gin.Context) {
	p, err := h.svc.GetBySubscription(c.Request.Context(), c.Param("subscriptionID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/v1/payments?page=0&size=20
func (h *Handler) ListMine(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	v, _ := c.Get("sub")
	travelerID, _ := v.(string)
	items, total, err := h.svc.ListByTraveler(c.Request.Context(), travelerID, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "size": size})
}

func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status := http.StatusConflict
	if de.Code == "PAYMENT_001" {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": de.Message, "code": de.Code})
}

func jwtAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, err := auth.ParseValidate(secret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("sub", claims.Sub)
		c.Set("role", claims.Role)
		c.Next()
	}
}
