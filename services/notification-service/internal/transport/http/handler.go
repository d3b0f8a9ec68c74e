package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/travel/pkg/auth"
	"github.com/mamadbah2/travel/services/notification-service/internal/service"
)

type Handler struct {
	svc *service.NotificationService
}

func NewHandler(svc *service.NotificationService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine, jwtSecret string) {
	api := r.Group("/api/v1")
	api.Use(jwtAuth(jwtSecret))

	api.GET("/notifications", h.ListMine)
}

// GET /api/v1/notifications
func (h *Handler) ListMine(c *gin.Context) {
	v, _ := c.Get("sub")
	travelerID, _ := v.(string)
	items, err := h.svc.ListByTraveler(c.Request.Context(), travelerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
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
