package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/travel/pkg/auth"
	"github.com/mamadbah2/travel/services/travel-service/internal/domain"
	"github.com/mamadbah2/travel/services/travel-service/internal/service"
)

type Handler struct {
	travels *service.TravelService
	subs    *service.SubscriptionService
}

func NewHandler(travels *service.TravelService, subs *service.SubscriptionService) *Handler {
	return &Handler{travels: travels, subs: subs}
}

func (h *Handler) Register(r *gin.Engine, jwtSecret string) {
	api := r.Group("/api/v1")
	api.Use(JWTAuth(jwtSecret))

	api.GET("/travels", h.ListAvailable)
	api.GET("/travels/:id", h.GetTravel)

	managers := api.Group("")
	managers.Use(RequireRole(auth.RoleManager, auth.RoleAdmin))
	managers.POST("/travels", h.CreateTravel)
	managers.PUT("/travels/:id", h.UpdateTravel)
	managers.DELETE("/travels/:id", h.DeleteTravel)
	managers.POST("/travels/:id/publish", h.PublishTravel)
	managers.POST("/travels/:id/cancel", h.CancelTravel)
	managers.GET("/manager/travels", h.ListMine)
	managers.GET("/travels/:id/subscriptions", h.ListSubscribers)
	managers.DELETE("/travels/:id/subscriptions/:subID", h.RemoveSubscriber)

	api.POST("/travels/:id/subscriptions", h.Subscribe)
	api.GET("/subscriptions", h.ListMySubscriptions)
	api.GET("/subscriptions/:id", h.GetSubscription)
	api.POST("/subscriptions/:id/cancel", h.CancelSubscription)
}

type destinationIn struct {
	Name        string `json:"name" binding:"required"`
	Country     string `json:"country" binding:"required"`
	City        string `json:"city" binding:"required"`
	Description string `json:"description"`
}

type activityIn struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type travelIn struct {
	Title                 string          `json:"title" binding:"required"`
	Description           string          `json:"description"`
	StartDate             string          `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate               string          `json:"end_date" binding:"required"`
	Price                 float64         `json:"price" binding:"required"`
	MaxCapacity           int             `json:"max_capacity" binding:"required,gt=0"`
	AccommodationType     string          `json:"accommodation_type"`
	AccommodationName     string          `json:"accommodation_name"`
	TransportationType    string          `json:"transportation_type"`
	TransportationDetails string          `json:"transportation_details"`
	Destinations          []destinationIn `json:"destinations"`
	Activities            []activityIn    `json:"activities"`
}

func (in *travelIn) toInput() (service.TravelInput, error) {
	start, err := time.Parse("2006-01-02", in.StartDate)
	if err != nil {
		return service.TravelInput{}, err
	}
	end, err := time.Parse("2006-01-02", in.EndDate)
	if err != nil {
		return service.TravelInput{}, err
	}
	out := service.TravelInput{
		Title:                 in.Title,
		Description:           in.Description,
		StartDate:             start,
		EndDate:               end,
		Price:                 in.Price,
		MaxCapacity:           in.MaxCapacity,
		AccommodationType:     in.AccommodationType,
		AccommodationName:     in.AccommodationName,
		TransportationType:    in.TransportationType,
		TransportationDetails: in.TransportationDetails,
	}
	for _, d := range in.Destinations {
		out.Destinations = append(out.Destinations, domain.Destination{
			Name: d.Name, Country: d.Country, City: d.City, Description: d.Description,
		})
	}
	for _, a := range in.Activities {
		out.Activities = append(out.Activities, domain.Activity{
			Name: a.Name, Description: a.Description, Location: a.Location,
		})
	}
	return out, nil
}

// POST /api/v1/travels
func (h *Handler) CreateTravel(c *gin.Context) {
	var in travelIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := in.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
		return
	}
	t, err := h.travels.Create(c.Request.Context(), input, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// PUT /api/v1/travels/:id
func (h *Handler) UpdateTravel(c *gin.Context) {
	var in travelIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := in.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
		return
	}
	t, err := h.travels.Update(c.Request.Context(), c.Param("id"), input, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /api/v1/travels/:id
func (h *Handler) DeleteTravel(c *gin.Context) {
	if err := h.travels.Delete(c.Request.Context(), c.Param("id"), callerID(c), callerRole(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/travels/:id/publish
func (h *Handler) PublishTravel(c *gin.Context) {
	t, err := h.travels.Publish(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// POST /api/v1/travels/:id/cancel
func (h *Handler) CancelTravel(c *gin.Context) {
	t, err := h.travels.CancelTravel(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /api/v1/travels/:id
func (h *Handler) GetTravel(c *gin.Context) {
	t, err := h.travels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /api/v1/travels?page=0&size=20
func (h *Handler) ListAvailable(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.travels.ListAvailable(c.Request.Context(), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "size": size})
}

// GET /api/v1/manager/travels
func (h *Handler) ListMine(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.travels.ListByManager(c.Request.Context(), callerID(c), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "size": size})
}

// POST /api/v1/travels/:id/subscriptions
func (h *Handler) Subscribe(c *gin.Context) {
	sub, err := h.subs.Subscribe(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// POST /api/v1/subscriptions/:id/cancel
func (h *Handler) CancelSubscription(c *gin.Context) {
	sub, err := h.subs.Cancel(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// GET /api/v1/subscriptions/:id
func (h *Handler) GetSubscription(c *gin.Context) {
	sub, err := h.subs.Get(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// GET /api/v1/subscriptions
func (h *Handler) ListMySubscriptions(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.subs.ListByTraveler(c.Request.Context(), callerID(c), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "size": size})
}

// GET /api/v1/travels/:id/subscriptions
func (h *Handler) ListSubscribers(c *gin.Context) {
	page, size := pagination(c)
	items, total, err := h.subs.ListByTravel(c.Request.Context(), c.Param("id"), callerID(c), callerRole(c), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "size": size})
}

// DELETE /api/v1/travels/:id/subscriptions/:subID
func (h *Handler) RemoveSubscriber(c *gin.Context) {
	err := h.subs.RemoveSubscriber(c.Request.Context(), c.Param("id"), c.Param("subID"), callerID(c), callerRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return page, size
}

func callerID(c *gin.Context) string {
	v, _ := c.Get("sub")
	s, _ := v.(string)
	return s
}

func callerRole(c *gin.Context) string {
	v, _ := c.Get("role")
	s, _ := v.(string)
	return s
}

// writeError maps domain error codes onto HTTP statuses at the boundary.
func writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(statusOf(de), gin.H{"error": de.Message, "code": de.Code})
}

func statusOf(de *domain.Error) int {
	switch de.Code {
	case "TRAVEL_001", "TRAVEL_002":
		return http.StatusNotFound
	case "TRAVEL_006":
		return http.StatusForbidden
	case "TRAVEL_003", "TRAVEL_004", "TRAVEL_005", "TRAVEL_007", "TRAVEL_008":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
