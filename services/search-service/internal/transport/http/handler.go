package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/travel/services/search-service/internal/repository"
)

// Handler serves read-only catalog queries from the projection. The
// endpoints are public: search is the browse surface for travelers.
type Handler struct {
	index *repository.TravelIndex
}

func NewHandler(index *repository.TravelIndex) *Handler {
	return &Handler{index: index}
}

func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/search/travels", h.search)
	api.GET("/search/available", h.available)
	api.GET("/search/travels/:id", h.get)
}

func (h *Handler) search(c *gin.Context) {
	q := repository.SearchQuery{
		Text:      c.Query("q"),
		Country:   c.Query("country"),
		City:      c.Query("city"),
		StartFrom: c.Query("start_from"),
		StartTo:   c.Query("start_to"),
	}
	q.MinPrice, _ = strconv.ParseFloat(c.Query("min_price"), 64)
	q.MaxPrice, _ = strconv.ParseFloat(c.Query("max_price"), 64)
	q.Limit, _ = strconv.ParseInt(c.Query("limit"), 10, 64)

	docs, err := h.index.Search(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"travels": docs, "count": len(docs)})
}

func (h *Handler) available(c *gin.Context) {
	day := c.Query("from")
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	}
	docs, err := h.index.Available(c.Request.Context(), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"travels": docs, "count": len(docs)})
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.index.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "travel not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, doc)
}
