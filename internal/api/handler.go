package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"book-stock-service/internal/store"
	"book-stock-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	store *store.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(store *store.Store) *Handler {
	return &Handler{
		store: store,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/books/:isbn", h.getBook)
		v1.GET("/reconciliations/:saleId", h.getReconciliation)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getBook returns a book with its current stock
func (h *Handler) getBook(c *gin.Context) {
	isbn := c.Param("isbn")

	book, err := h.store.GetBookByISBN(c.Request.Context(), isbn)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Book not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load book",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, book)
}

// getReconciliation returns the recorded outcome for a sale id
func (h *Handler) getReconciliation(c *gin.Context) {
	saleID := c.Param("saleId")

	rec, err := h.store.GetReconciliation(c.Request.Context(), saleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load reconciliation",
			"details": err.Error(),
		})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Sale not reconciled",
		})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
