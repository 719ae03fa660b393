package simulator

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler exposes the engine over HTTP.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type initiateCallRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// InitiateCall handles POST /api/call
func (h *Handler) InitiateCall(c *gin.Context) {
	var req initiateCallRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "phone_number is required",
		})
		return
	}

	if req.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "phone_number is required",
		})
		return
	}

	if len(req.PhoneNumber) < 10 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid phone number",
		})
		return
	}

	call := h.engine.Initiate(req.PhoneNumber)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"call":    call,
	})
}

// GetCall handles GET /api/call/:call_id
func (h *Handler) GetCall(c *gin.Context) {
	callID := c.Param("call_id")

	call, ok := h.engine.Get(callID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Call not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"call":    call,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	api := router.Group("/api")
	{
		api.POST("/call", handler.InitiateCall)
		api.GET("/call/:call_id", handler.GetCall)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}
