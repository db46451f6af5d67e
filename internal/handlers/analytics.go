package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/services"
)

type AnalyticsHandler struct {
	log              *logger.Logger
	analyticsService services.AnalyticsService
	quizService      services.QuizService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, quizService services.QuizService, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:              log.With("handler", "AnalyticsHandler"),
		analyticsService: analyticsService,
		quizService:      quizService,
	}
}

func (h *AnalyticsHandler) Progress(c *gin.Context) {
	overview, err := h.analyticsService.GetProgress(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AnalyticsHandler) SaveProgress(c *gin.Context) {
	var req services.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	record, err := h.analyticsService.SaveProgress(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": record})
}

func (h *AnalyticsHandler) GenerateInsights(c *gin.Context) {
	insights, err := h.analyticsService.GenerateInsights(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"insights": insights})
}

func (h *AnalyticsHandler) UnreadInsights(c *gin.Context) {
	insights, err := h.analyticsService.GetUnreadInsights(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

func (h *AnalyticsHandler) MarkInsightRead(c *gin.Context) {
	insightID, err := uuid.Parse(c.Param("insightId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insight id"})
		return
	}
	if err := h.analyticsService.MarkInsightRead(c.Request.Context(), insightID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "insight marked as read"})
}

func (h *AnalyticsHandler) Motivation(c *gin.Context) {
	message, err := h.analyticsService.Motivation(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *AnalyticsHandler) QuizResults(c *gin.Context) {
	results, err := h.quizService.GetResults(c.Request.Context(), 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
