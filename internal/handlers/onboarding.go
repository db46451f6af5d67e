package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/services"
)

type OnboardingHandler struct {
	log               *logger.Logger
	onboardingService services.OnboardingService
}

func NewOnboardingHandler(onboardingService services.OnboardingService, log *logger.Logger) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService, log: log.With("handler", "OnboardingHandler")}
}

type saveResponsesRequest struct {
	Responses []services.OnboardingAnswer `json:"responses"`
}

func (h *OnboardingHandler) SaveResponses(c *gin.Context) {
	var req saveResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.onboardingService.SaveResponses(c.Request.Context(), req.Responses); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "responses saved", "count": len(req.Responses)})
}

func (h *OnboardingHandler) GeneratePersona(c *gin.Context) {
	persona, err := h.onboardingService.GeneratePersona(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"persona": persona})
}

func (h *OnboardingHandler) RefreshPersona(c *gin.Context) {
	persona, err := h.onboardingService.RefreshPersona(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"persona": persona})
}

func (h *OnboardingHandler) GetPersona(c *gin.Context) {
	persona, err := h.onboardingService.GetPersona(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"persona": persona})
}

func (h *OnboardingHandler) Status(c *gin.Context) {
	status, err := h.onboardingService.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
