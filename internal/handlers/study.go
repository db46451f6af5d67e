package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/services"
)

type StudyHandler struct {
	log            *logger.Logger
	planService    services.PlanService
	moduleService  services.ModuleService
	sessionService services.SessionService
	quizService    services.QuizService
}

func NewStudyHandler(
	planService services.PlanService,
	moduleService services.ModuleService,
	sessionService services.SessionService,
	quizService services.QuizService,
	log *logger.Logger,
) *StudyHandler {
	return &StudyHandler{
		log:            log.With("handler", "StudyHandler"),
		planService:    planService,
		moduleService:  moduleService,
		sessionService: sessionService,
		quizService:    quizService,
	}
}

func (h *StudyHandler) CreatePlan(c *gin.Context) {
	var req services.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	plan, err := h.planService.CreatePlan(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

func (h *StudyHandler) CreatePlanFromMaterial(c *gin.Context) {
	var req services.CreatePlanFromMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	plan, err := h.planService.CreatePlanFromMaterial(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

func (h *StudyHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *StudyHandler) GetPlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("planId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

type updateTargetDateRequest struct {
	TargetDate string `json:"target_date"`
}

func (h *StudyHandler) UpdateTargetDate(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("planId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}
	var req updateTargetDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	target, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
		return
	}
	if err := h.planService.UpdateTargetDate(c.Request.Context(), planID, target); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "target date updated"})
}

func (h *StudyHandler) FixTargetDates(c *gin.Context) {
	fixed, err := h.planService.FixTargetDates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "target dates backfilled", "fixed": fixed})
}

func (h *StudyHandler) DeletePlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("planId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), planID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "plan deleted"})
}

type generateContentRequest struct {
	PlanID   uuid.UUID `json:"plan_id"`
	Position int       `json:"position"`
}

func (h *StudyHandler) GenerateModuleContent(c *gin.Context) {
	var req generateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PlanID == uuid.Nil || req.Position < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id and position are required"})
		return
	}
	generated, err := h.moduleService.GenerateContent(c.Request.Context(), req.PlanID, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, generated)
}

func (h *StudyHandler) GetModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid module id"})
		return
	}
	module, err := h.moduleService.GetModule(c.Request.Context(), moduleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *StudyHandler) DeleteModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid module id"})
		return
	}
	if err := h.moduleService.DeleteModule(c.Request.Context(), moduleID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "module deleted"})
}

type startSessionRequest struct {
	PlanID uuid.UUID `json:"plan_id"`
}

func (h *StudyHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlanID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id is required"})
		return
	}
	result, err := h.sessionService.StartSession(c.Request.Context(), req.PlanID)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

type endSessionRequest struct {
	PomodoroCount int `json:"pomodoro_count"`
}

func (h *StudyHandler) EndSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req endSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.PomodoroCount = 0
	}
	summary, err := h.sessionService.EndSession(c.Request.Context(), sessionID, req.PomodoroCount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *StudyHandler) ActiveSession(c *gin.Context) {
	session, err := h.sessionService.ActiveSession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *StudyHandler) SubmitQuizResult(c *gin.Context) {
	var req services.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ModuleID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "module_id is required"})
		return
	}
	submission, err := h.quizService.SubmitResult(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (h *StudyHandler) ReviewQueue(c *gin.Context) {
	items, err := h.quizService.ReviewQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *StudyHandler) QuizResults(c *gin.Context) {
	results, err := h.quizService.GetResults(c.Request.Context(), 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
