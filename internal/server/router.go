package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/studyflow/backend/internal/handlers"
	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/utils"
)

type RouterConfig struct {
	Log                *logger.Logger
	AuthMiddleware     gin.HandlerFunc
	HealthcheckHandler *handlers.HealthcheckHandler
	AuthHandler        *handlers.AuthHandler
	OnboardingHandler  *handlers.OnboardingHandler
	StudyHandler       *handlers.StudyHandler
	ChatHandler        *handlers.ChatHandler
	AnalyticsHandler   *handlers.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if strings.EqualFold(utils.GetEnv("APP_ENV", "development", cfg.Log), "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	origins := strings.Split(utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173", cfg.Log), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")

	api.GET("/health", cfg.HealthcheckHandler.Healthcheck)

	auth := api.Group("/auth")
	{
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/verify-email", cfg.AuthHandler.VerifyEmail)
	}

	authProtected := api.Group("/auth", cfg.AuthMiddleware)
	{
		authProtected.POST("/logout", cfg.AuthHandler.Logout)
		authProtected.GET("/me", cfg.AuthHandler.Me)
		authProtected.POST("/change-password", cfg.AuthHandler.ChangePassword)
		authProtected.POST("/send-email-verification", cfg.AuthHandler.SendEmailVerification)
		authProtected.PUT("/phone", cfg.AuthHandler.UpdatePhone)
		authProtected.POST("/send-phone-verification", cfg.AuthHandler.SendPhoneVerification)
		authProtected.POST("/verify-phone", cfg.AuthHandler.VerifyPhone)
		authProtected.GET("/verification-status", cfg.AuthHandler.VerificationStatus)
	}

	onboarding := api.Group("/onboarding", cfg.AuthMiddleware)
	{
		onboarding.POST("/responses", cfg.OnboardingHandler.SaveResponses)
		onboarding.POST("/generate-persona", cfg.OnboardingHandler.GeneratePersona)
		onboarding.POST("/refresh-persona", cfg.OnboardingHandler.RefreshPersona)
		onboarding.GET("/persona", cfg.OnboardingHandler.GetPersona)
		onboarding.GET("/status", cfg.OnboardingHandler.Status)
	}

	study := api.Group("/study", cfg.AuthMiddleware)
	{
		study.POST("/plans", cfg.StudyHandler.CreatePlan)
		study.POST("/material-plans", cfg.StudyHandler.CreatePlanFromMaterial)
		study.GET("/plans", cfg.StudyHandler.ListPlans)
		study.GET("/plans/:planId", cfg.StudyHandler.GetPlan)
		study.PUT("/plans/:planId/target-date", cfg.StudyHandler.UpdateTargetDate)
		study.DELETE("/plans/:planId", cfg.StudyHandler.DeletePlan)
		study.POST("/fix-target-dates", cfg.StudyHandler.FixTargetDates)

		study.POST("/module-content", cfg.StudyHandler.GenerateModuleContent)
		study.GET("/modules/:moduleId", cfg.StudyHandler.GetModule)
		study.DELETE("/modules/:moduleId", cfg.StudyHandler.DeleteModule)

		study.POST("/sessions", cfg.StudyHandler.StartSession)
		study.POST("/sessions/:sessionId/end", cfg.StudyHandler.EndSession)
		study.GET("/active-session", cfg.StudyHandler.ActiveSession)

		study.POST("/quiz-results", cfg.StudyHandler.SubmitQuizResult)
		study.GET("/quiz-results", cfg.StudyHandler.QuizResults)
		study.GET("/review-queue", cfg.StudyHandler.ReviewQueue)
	}

	chat := api.Group("/chat", cfg.AuthMiddleware)
	{
		chat.POST("/tutor", cfg.ChatHandler.Tutor)
		chat.GET("/history", cfg.ChatHandler.History)
		chat.GET("/sessions", cfg.ChatHandler.Sessions)
		chat.DELETE("/sessions/:sessionId", cfg.ChatHandler.DeleteSession)
	}

	analytics := api.Group("/analytics", cfg.AuthMiddleware)
	{
		analytics.GET("/progress", cfg.AnalyticsHandler.Progress)
		analytics.POST("/progress", cfg.AnalyticsHandler.SaveProgress)
		analytics.POST("/generate-insights", cfg.AnalyticsHandler.GenerateInsights)
		analytics.GET("/insights", cfg.AnalyticsHandler.UnreadInsights)
		analytics.POST("/insights/:insightId/read", cfg.AnalyticsHandler.MarkInsightRead)
		analytics.GET("/quiz-results", cfg.AnalyticsHandler.QuizResults)
		analytics.GET("/motivation", cfg.AnalyticsHandler.Motivation)
	}

	return router
}
