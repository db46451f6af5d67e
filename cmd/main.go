package main

import (
	"github.com/joho/godotenv"

	"github.com/studyflow/backend/internal/db"
	"github.com/studyflow/backend/internal/handlers"
	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/middleware"
	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/server"
	"github.com/studyflow/backend/internal/services"
	"github.com/studyflow/backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(utils.GetEnv("APP_ENV", "development", nil))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}
	gormDB := pg.DB()

	userRepo := repos.NewUserRepo(gormDB, log)
	tokenRepo := repos.NewUserTokenRepo(gormDB, log)
	responseRepo := repos.NewOnboardingResponseRepo(gormDB, log)
	personaRepo := repos.NewLearningPersonaRepo(gormDB, log)
	planRepo := repos.NewStudyPlanRepo(gormDB, log)
	moduleRepo := repos.NewLearningModuleRepo(gormDB, log)
	sessionRepo := repos.NewLearningSessionRepo(gormDB, log)
	progressRepo := repos.NewProgressRecordRepo(gormDB, log)
	conversationRepo := repos.NewConversationRepo(gormDB, log)
	insightRepo := repos.NewInsightRepo(gormDB, log)
	quizRepo := repos.NewQuizResultRepo(gormDB, log)

	aiClient := services.NewAIClient(log)
	agent := services.NewStudyAgent(aiClient, log)

	authService := services.NewAuthService(gormDB, log, userRepo, tokenRepo)
	onboardingService := services.NewOnboardingService(gormDB, log, agent, responseRepo, personaRepo, userRepo, progressRepo)
	planService := services.NewPlanService(gormDB, log, agent, planRepo, moduleRepo, personaRepo, quizRepo)
	moduleService := services.NewModuleService(gormDB, log, agent, planRepo, moduleRepo, personaRepo, quizRepo)
	sessionService := services.NewSessionService(gormDB, log, sessionRepo, planRepo, moduleRepo)
	quizService := services.NewQuizService(gormDB, log, agent, quizRepo, moduleRepo, planRepo, progressRepo)
	chatService := services.NewChatService(gormDB, log, agent, conversationRepo, personaRepo)
	analyticsService := services.NewAnalyticsService(gormDB, log, agent, progressRepo, insightRepo, personaRepo, userRepo)

	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		AuthMiddleware:     middleware.AuthMiddleware(authService, log),
		HealthcheckHandler: handlers.NewHealthcheckHandler(),
		AuthHandler:        handlers.NewAuthHandler(authService, log),
		OnboardingHandler:  handlers.NewOnboardingHandler(onboardingService, log),
		StudyHandler:       handlers.NewStudyHandler(planService, moduleService, sessionService, quizService, log),
		ChatHandler:        handlers.NewChatHandler(chatService, log),
		AnalyticsHandler:   handlers.NewAnalyticsHandler(analyticsService, quizService, log),
	})

	addr := ":" + utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
