package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
	"github.com/studyflow/backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	log = log.With("service", "PostgresService")
	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "postgres", log)
	dbname := utils.GetEnv("POSTGRES_DB", "studyflow", log)
	sslmode := utils.GetEnv("POSTGRES_SSLMODE", "disable", log)

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Error("Failed to connect to postgres", "host", host, "db", dbname, "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Info("Connected to postgres", "host", host, "db", dbname)
	return &PostgresService{db: gormDB, log: log}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&types.User{},
		&types.UserToken{},
		&types.OnboardingResponse{},
		&types.LearningPersona{},
		&types.StudyPlan{},
		&types.LearningModule{},
		&types.LearningSession{},
		&types.ProgressRecord{},
		&types.Conversation{},
		&types.Insight{},
		&types.QuizResult{},
	}
}

func (s *PostgresService) AutoMigrateAll() error {
	if err := s.db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		s.log.Warn("Could not ensure uuid-ossp extension", "error", err)
	}
	if err := s.db.AutoMigrate(Models()...); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return fmt.Errorf("auto migration failed: %w", err)
	}
	s.log.Info("Auto migration complete")
	return nil
}
