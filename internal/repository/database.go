package repository

import (
	"fmt"
	"os"

	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() (*gorm.DB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	// Connect to database
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate models. The unique indexes declared on these models
	// are load-bearing: they are the concurrency-control primitive for
	// every exactly-once write in the engine.
	if err := db.AutoMigrate(
		&models.ReadingSession{},
		&models.DailyReadingStat{},
		&models.ProcessedSession{},
		&models.WeeklyLeaderboardEntry{},
		&models.LeaderboardLike{},
		&models.ReadingMilestone{},
		&models.Badge{},
		&models.UserBadge{},
		&models.ReadingChallenge{},
		&models.UserChallengeProgress{},
		&models.UserProfile{},
		&models.JobRun{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
