package database

import (
	"fmt"

	"github.com/shanegiles-web/gymnastics-platform/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Facility{},
		&models.Student{},
		&models.Class{},
		&models.Schedule{},
		&models.ScheduleException{},
		&models.ClassInstance{},
		&models.Enrollment{},
		&models.ClassTemplate{},
		&models.RateLimitCounter{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// One live active enrollment per student and class
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollment_active
		ON enrollments (class_id, student_id)
		WHERE status = 'active' AND deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create enrollment index: %w", err)
	}
	return nil
}
