package database

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hortifruti-pdv/internal/auth"
	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/session"
)

// Connect opens MySQL, waiting for it to come up, and syncs the schema.
func Connect(dsn string, maxRetries int, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database: empty DSN")
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("database: connect after %d attempts: %w", maxRetries, err)
	}
	log.Info("connected to MySQL")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database schema synced")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// SeedAdmin creates the first admin account when the users table is empty.
// It reports whether a user was created.
func SeedAdmin(db *gorm.DB, password string) (bool, error) {
	if password == "" {
		return false, nil
	}
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := models.User{
		Username:     "admin",
		Email:        "admin@hortifruti.local",
		FullName:     "Administrador",
		PasswordHash: hash,
		Role:         session.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}
