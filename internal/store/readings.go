package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensorhub/telemetry-api/internal/model"

	"gorm.io/gorm"
)

type Readings struct {
	db *gorm.DB
}

func NewReadings(db *gorm.DB) *Readings {
	return &Readings{db: db}
}

// RecordReading stores a sample for userID. The owner check and the insert
// run in one transaction so a reading never points at a missing user.
func (s *Readings) RecordReading(ctx context.Context, userID string, temperature, humidity float64) (*model.Reading, error) {
	r := &model.Reading{
		UserID:      userID,
		Temperature: temperature,
		Humidity:    humidity,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64

		err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check if user exists, %w", err)
		}

		if count == 0 {
			return ErrUserNotFound
		}

		return tx.Create(r).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to record reading, %w", err)
	}

	return r, nil
}

// ListReadings returns every reading owned by userID, newest first
func (s *Readings) ListReadings(ctx context.Context, userID string) ([]model.Reading, error) {
	readings := []model.Reading{}

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&readings).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list readings, %w", err)
	}

	return readings, nil
}

// PurgeReadings deletes every reading created before the given time and
// returns how many rows went away
func (s *Readings) PurgeReadings(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before.UTC()).
		Delete(&model.Reading{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge readings, %w", res.Error)
	}

	return res.RowsAffected, nil
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "violates foreign key constraint")
}
