package model

import "time"

// Reading is a single temperature/humidity sample owned by a user.
// Rows are never updated after creation.
type Reading struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string    `gorm:"not null;index" json:"userId"`
	Temperature float64   `gorm:"not null" json:"temperature"`
	Humidity    float64   `gorm:"not null" json:"humidity"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
}
