package models

import "time"

// RateLimitCounter is a fixed-window request counter shared by all processes.
type RateLimitCounter struct {
	Key         string    `gorm:"type:varchar(200);primaryKey"`
	WindowStart time.Time `gorm:"not null"`
	Count       int       `gorm:"not null;default:0"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}
