package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the local record of a signed-in Google account
type User struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	GoogleID  string    `json:"-" db:"google_id" gorm:"type:text;not null;uniqueIndex"`
	Email     string    `json:"email" db:"email" gorm:"type:text;not null;uniqueIndex"`
	Name      string    `json:"name" db:"name" gorm:"type:text;not null"`
	Avatar    *string   `json:"avatar,omitempty" db:"avatar" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
