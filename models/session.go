package models

import "time"

// Session is the server-side half of a browser session. The cookie carries only the signed ID.
type Session struct {
	ID        string    `db:"id" gorm:"type:text;primaryKey;not null"`
	Data      string    `db:"data" gorm:"type:text;not null"`
	ExpiresAt time.Time `db:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}
