package model

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a club staff account (admin, accountant or trainer).
type Admin struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserName  string    `gorm:"size:50;not null;uniqueIndex" json:"user_name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	GoogleSub *string   `gorm:"column:google_sub;size:255;uniqueIndex" json:"-"`
	FullName  string    `gorm:"size:150" json:"full_name"`
	Role      string    `gorm:"size:20;not null;default:'admin'" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}
