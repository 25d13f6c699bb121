package model

import (
	"time"

	"github.com/google/uuid"
)

type RiderModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName string     `gorm:"size:80;not null" json:"first_name"`
	LastName  string     `gorm:"size:80;not null" json:"last_name"`
	Email     *string    `gorm:"size:255" json:"email,omitempty"`
	Phone     *string    `gorm:"size:40" json:"phone,omitempty"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	LicenseNo *string    `gorm:"size:60;uniqueIndex:uq_riders_license_no,where:license_no IS NOT NULL" json:"license_no,omitempty"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	Note      *string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RiderModel) TableName() string {
	return "riders"
}

func (r RiderModel) FullName() string {
	return r.FirstName + " " + r.LastName
}
