package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type HorseModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"size:120;not null" json:"name"`
	Breed       *string        `gorm:"size:120" json:"breed,omitempty"`
	BirthYear   *int           `json:"birth_year,omitempty"`
	Sex         *string        `gorm:"size:20" json:"sex,omitempty"` // mare|gelding|stallion
	PassportNo  *string        `gorm:"size:60;uniqueIndex:uq_horses_passport_no,where:passport_no IS NOT NULL" json:"passport_no,omitempty"`
	Microchip   *string        `gorm:"size:60" json:"microchip,omitempty"`
	OwnerName   *string        `gorm:"size:150" json:"owner_name,omitempty"`
	Disciplines pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"disciplines"`
	PhotoURL    *string        `gorm:"type:text" json:"photo_url,omitempty"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	Note        *string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (HorseModel) TableName() string {
	return "horses"
}
