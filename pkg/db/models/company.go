package models

import (
	"time"

	"github.com/google/uuid"
)

// Company owns jobs and, optionally, a dedicated two-way SMS number.
type Company struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string    `gorm:"column:name;type:text;not null"`
	TwoWayPhoneNumber *string   `gorm:"column:two_way_phone_number;type:text"`
	CreatedAt         time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
}

func (Company) TableName() string { return "companies" }
