package models

import (
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID    *uuid.UUID `gorm:"column:company_id;type:uuid"`
	Title        string     `gorm:"column:title;type:text;not null"`
	CustomerName string     `gorm:"column:customer_name;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
}

func (Job) TableName() string { return "jobs" }
