package models

import (
	"time"

	"github.com/google/uuid"
)

// Associate is a worker who receives reminders and replies by SMS.
type Associate struct {
	ID                     uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID              *uuid.UUID `gorm:"column:company_id;type:uuid"`
	FirstName              string     `gorm:"column:first_name;type:text;not null"`
	LastName               string     `gorm:"column:last_name;type:text"`
	PhoneNumber            string     `gorm:"column:phone_number;type:text;not null"`
	OptedOut               bool       `gorm:"column:opted_out;not null;default:false"`
	SMSOptOutAt            *time.Time `gorm:"column:sms_opt_out_at;type:timestamptz"`
	TwoWayOptOutAt         *time.Time `gorm:"column:two_way_opt_out_at;type:timestamptz"`
	OptedInAt              *time.Time `gorm:"column:opted_in_at;type:timestamptz"`
	OptOutDisclosureSentAt *time.Time `gorm:"column:opt_out_disclosure_sent_at;type:timestamptz"`
	CreatedAt              time.Time  `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt              time.Time  `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (Associate) TableName() string { return "associates" }
