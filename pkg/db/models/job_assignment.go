package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
)

// JobAssignment places one associate on one job for a work date. StartTime is
// kept as raw text because legacy rows hold either an ISO timestamp or a bare
// HH:MM:SS; readers normalize it through reminders.NormalizeStartTime.
type JobAssignment struct {
	JobID                uuid.UUID                `gorm:"column:job_id;type:uuid;primaryKey"`
	AssociateID          uuid.UUID                `gorm:"column:associate_id;type:uuid;primaryKey"`
	WorkDate             types.Date               `gorm:"column:work_date;type:date;not null"`
	StartTime            string                   `gorm:"column:start_time;type:text"`
	NumReminders         int                      `gorm:"column:num_reminders;not null;default:0"`
	LastReminderTime     *time.Time               `gorm:"column:last_reminder_time;type:timestamptz"`
	LastConfirmationTime *time.Time               `gorm:"column:last_confirmation_time;type:timestamptz"`
	ConfirmationStatus   enums.ConfirmationStatus `gorm:"column:confirmation_status;type:confirmation_status;not null;default:UNCONFIRMED"`
	CreatedAt            time.Time                `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (JobAssignment) TableName() string { return "job_assignments" }
