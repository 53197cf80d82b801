package reminders

import (
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
	"github.com/google/uuid"
)

// Assignment is a job assignment joined with the associate, job and company
// fields a reminder needs. StartsAt is the normalized start instant.
type Assignment struct {
	JobID                uuid.UUID
	AssociateID          uuid.UUID
	WorkDate             types.Date
	StartTime            string
	StartsAt             time.Time
	NumReminders         int
	LastReminderTime     *time.Time
	LastConfirmationTime *time.Time
	ConfirmationStatus   enums.ConfirmationStatus

	FirstName   string
	LastName    string
	PhoneNumber string
	OptedOut    bool

	CompanyID    *uuid.UUID
	CompanyName  string
	JobTitle     string
	CustomerName string
}

type assignmentKey struct {
	jobID       uuid.UUID
	associateID uuid.UUID
}

func (a Assignment) key() assignmentKey {
	return assignmentKey{jobID: a.JobID, associateID: a.AssociateID}
}

// ReminderResult is the outcome of one send attempt.
type ReminderResult struct {
	Success      bool               `json:"success"`
	JobID        uuid.UUID          `json:"job_id"`
	AssociateID  uuid.UUID          `json:"associate_id"`
	PhoneNumber  string             `json:"phone_number"`
	ReminderType enums.ReminderType `json:"reminder_type"`
	MessageID    string             `json:"message_id,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// StatusUpdate carries an administrative correction to the reminder fields.
type StatusUpdate struct {
	NumReminders     *int
	LastReminderTime *time.Time
}

// RecordOutcome reports the counter state after a successful send.
type RecordOutcome struct {
	Applied   bool
	Remaining int
}
