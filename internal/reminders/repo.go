package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/crewtext-backend/internal/repo"
	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAssignmentNotFound = errors.New("job assignment not found")

// Repository reads reminder candidates and records sends.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetDayBeforeReminders(ctx context.Context, targetDate types.Date) ([]Assignment, error)
	GetTwoDaysBeforeReminders(ctx context.Context, targetDate types.Date) ([]Assignment, error)
	GetMorningOfReminders(ctx context.Context, now time.Time, today types.Date, hoursAhead int) ([]Assignment, error)
	GetAssignmentsByDate(ctx context.Context, date types.Date) ([]Assignment, error)
	GetDueReminders(ctx context.Context, now time.Time, today types.Date, opts DueOptions) ([]Assignment, error)
	GetReminderAssignment(ctx context.Context, jobID, associateID uuid.UUID) (*Assignment, error)
	RecordReminderSent(ctx context.Context, jobID, associateID uuid.UUID, at time.Time) (RecordOutcome, error)
	UpdateReminderStatus(ctx context.Context, jobID, associateID uuid.UUID, update StatusUpdate) error
}

type repositoryImpl struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{base: r.base.WithTx(tx)}
}

type assignmentRow struct {
	JobID                uuid.UUID
	AssociateID          uuid.UUID
	WorkDate             types.Date
	StartTime            *string
	NumReminders         int
	LastReminderTime     *time.Time
	LastConfirmationTime *time.Time
	ConfirmationStatus   enums.ConfirmationStatus
	FirstName            string
	LastName             *string
	PhoneNumber          string
	OptedOut             bool
	CompanyID            *uuid.UUID
	CompanyName          *string
	JobTitle             string
	CustomerName         *string
}

const assignmentColumns = `ja.job_id, ja.associate_id, ja.work_date, ja.start_time, ja.num_reminders,
ja.last_reminder_time, ja.last_confirmation_time, ja.confirmation_status,
a.first_name, a.last_name, a.phone_number, a.opted_out,
j.company_id, c.name AS company_name, j.title AS job_title, j.customer_name`

// joined selects assignment rows with their associate, job and company.
func (r *repositoryImpl) joined(ctx context.Context) *gorm.DB {
	return r.base.DB(ctx).
		Table("job_assignments AS ja").
		Select(assignmentColumns).
		Joins("JOIN associates a ON a.id = ja.associate_id").
		Joins("JOIN jobs j ON j.id = ja.job_id").
		Joins("LEFT JOIN companies c ON c.id = j.company_id")
}

// reminderCandidates limits to rows with budget left whose associate has not opted out.
func (r *repositoryImpl) reminderCandidates(ctx context.Context) *gorm.DB {
	return r.joined(ctx).
		Where("ja.num_reminders > ?", 0).
		Where("a.opted_out = ?", false)
}

func (r *repositoryImpl) GetDayBeforeReminders(ctx context.Context, targetDate types.Date) ([]Assignment, error) {
	return r.findByWorkDate(ctx, r.reminderCandidates(ctx), targetDate)
}

func (r *repositoryImpl) GetTwoDaysBeforeReminders(ctx context.Context, targetDate types.Date) ([]Assignment, error) {
	return r.findByWorkDate(ctx, r.reminderCandidates(ctx), targetDate)
}

// GetMorningOfReminders returns today's assignments starting within
// [now, now+hoursAhead]. Rows whose start time cannot be parsed are skipped.
func (r *repositoryImpl) GetMorningOfReminders(ctx context.Context, now time.Time, today types.Date, hoursAhead int) ([]Assignment, error) {
	hoursAhead = Windows.MorningHours(hoursAhead)
	rows, err := r.findByWorkDate(ctx, r.reminderCandidates(ctx), today)
	if err != nil {
		return nil, err
	}
	horizon := now.Add(time.Duration(hoursAhead) * time.Hour)
	out := rows[:0]
	for _, a := range rows {
		if a.StartsAt.Before(now) || a.StartsAt.After(horizon) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// GetAssignmentsByDate returns every assignment on date regardless of budget.
func (r *repositoryImpl) GetAssignmentsByDate(ctx context.Context, date types.Date) ([]Assignment, error) {
	return r.findByWorkDate(ctx, r.joined(ctx), date)
}

// DueOptions tunes GetDueReminders. Zero values fall back to the defaults.
type DueOptions struct {
	Gaps              GapPolicy
	MorningHoursAhead int
}

// GetDueReminders unions the window queries, keeps budgeted rows of
// subscribed associates, removes duplicates and applies the gap filter.
func (r *repositoryImpl) GetDueReminders(ctx context.Context, now time.Time, today types.Date, opts DueOptions) ([]Assignment, error) {
	dayBefore, err := r.GetDayBeforeReminders(ctx, today.AddDays(Windows.DayBeforeOffsetDays))
	if err != nil {
		return nil, fmt.Errorf("day-before reminders: %w", err)
	}
	twoDays, err := r.GetTwoDaysBeforeReminders(ctx, today.AddDays(Windows.TwoDaysBeforeOffsetDays))
	if err != nil {
		return nil, fmt.Errorf("two-days-before reminders: %w", err)
	}
	morning, err := r.GetMorningOfReminders(ctx, now, today, Windows.MorningHours(opts.MorningHoursAhead))
	if err != nil {
		return nil, fmt.Errorf("morning-of reminders: %w", err)
	}
	todays, err := r.GetAssignmentsByDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("today's assignments: %w", err)
	}

	seen := make(map[assignmentKey]struct{})
	combined := make([]Assignment, 0, len(dayBefore)+len(twoDays)+len(morning)+len(todays))
	for _, group := range [][]Assignment{dayBefore, twoDays, morning, todays} {
		for _, a := range group {
			if a.NumReminders <= 0 || a.OptedOut {
				continue
			}
			if _, dup := seen[a.key()]; dup {
				continue
			}
			seen[a.key()] = struct{}{}
			combined = append(combined, a)
		}
	}
	return NotRecentlyReminded(combined, now, today, opts.Gaps), nil
}

func (r *repositoryImpl) GetReminderAssignment(ctx context.Context, jobID, associateID uuid.UUID) (*Assignment, error) {
	var rows []assignmentRow
	err := r.joined(ctx).
		Where("ja.job_id = ? AND ja.associate_id = ?", jobID, associateID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrAssignmentNotFound
	}
	a, err := rows[0].toAssignment()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// RecordReminderSent decrements the budget by one and stamps the send time in
// a single guarded statement, then re-reads the remaining budget.
func (r *repositoryImpl) RecordReminderSent(ctx context.Context, jobID, associateID uuid.UUID, at time.Time) (RecordOutcome, error) {
	result := r.base.DB(ctx).
		Model(&models.JobAssignment{}).
		Where("job_id = ? AND associate_id = ? AND num_reminders > ?", jobID, associateID, 0).
		UpdateColumns(map[string]any{
			"num_reminders":      gorm.Expr("num_reminders - ?", 1),
			"last_reminder_time": at,
			"updated_at":         at,
		})
	if result.Error != nil {
		return RecordOutcome{}, result.Error
	}

	var current models.JobAssignment
	err := r.base.DB(ctx).
		Select("num_reminders").
		Where("job_id = ? AND associate_id = ?", jobID, associateID).
		Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RecordOutcome{}, ErrAssignmentNotFound
	}
	if err != nil {
		return RecordOutcome{}, err
	}
	return RecordOutcome{Applied: result.RowsAffected > 0, Remaining: current.NumReminders}, nil
}

func (r *repositoryImpl) UpdateReminderStatus(ctx context.Context, jobID, associateID uuid.UUID, update StatusUpdate) error {
	columns := map[string]any{}
	if update.NumReminders != nil {
		if *update.NumReminders < 0 {
			return fmt.Errorf("num_reminders must be non-negative")
		}
		columns["num_reminders"] = *update.NumReminders
	}
	if update.LastReminderTime != nil {
		columns["last_reminder_time"] = *update.LastReminderTime
	}
	if len(columns) == 0 {
		return fmt.Errorf("no reminder fields to update")
	}
	columns["updated_at"] = time.Now().UTC()

	result := r.base.DB(ctx).
		Model(&models.JobAssignment{}).
		Where("job_id = ? AND associate_id = ?", jobID, associateID).
		UpdateColumns(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *repositoryImpl) findByWorkDate(ctx context.Context, query *gorm.DB, date types.Date) ([]Assignment, error) {
	var rows []assignmentRow
	if err := query.
		Where("ja.work_date = ?", date).
		Order("ja.work_date ASC, ja.start_time ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toAssignment()
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (row assignmentRow) toAssignment() (Assignment, error) {
	startTime := deref(row.StartTime)
	startsAt, err := NormalizeStartTime(row.WorkDate, startTime)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{
		JobID:                row.JobID,
		AssociateID:          row.AssociateID,
		WorkDate:             row.WorkDate,
		StartTime:            startTime,
		StartsAt:             startsAt,
		NumReminders:         row.NumReminders,
		LastReminderTime:     row.LastReminderTime,
		LastConfirmationTime: row.LastConfirmationTime,
		ConfirmationStatus:   row.ConfirmationStatus,
		FirstName:            row.FirstName,
		LastName:             deref(row.LastName),
		PhoneNumber:          row.PhoneNumber,
		OptedOut:             row.OptedOut,
		CompanyID:            row.CompanyID,
		CompanyName:          deref(row.CompanyName),
		JobTitle:             row.JobTitle,
		CustomerName:         deref(row.CustomerName),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
