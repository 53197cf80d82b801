package assignments

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/crewtext-backend/internal/repo"
	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("job assignment not found")

// Repository covers the confirmation side of job assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetActiveAssignments(ctx context.Context, associateID uuid.UUID, today types.Date) ([]models.JobAssignment, error)
	UpdateAssignmentStatus(ctx context.Context, jobID, associateID uuid.UUID, status enums.ConfirmationStatus, at time.Time) error
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

// GetActiveAssignments returns the associate's assignments on or after today
// that are not yet confirmed or declined, earliest first.
func (r *repositoryImpl) GetActiveAssignments(ctx context.Context, associateID uuid.UUID, today types.Date) ([]models.JobAssignment, error) {
	var rows []models.JobAssignment
	err := r.base.DB(ctx).
		Where("associate_id = ?", associateID).
		Where("work_date >= ?", today).
		Where("confirmation_status NOT IN ?", []enums.ConfirmationStatus{
			enums.ConfirmationConfirmed,
			enums.ConfirmationDeclined,
		}).
		Order("work_date ASC, start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateAssignmentStatus sets the confirmation status and stamps the reply time.
func (r *repositoryImpl) UpdateAssignmentStatus(ctx context.Context, jobID, associateID uuid.UUID, status enums.ConfirmationStatus, at time.Time) error {
	result := r.base.DB(ctx).
		Model(&models.JobAssignment{}).
		Where("job_id = ? AND associate_id = ?", jobID, associateID).
		UpdateColumns(map[string]any{
			"confirmation_status":    status,
			"last_confirmation_time": at,
			"updated_at":             at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
