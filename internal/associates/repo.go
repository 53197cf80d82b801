package associates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/crewtext-backend/internal/repo"
	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/angelmondragon/crewtext-backend/pkg/phone"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("associate not found")

// Repository persists associate lookups and SMS subscription state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Associate, error)
	GetAssociateByPhone(ctx context.Context, number string) (*models.Associate, error)
	OptOutAssociate(ctx context.Context, id uuid.UUID, channel enums.OptOutChannel, at time.Time) error
	OptInAssociate(ctx context.Context, id uuid.UUID, at time.Time) error
	ClaimOptOutDisclosure(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ReleaseOptOutDisclosure(ctx context.Context, id uuid.UUID) error
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

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Associate, error) {
	var associate models.Associate
	err := r.base.DB(ctx).Where("id = ?", id).Take(&associate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &associate, nil
}

// GetAssociateByPhone tries the E.164 form first and then the raw input, so
// rows saved before numbers were normalized still resolve.
func (r *repositoryImpl) GetAssociateByPhone(ctx context.Context, number string) (*models.Associate, error) {
	for _, candidate := range phone.LookupCandidates(number) {
		var associate models.Associate
		err := r.base.DB(ctx).
			Where("phone_number = ?", candidate).
			Order("created_at ASC").
			Take(&associate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &associate, nil
	}
	return nil, ErrNotFound
}

// OptOutAssociate sets the opt-out flag and stamps the channel the STOP came in on.
func (r *repositoryImpl) OptOutAssociate(ctx context.Context, id uuid.UUID, channel enums.OptOutChannel, at time.Time) error {
	columns := map[string]any{
		"opted_out":  true,
		"updated_at": at,
	}
	switch channel {
	case enums.OptOutChannelReminders:
		columns["sms_opt_out_at"] = at
	case enums.OptOutChannelTwoWay:
		columns["two_way_opt_out_at"] = at
	default:
		return fmt.Errorf("unknown opt-out channel %q", channel)
	}
	return r.update(ctx, id, columns)
}

func (r *repositoryImpl) OptInAssociate(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]any{
		"opted_out":   false,
		"opted_in_at": at,
		"updated_at":  at,
	})
}

// ClaimOptOutDisclosure marks the disclosure as sent if nobody has yet and
// reports whether this caller won the claim.
func (r *repositoryImpl) ClaimOptOutDisclosure(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.base.DB(ctx).
		Model(&models.Associate{}).
		Where("id = ? AND opt_out_disclosure_sent_at IS NULL", id).
		UpdateColumn("opt_out_disclosure_sent_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repositoryImpl) ReleaseOptOutDisclosure(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).
		Model(&models.Associate{}).
		Where("id = ?", id).
		UpdateColumn("opt_out_disclosure_sent_at", nil).Error
}

func (r *repositoryImpl) update(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	result := r.base.DB(ctx).
		Model(&models.Associate{}).
		Where("id = ?", id).
		UpdateColumns(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
