package companies

import (
	"context"
	"errors"

	"github.com/angelmondragon/crewtext-backend/internal/repo"
	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/phone"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("company not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByTwoWayNumber(ctx context.Context, number string) (*models.Company, error)
}

type repositoryImpl struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{base: repo.NewBase(db)}
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.base.DB(ctx).Where("id = ?", id).Take(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetByTwoWayNumber resolves the company owning a dedicated two-way number.
func (r *repositoryImpl) GetByTwoWayNumber(ctx context.Context, number string) (*models.Company, error) {
	for _, candidate := range phone.LookupCandidates(number) {
		var company models.Company
		err := r.base.DB(ctx).Where("two_way_phone_number = ?", candidate).Take(&company).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &company, nil
	}
	return nil, ErrNotFound
}
