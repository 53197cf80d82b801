package associates

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/db/dbtest"
	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAssociate(t *testing.T, db *gorm.DB, number string) models.Associate {
	t.Helper()
	a := models.Associate{ID: uuid.New(), FirstName: "Dana", PhoneNumber: number}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func TestGetAssociateByPhoneNormalizesAndFallsBack(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()

	normalized := seedAssociate(t, db, "+14155252030")
	legacy := seedAssociate(t, db, "555.010.9999")

	got, err := repo.GetAssociateByPhone(ctx, "(415) 525-2030")
	require.NoError(t, err)
	assert.Equal(t, normalized.ID, got.ID)

	got, err = repo.GetAssociateByPhone(ctx, "555.010.9999")
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, got.ID)

	_, err = repo.GetAssociateByPhone(ctx, "+14155550001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOptOutAndOptIn(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	a := seedAssociate(t, db, "+14155252030")
	at := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.OptOutAssociate(ctx, a.ID, enums.OptOutChannelTwoWay, at))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.OptedOut)
	require.NotNil(t, got.TwoWayOptOutAt)
	assert.Nil(t, got.SMSOptOutAt)

	require.NoError(t, repo.OptOutAssociate(ctx, a.ID, enums.OptOutChannelReminders, at))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.SMSOptOutAt)

	require.NoError(t, repo.OptInAssociate(ctx, a.ID, at.Add(time.Hour)))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.OptedOut)
	assert.NotNil(t, got.OptedInAt)

	assert.Error(t, repo.OptOutAssociate(ctx, a.ID, "email", at))
	assert.ErrorIs(t, repo.OptInAssociate(ctx, uuid.New(), at), ErrNotFound)
}

func TestOptOutDisclosureClaimIsOneShot(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	a := seedAssociate(t, db, "+14155252030")
	at := time.Now().UTC()

	claimed, err := repo.ClaimOptOutDisclosure(ctx, a.ID, at)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimOptOutDisclosure(ctx, a.ID, at)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, repo.ReleaseOptOutDisclosure(ctx, a.ID))
	claimed, err = repo.ClaimOptOutDisclosure(ctx, a.ID, at)
	require.NoError(t, err)
	assert.True(t, claimed)
}
