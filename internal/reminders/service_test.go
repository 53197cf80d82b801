package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/crewtext-backend/internal/messaging"
	"github.com/angelmondragon/crewtext-backend/pkg/config"
	"github.com/angelmondragon/crewtext-backend/pkg/db/dbtest"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crewtext-backend/pkg/errors"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent   []messaging.OutboundSMS
	failOn map[int]error
	calls  int
}

func (f *fakeSender) SendReminderSMS(ctx context.Context, msg messaging.OutboundSMS) (messaging.SendResult, error) {
	f.calls++
	if err, ok := f.failOn[f.calls]; ok {
		return messaging.SendResult{}, err
	}
	f.sent = append(f.sent, msg)
	return messaging.SendResult{MessageID: "SM" + uuid.NewString()[:8], To: msg.To}, nil
}

type fakeDisclosures struct {
	claimed  map[uuid.UUID]bool
	released int
}

func (f *fakeDisclosures) ClaimOptOutDisclosure(ctx context.Context, associateID uuid.UUID, at time.Time) (bool, error) {
	if f.claimed[associateID] {
		return false, nil
	}
	f.claimed[associateID] = true
	return true, nil
}

func (f *fakeDisclosures) ReleaseOptOutDisclosure(ctx context.Context, associateID uuid.UUID) error {
	delete(f.claimed, associateID)
	f.released++
	return nil
}

type fakeRepository struct {
	dueFn    func(ctx context.Context, now time.Time, today types.Date, opts DueOptions) ([]Assignment, error)
	recorded []uuid.UUID
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }
func (f *fakeRepository) GetDayBeforeReminders(context.Context, types.Date) ([]Assignment, error) {
	return nil, nil
}
func (f *fakeRepository) GetTwoDaysBeforeReminders(context.Context, types.Date) ([]Assignment, error) {
	return nil, nil
}
func (f *fakeRepository) GetMorningOfReminders(context.Context, time.Time, types.Date, int) ([]Assignment, error) {
	return nil, nil
}
func (f *fakeRepository) GetAssignmentsByDate(context.Context, types.Date) ([]Assignment, error) {
	return nil, nil
}
func (f *fakeRepository) GetDueReminders(ctx context.Context, now time.Time, today types.Date, opts DueOptions) ([]Assignment, error) {
	return f.dueFn(ctx, now, today, opts)
}
func (f *fakeRepository) GetReminderAssignment(context.Context, uuid.UUID, uuid.UUID) (*Assignment, error) {
	return nil, ErrAssignmentNotFound
}
func (f *fakeRepository) RecordReminderSent(ctx context.Context, jobID, associateID uuid.UUID, at time.Time) (RecordOutcome, error) {
	f.recorded = append(f.recorded, jobID)
	return RecordOutcome{Applied: true}, nil
}
func (f *fakeRepository) UpdateReminderStatus(context.Context, uuid.UUID, uuid.UUID, StatusUpdate) error {
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(t *testing.T, repo Repository, sender Sender, disclosures DisclosureStore, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:      logger.Nop(),
		Repo:        repo,
		Sender:      sender,
		Disclosures: disclosures,
		Config:      config.RemindersConfig{Timezone: "UTC", DisclosureEnabled: disclosures != nil},
		Now:         fixedClock(now),
	})
	require.NoError(t, err)
	return svc
}

func TestProcessScheduledRemindersEndToEnd(t *testing.T) {
	db := dbtest.New(t)
	f := newFixture(t, db)
	a := f.addAssignment(t, assignmentSeed{workDate: "2025-01-10", startTime: "09:00:00", numReminders: 2})

	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	svc := newTestService(t, NewRepository(db), sender, nil, now)

	results, err := svc.ProcessScheduledReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.Success)
	assert.Equal(t, enums.ReminderDayBefore, res.ReminderType)
	assert.Equal(t, a.JobID, res.JobID)
	assert.NotEmpty(t, res.MessageID)

	row := f.reload(t, a.JobID, a.AssociateID)
	assert.Equal(t, 1, row.NumReminders)
	require.NotNil(t, row.LastReminderTime)
	assert.True(t, row.LastReminderTime.Equal(now))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+14155252030", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "Warehouse Picker")

	again, err := svc.ProcessScheduledReminders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again, "a second pass inside the gap must not resend")
}

func TestProcessScheduledRemindersIsolatesSendFailure(t *testing.T) {
	db := dbtest.New(t)
	f := newFixture(t, db)
	var assignments []uuid.UUID
	for i := 0; i < 4; i++ {
		a := f.addAssignment(t, assignmentSeed{workDate: "2025-01-10", startTime: "09:00:00", numReminders: 2})
		assignments = append(assignments, a.JobID)
	}

	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	sender := &fakeSender{failOn: map[int]error{3: errors.New("provider down")}}
	svc := newTestService(t, NewRepository(db), sender, nil, now)

	results, err := svc.ProcessScheduledReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	failures := 0
	for _, r := range results {
		row := f.reload(t, r.JobID, r.AssociateID)
		if r.Success {
			assert.Equal(t, 1, row.NumReminders)
			assert.NotNil(t, row.LastReminderTime)
			continue
		}
		failures++
		assert.Equal(t, "provider down", r.Error)
		assert.Equal(t, 2, row.NumReminders)
		assert.Nil(t, row.LastReminderTime)
	}
	assert.Equal(t, 1, failures)
}

func TestProcessScheduledRemindersPropagatesFetchError(t *testing.T) {
	repo := &fakeRepository{dueFn: func(context.Context, time.Time, types.Date, DueOptions) ([]Assignment, error) {
		return nil, errors.New("db down")
	}}
	svc := newTestService(t, repo, &fakeSender{}, nil, time.Now())

	_, err := svc.ProcessScheduledReminders(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestProcessScheduledRemindersPassesConfiguredWindows(t *testing.T) {
	var got DueOptions
	repo := &fakeRepository{dueFn: func(_ context.Context, _ time.Time, _ types.Date, opts DueOptions) ([]Assignment, error) {
		got = opts
		return nil, nil
	}}
	svc, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Repo:   repo,
		Sender: &fakeSender{},
		Config: config.RemindersConfig{
			Timezone:          "UTC",
			MorningHoursAhead: 4,
			DayOfMinGap:       90 * time.Minute,
			DefaultMinGap:     6 * time.Hour,
		},
		Now: fixedClock(time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	_, err = svc.ProcessScheduledReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.MorningHoursAhead)
	assert.Equal(t, 90*time.Minute, got.Gaps.DayOf)
	assert.Equal(t, 6*time.Hour, got.Gaps.OtherDay)
}

func TestDisclosureSentOncePerAssociate(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	associateID := uuid.New()
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepository{dueFn: func(context.Context, time.Time, types.Date, DueOptions) ([]Assignment, error) {
		return []Assignment{
			{JobID: uuid.New(), AssociateID: associateID, PhoneNumber: "+14155252030", StartsAt: start, NumReminders: 1},
			{JobID: uuid.New(), AssociateID: associateID, PhoneNumber: "+14155252030", StartsAt: start, NumReminders: 1},
		}, nil
	}}
	sender := &fakeSender{}
	disclosures := &fakeDisclosures{claimed: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, sender, disclosures, now)

	results, err := svc.ProcessScheduledReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, sender.sent, 3, "two reminders plus one disclosure")
	assert.Len(t, repo.recorded, 2)
}

func TestDisclosureFailureIsSwallowedAndReleased(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepository{dueFn: func(context.Context, time.Time, types.Date, DueOptions) ([]Assignment, error) {
		return []Assignment{{
			JobID:        uuid.New(),
			AssociateID:  uuid.New(),
			PhoneNumber:  "+14155252030",
			StartsAt:     now.Add(24 * time.Hour),
			NumReminders: 1,
		}}, nil
	}}
	sender := &fakeSender{failOn: map[int]error{2: errors.New("disclosure rejected")}}
	disclosures := &fakeDisclosures{claimed: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, sender, disclosures, now)

	results, err := svc.ProcessScheduledReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 1, disclosures.released)
	assert.Empty(t, disclosures.claimed)
}

func TestSendTestReminder(t *testing.T) {
	db := dbtest.New(t)
	f := newFixture(t, db)
	a := f.addAssignment(t, assignmentSeed{workDate: "2025-01-10", startTime: "09:00:00", numReminders: 1})

	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	svc := newTestService(t, NewRepository(db), sender, nil, now)

	res, err := svc.SendTestReminder(context.Background(), a.JobID, a.AssociateID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, enums.ReminderHourBefore, res.ReminderType)
	assert.Equal(t, 0, f.reload(t, a.JobID, a.AssociateID).NumReminders)

	_, err = svc.SendTestReminder(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.SendTestReminder(context.Background(), uuid.Nil, a.AssociateID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateReminderStatusValidates(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeSender{}, nil, time.Now())
	err := svc.UpdateReminderStatus(context.Background(), uuid.New(), uuid.New(), StatusUpdate{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
