package reminders

import (
	"testing"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/db/models"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/angelmondragon/crewtext-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	companyID uuid.UUID
}

func newFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	twoWay := "+14159990000"
	company := models.Company{ID: uuid.New(), Name: "Crew Staffing", TwoWayPhoneNumber: &twoWay}
	require.NoError(t, db.Create(&company).Error)
	return &fixture{db: db, companyID: company.ID}
}

type assignmentSeed struct {
	workDate     string
	startTime    string
	numReminders int
	status       enums.ConfirmationStatus
	lastReminder *time.Time
	optedOut     bool
	phone        string
}

func (f *fixture) addAssignment(t *testing.T, seed assignmentSeed) models.JobAssignment {
	t.Helper()
	if seed.phone == "" {
		seed.phone = "+14155252030"
	}
	if seed.status == "" {
		seed.status = enums.ConfirmationUnconfirmed
	}
	associate := models.Associate{
		ID:          uuid.New(),
		CompanyID:   &f.companyID,
		FirstName:   "Dana",
		LastName:    "Reyes",
		PhoneNumber: seed.phone,
	}
	require.NoError(t, f.db.Create(&associate).Error)
	if seed.optedOut {
		require.NoError(t, f.db.Model(&models.Associate{}).Where("id = ?", associate.ID).Update("opted_out", true).Error)
	}

	job := models.Job{ID: uuid.New(), CompanyID: &f.companyID, Title: "Warehouse Picker", CustomerName: "Acme Logistics"}
	require.NoError(t, f.db.Create(&job).Error)

	assignment := models.JobAssignment{
		JobID:              job.ID,
		AssociateID:        associate.ID,
		WorkDate:           types.MustParseDate(seed.workDate),
		StartTime:          seed.startTime,
		NumReminders:       seed.numReminders,
		LastReminderTime:   seed.lastReminder,
		ConfirmationStatus: seed.status,
	}
	require.NoError(t, f.db.Create(&assignment).Error)
	return assignment
}

func (f *fixture) reload(t *testing.T, jobID, associateID uuid.UUID) models.JobAssignment {
	t.Helper()
	var row models.JobAssignment
	require.NoError(t, f.db.Where("job_id = ? AND associate_id = ?", jobID, associateID).Take(&row).Error)
	return row
}
