package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistance-wizard/internal/common/database"
	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/models"
)

func newMockSQLSlot(t *testing.T) (*SQLSlot, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	slot := NewSQLSlot(database.NewPostgresFromDB(db))
	slot.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return slot, mock
}

func TestSQLSlot_EnsureSchema(t *testing.T) {
	slot, mock := newMockSQLSlot(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS wizard_snapshots")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, slot.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSlot_SaveAndLoadThroughAdapter(t *testing.T) {
	slot, mock := newMockSQLSlot(t)
	adapter := NewAdapter(slot, "device-1", logger.NewTestLogger(t))
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(upsertSnapshot)).
		WithArgs("device-1", sqlmock.AnyArg(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload := `{"version":1,"currentStep":"family-financial","formData":{"personalInfo":{"firstName":"Amal"},"aiGeneratedContent":{"currentFinancialSituation":"","employmentCircumstances":"","reasonForApplying":""}},"hasSubmittedSuccessfully":false}`
	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).
		WithArgs("device-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(payload)))

	snap := models.NewSessionSnapshot()
	snap.CurrentStep = models.StepFamilyFinancial
	snap.FormData.PersonalInfo = &models.PersonalInfo{FirstName: "Amal"}
	require.NoError(t, adapter.Save(ctx, snap))

	got := adapter.Load(ctx)
	assert.Equal(t, models.StepFamilyFinancial, got.CurrentStep)
	assert.Equal(t, "Amal", got.FormData.PersonalInfo.FirstName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSlot_GetMissingRow(t *testing.T) {
	slot, mock := newMockSQLSlot(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := slot.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrSlotEmpty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSlot_Errors(t *testing.T) {
	slot, mock := newMockSQLSlot(t)
	dbErr := errors.New("connection refused")
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectSnapshot)).WithArgs("k").WillReturnError(dbErr)
	mock.ExpectExec(regexp.QuoteMeta(upsertSnapshot)).WillReturnError(dbErr)
	mock.ExpectExec(regexp.QuoteMeta(deleteSnapshot)).WithArgs("k").WillReturnError(dbErr)

	_, err := slot.Get(ctx, "k")
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrSlotEmpty)
	assert.ErrorIs(t, slot.Set(ctx, "k", []byte("{}")), dbErr)
	assert.ErrorIs(t, slot.Delete(ctx, "k"), dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
