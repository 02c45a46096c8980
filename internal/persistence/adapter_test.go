package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistance-wizard/internal/common/database"
	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func sampleSnapshot() models.SessionSnapshot {
	saved := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return models.SessionSnapshot{
		Version:     models.SnapshotVersion,
		CurrentStep: models.StepSituationDescription,
		FormData: models.ApplicationDraft{
			PersonalInfo: &models.PersonalInfo{
				FirstName: "Amal", LastName: "Haddad", NationalID: "784199012345",
				DateOfBirth: "1990-04-12", Gender: "female", Phone: "971501234567",
				Email: "amal@example.com", Address: "12 Palm Street", City: "Dubai",
				State: "Dubai", Country: "AE",
			},
			FamilyFinancial: &models.FamilyFinancial{
				MaritalStatus: "married", HousingStatus: "renting", EmploymentStatus: "part-time",
				MonthlyIncome: "4000", MonthlyExpenses: "6500", Dependents: "3",
				EmployerName: "Gulf Logistics", JobTitle: "Warehouse assistant", WorkExperience: "6",
			},
			SituationDescription: &models.SituationDescription{
				CurrentFinancialSituation: "Rent has gone up twice this year.",
				Documents:                 []string{"lease.pdf"},
			},
			AIGeneratedContent: models.AIGeneratedContent{
				ReasonForApplying: "I am applying because...",
			},
		},
		LastSaved:                &saved,
		HasSubmittedSuccessfully: false,
	}
}

type failingSlot struct {
	err error
}

func (f failingSlot) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingSlot) Set(context.Context, string, []byte) error { return f.err }
func (f failingSlot) Delete(context.Context, string) error { return f.err }
func (f failingSlot) Name() string { return "failing" }

func slotsUnderTest(t *testing.T) map[string]Slot {
	t.Helper()
	fileSlot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)

	s := miniredis.RunT(t)
	redisClient := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: s.Addr()}), 0)
	t.Cleanup(func() { redisClient.Close() })

	return map[string]Slot{
		"memory": NewMemorySlot(),
		"file":   fileSlot,
		"redis":  NewRedisSlot(redisClient),
	}
}

// ==========================
// Round Trip Tests
// ==========================

func TestAdapter_RoundTrip(t *testing.T) {
	for name, slot := range slotsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			adapter := NewAdapter(slot, "", logger.NewTestLogger(t))
			ctx := context.Background()
			want := sampleSnapshot()

			require.NoError(t, adapter.Save(ctx, want))
			got := adapter.Load(ctx)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdapter_LoadEmptyIsFresh(t *testing.T) {
	for name, slot := range slotsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			adapter := NewAdapter(slot, "fresh", logger.NewNoOpLogger())

			got := adapter.Load(context.Background())

			assert.Equal(t, models.NewSessionSnapshot(), got)
			assert.True(t, got.FormData.IsEmpty())
		})
	}
}

func TestAdapter_Clear(t *testing.T) {
	for name, slot := range slotsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			adapter := NewAdapter(slot, "k", logger.NewNoOpLogger())
			ctx := context.Background()

			require.NoError(t, adapter.Save(ctx, sampleSnapshot()))
			require.NoError(t, adapter.Clear(ctx))
			assert.Equal(t, models.NewSessionSnapshot(), adapter.Load(ctx))

			// clearing twice is fine
			assert.NoError(t, adapter.Clear(ctx))
		})
	}
}

// ==========================
// Corruption and Failure Tests
// ==========================

func TestAdapter_LoadCorruptPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{"version":1,"currentStep":`},
		{"unknown version", `{"version":7,"currentStep":"personal-info","formData":{}}`},
		{"missing version", `{"currentStep":"personal-info","formData":{}}`},
		{"unknown step", `{"version":1,"currentStep":"review","formData":{}}`},
		{"wrong shape", `["personal-info"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := NewMemorySlot()
			require.NoError(t, slot.Set(context.Background(), DefaultKey, []byte(tt.payload)))
			adapter := NewAdapter(slot, DefaultKey, logger.NewNoOpLogger())

			assert.Equal(t, models.NewSessionSnapshot(), adapter.Load(context.Background()))
		})
	}
}

func TestAdapter_LoadDefaultsMissingCache(t *testing.T) {
	slot := NewMemorySlot()
	payload := `{"version":1,"currentStep":"family-financial","formData":{"personalInfo":{"firstName":"Amal"}}}`
	require.NoError(t, slot.Set(context.Background(), DefaultKey, []byte(payload)))

	got := NewAdapter(slot, DefaultKey, logger.NewNoOpLogger()).Load(context.Background())

	assert.Equal(t, models.StepFamilyFinancial, got.CurrentStep)
	assert.Equal(t, "Amal", got.FormData.PersonalInfo.FirstName)
	assert.Equal(t, models.AIGeneratedContent{}, got.FormData.AIGeneratedContent)
	assert.Nil(t, got.LastSaved)
}

func TestAdapter_SlotFailures(t *testing.T) {
	boom := errors.New("quota exceeded")
	adapter := NewAdapter(failingSlot{err: boom}, DefaultKey, logger.NewTestLogger(t))
	ctx := context.Background()

	assert.Equal(t, models.NewSessionSnapshot(), adapter.Load(ctx))
	assert.ErrorIs(t, adapter.Save(ctx, sampleSnapshot()), boom)
	assert.ErrorIs(t, adapter.Clear(ctx), boom)
}

func TestAdapter_RedisErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewAdapter(NewRedisSlot(database.NewRedisFromClient(db, 0)), "k", logger.NewNoOpLogger())
	ctx := context.Background()

	mock.ExpectGet(redisKeyPrefix + "k").SetErr(errors.New("connection reset"))
	mock.ExpectDel(redisKeyPrefix + "k").SetErr(errors.New("connection reset"))

	assert.Equal(t, models.NewSessionSnapshot(), adapter.Load(ctx))
	assert.Error(t, adapter.Clear(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// File Slot Tests
// ==========================

func TestFileSlot_AtomicReplaceLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, slot.Set(ctx, "a/b key", []byte("one")))
	require.NoError(t, slot.Set(ctx, "a/b key", []byte("two")))

	got, err := slot.Get(ctx, "a/b key")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a%2Fb%20key.json", entries[0].Name())
	assert.FileExists(t, filepath.Join(dir, entries[0].Name()))
}

func TestNewFileSlot_RequiresDir(t *testing.T) {
	_, err := NewFileSlot("")
	assert.Error(t, err)
}
