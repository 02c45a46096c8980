// Package wizardtest provides session fixtures shared by tests.
package wizardtest

import (
	"context"
	"testing"
	"time"

	"assistance-wizard/internal/common/logger"
	"assistance-wizard/internal/common/validation"
	"assistance-wizard/internal/models"
	"assistance-wizard/internal/persistence"
	"assistance-wizard/internal/wizard"
)

// FixedNow is the clock used by controllers built here.
var FixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func PersonalInfo() models.PersonalInfo {
	return models.PersonalInfo{
		FirstName:   "John",
		LastName:    "Doe",
		NationalID:  "123456789",
		DateOfBirth: "1990-01-01",
		Gender:      "male",
		Phone:       "0501234567",
		Email:       "john@example.com",
		Address:     "Test Address",
		City:        "Abu Dhabi",
		State:       "Abu Dhabi",
		Country:     "AE",
	}
}

func FamilyFinancial() models.FamilyFinancial {
	return models.FamilyFinancial{
		MaritalStatus:    "married",
		HousingStatus:    "renting",
		EmploymentStatus: "part-time",
		MonthlyIncome:    "4500",
		MonthlyExpenses:  "7000",
		Dependents:       "2",
		EmployerName:     "Corniche Catering",
		JobTitle:         "Kitchen assistant",
		WorkExperience:   "4",
	}
}

func SituationDescription() models.SituationDescription {
	return models.SituationDescription{
		CurrentFinancialSituation: "My rent increased this year and my income no longer covers basic monthly expenses.",
		EmploymentCircumstances:   "My hours were cut from full time to twenty hours a week three months ago.",
		ReasonForApplying:         "I need temporary help with rent and school fees while I look for full time work.",
		Documents:                 []string{"payslip.pdf"},
	}
}

// Validator builds the production validator with the default narrative length.
func Validator(t testing.TB) *validation.Validator {
	t.Helper()
	v, err := validation.NewValidator(50, "en")
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}
	return v
}

// Session bundles a controller with the slot behind it.
type Session struct {
	Controller *wizard.Controller
	Adapter    *persistence.Adapter
	Slot       *persistence.MemorySlot
}

// NewSession builds a controller over an in-memory slot.
func NewSession(t testing.TB) *Session {
	t.Helper()
	return NewSessionWithSlot(t, persistence.NewMemorySlot())
}

func NewSessionWithSlot(t testing.TB, slot *persistence.MemorySlot) *Session {
	t.Helper()
	log := logger.NewTestLogger(t)
	adapter := persistence.NewAdapter(slot, persistence.DefaultKey, log)
	cfg := &wizard.Config{Locale: "en", Now: func() time.Time { return FixedNow }}
	return &Session{
		Controller: wizard.New(context.Background(), cfg, adapter, Validator(t), log),
		Adapter:    adapter,
		Slot:       slot,
	}
}

// FillToSituation advances through the first two steps.
func (s *Session) FillToSituation(t testing.TB) {
	t.Helper()
	FillController(t, s.Controller)
}

// FillController advances c through the first two steps.
func FillController(t testing.TB, c *wizard.Controller) {
	t.Helper()
	ctx := context.Background()
	for _, section := range []models.Section{PersonalInfo(), FamilyFinancial()} {
		errs, err := c.Advance(ctx, section)
		if err != nil || len(errs) > 0 {
			t.Fatalf("advance %s: errs=%v err=%v", section.Step(), errs, err)
		}
	}
}
