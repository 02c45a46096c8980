package models

import "fmt"

// Step identifies one page of the wizard.
type Step string

const (
	StepPersonalInfo         Step = "personal-info"
	StepFamilyFinancial      Step = "family-financial"
	StepSituationDescription Step = "situation-description"
	StepSuccess              Step = "success"
)

// Steps lists the wizard steps in order.
var Steps = []Step{StepPersonalInfo, StepFamilyFinancial, StepSituationDescription, StepSuccess}

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	switch Step(s) {
	case StepPersonalInfo, StepFamilyFinancial, StepSituationDescription, StepSuccess:
		return Step(s), nil
	}
	return "", fmt.Errorf("unknown step %q", s)
}

// Index is the position of the step in Steps, or -1.
func (s Step) Index() int {
	switch s {
	case StepPersonalInfo:
		return 0
	case StepFamilyFinancial:
		return 1
	case StepSituationDescription:
		return 2
	case StepSuccess:
		return 3
	}
	return -1
}

// Next returns the following step; ok is false for the last step.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i >= len(Steps)-1 {
		return "", false
	}
	return Steps[i+1], true
}

// Previous returns the preceding step; ok is false for the first step.
func (s Step) Previous() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return Steps[i-1], true
}

// NarrativeField is one of the three free-text fields eligible for AI assistance.
type NarrativeField string

const (
	FieldCurrentFinancialSituation NarrativeField = "currentFinancialSituation"
	FieldEmploymentCircumstances   NarrativeField = "employmentCircumstances"
	FieldReasonForApplying         NarrativeField = "reasonForApplying"
)

// NarrativeFields lists the narrative fields in form order.
var NarrativeFields = []NarrativeField{
	FieldCurrentFinancialSituation,
	FieldEmploymentCircumstances,
	FieldReasonForApplying,
}

func ParseNarrativeField(s string) (NarrativeField, error) {
	switch NarrativeField(s) {
	case FieldCurrentFinancialSituation, FieldEmploymentCircumstances, FieldReasonForApplying:
		return NarrativeField(s), nil
	}
	return "", fmt.Errorf("unknown narrative field %q", s)
}

// Section is a step's submitted payload.
type Section interface {
	Step() Step
}

func (PersonalInfo) Step() Step { return StepPersonalInfo }
func (FamilyFinancial) Step() Step { return StepFamilyFinancial }
func (SituationDescription) Step() Step { return StepSituationDescription }
