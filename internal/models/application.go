// internal/models/application.go
package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire layout of PersonalInfo.DateOfBirth.
const DateLayout = "2006-01-02"

// ApplicationDraft is the in-progress application. Sections stay nil until
// their step is first submitted.
type ApplicationDraft struct {
	PersonalInfo         *PersonalInfo         `json:"personalInfo,omitempty"`
	FamilyFinancial      *FamilyFinancial      `json:"familyFinancial,omitempty"`
	SituationDescription *SituationDescription `json:"situationDescription,omitempty"`
	AIGeneratedContent   AIGeneratedContent    `json:"aiGeneratedContent"`
}

type PersonalInfo struct {
	FirstName   string `json:"firstName" yaml:"firstName"`
	LastName    string `json:"lastName" yaml:"lastName"`
	NationalID  string `json:"nationalId" yaml:"nationalId"`
	DateOfBirth string `json:"dateOfBirth" yaml:"dateOfBirth"`
	Gender      string `json:"gender" yaml:"gender"`
	Phone       string `json:"phone" yaml:"phone"`
	Email       string `json:"email" yaml:"email"`
	Address     string `json:"address" yaml:"address"`
	City        string `json:"city" yaml:"city"`
	State       string `json:"state" yaml:"state"`
	Country     string `json:"country" yaml:"country"`
}

// BirthDate parses DateOfBirth.
func (p PersonalInfo) BirthDate() (time.Time, error) {
	t, err := time.Parse(DateLayout, p.DateOfBirth)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse dateOfBirth %q: %w", p.DateOfBirth, err)
	}
	return t, nil
}

// FullName joins first and last name, tolerating either being empty.
func (p PersonalInfo) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type FamilyFinancial struct {
	MaritalStatus          string `json:"maritalStatus" yaml:"maritalStatus"`
	HousingStatus          string `json:"housingStatus" yaml:"housingStatus"`
	EmploymentStatus       string `json:"employmentStatus" yaml:"employmentStatus"`
	MonthlyIncome          string `json:"monthlyIncome" yaml:"monthlyIncome"`
	MonthlyExpenses        string `json:"monthlyExpenses" yaml:"monthlyExpenses"`
	Dependents             string `json:"dependents" yaml:"dependents"`
	EmployerName           string `json:"employerName" yaml:"employerName"`
	JobTitle               string `json:"jobTitle" yaml:"jobTitle"`
	WorkExperience         string `json:"workExperience" yaml:"workExperience"`
	AdditionalIncome       string `json:"additionalIncome,omitempty" yaml:"additionalIncome"`
	AdditionalIncomeSource string `json:"additionalIncomeSource,omitempty" yaml:"additionalIncomeSource"`
}

type SituationDescription struct {
	CurrentFinancialSituation string   `json:"currentFinancialSituation" yaml:"currentFinancialSituation"`
	EmploymentCircumstances   string   `json:"employmentCircumstances" yaml:"employmentCircumstances"`
	ReasonForApplying         string   `json:"reasonForApplying" yaml:"reasonForApplying"`
	PreviousAssistance        string   `json:"previousAssistance,omitempty" yaml:"previousAssistance"`
	Documents                 []string `json:"documents,omitempty" yaml:"documents"`
	AdditionalInfo            string   `json:"additionalInfo,omitempty" yaml:"additionalInfo"`
}

// Narrative returns the value of one narrative field.
func (s SituationDescription) Narrative(field NarrativeField) string {
	switch field {
	case FieldCurrentFinancialSituation:
		return s.CurrentFinancialSituation
	case FieldEmploymentCircumstances:
		return s.EmploymentCircumstances
	case FieldReasonForApplying:
		return s.ReasonForApplying
	}
	return ""
}

// SetNarrative overwrites one narrative field.
func (s *SituationDescription) SetNarrative(field NarrativeField, text string) {
	switch field {
	case FieldCurrentFinancialSituation:
		s.CurrentFinancialSituation = text
	case FieldEmploymentCircumstances:
		s.EmploymentCircumstances = text
	case FieldReasonForApplying:
		s.ReasonForApplying = text
	}
}

// AIGeneratedContent caches the latest generated or edited text per
// narrative field. It is not form data.
type AIGeneratedContent struct {
	CurrentFinancialSituation string `json:"currentFinancialSituation"`
	EmploymentCircumstances   string `json:"employmentCircumstances"`
	ReasonForApplying         string `json:"reasonForApplying"`
}

func (c AIGeneratedContent) Get(field NarrativeField) string {
	switch field {
	case FieldCurrentFinancialSituation:
		return c.CurrentFinancialSituation
	case FieldEmploymentCircumstances:
		return c.EmploymentCircumstances
	case FieldReasonForApplying:
		return c.ReasonForApplying
	}
	return ""
}

func (c *AIGeneratedContent) Set(field NarrativeField, text string) {
	switch field {
	case FieldCurrentFinancialSituation:
		c.CurrentFinancialSituation = text
	case FieldEmploymentCircumstances:
		c.EmploymentCircumstances = text
	case FieldReasonForApplying:
		c.ReasonForApplying = text
	}
}

// Clone returns a deep copy so callers never alias session state.
func (d ApplicationDraft) Clone() ApplicationDraft {
	out := ApplicationDraft{AIGeneratedContent: d.AIGeneratedContent}
	if d.PersonalInfo != nil {
		p := *d.PersonalInfo
		out.PersonalInfo = &p
	}
	if d.FamilyFinancial != nil {
		f := *d.FamilyFinancial
		out.FamilyFinancial = &f
	}
	if d.SituationDescription != nil {
		s := *d.SituationDescription
		if s.Documents != nil {
			s.Documents = append([]string(nil), s.Documents...)
		}
		out.SituationDescription = &s
	}
	return out
}

// HasSection reports whether the section owned by step is present. Presence
// alone does not mean the section passed validation.
func (d ApplicationDraft) HasSection(step Step) bool {
	switch step {
	case StepPersonalInfo:
		return d.PersonalInfo != nil
	case StepFamilyFinancial:
		return d.FamilyFinancial != nil
	case StepSituationDescription:
		return d.SituationDescription != nil
	}
	return false
}

// IsEmpty is true for a draft with no sections and an empty cache.
func (d ApplicationDraft) IsEmpty() bool {
	return d.PersonalInfo == nil && d.FamilyFinancial == nil &&
		d.SituationDescription == nil && d.AIGeneratedContent == (AIGeneratedContent{})
}
