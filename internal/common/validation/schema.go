package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"assistance-wizard/internal/models"
)

// calendarDateFormat is registered with gojsonschema for dateOfBirth.
const calendarDateFormat = "calendar-date"

type calendarDateChecker struct{}

func (calendarDateChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return false
	}
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

func init() {
	gojsonschema.FormatCheckers.Add(calendarDateFormat, calendarDateChecker{})
}

// FieldErrors maps a field name to its message. A missing key means valid.
type FieldErrors map[string]string

const (
	digitsOnly   = "^[0-9]+$"
	emailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
)

func requiredString() map[string]interface{} {
	return map[string]interface{}{"type": "string", "minLength": 1}
}

func optionalString() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func objectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	return map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func personalInfoSchema() map[string]interface{} {
	digits := func() map[string]interface{} {
		s := requiredString()
		s["pattern"] = digitsOnly
		return s
	}
	email := requiredString()
	email["format"] = "email"
	email["pattern"] = emailPattern
	dob := requiredString()
	dob["format"] = calendarDateFormat

	return objectSchema(map[string]interface{}{
		"firstName":   requiredString(),
		"lastName":    requiredString(),
		"nationalId":  digits(),
		"dateOfBirth": dob,
		"gender":      requiredString(),
		"phone":       digits(),
		"email":       email,
		"address":     requiredString(),
		"city":        requiredString(),
		"state":       requiredString(),
		"country":     requiredString(),
	}, []string{
		"firstName", "lastName", "nationalId", "dateOfBirth", "gender",
		"phone", "email", "address", "city", "state", "country",
	})
}

func familyFinancialSchema() map[string]interface{} {
	required := []string{
		"maritalStatus", "dependents", "employmentStatus", "monthlyIncome", "housingStatus",
		"monthlyExpenses", "employerName", "jobTitle", "workExperience",
	}
	props := map[string]interface{}{
		"additionalIncome":       optionalString(),
		"additionalIncomeSource": optionalString(),
	}
	for _, field := range required {
		props[field] = requiredString()
	}
	return objectSchema(props, required)
}

func situationSchema(minLength int) map[string]interface{} {
	narrative := func() map[string]interface{} {
		s := requiredString()
		if minLength > 1 {
			s["minLength"] = minLength
		}
		return s
	}
	return objectSchema(map[string]interface{}{
		"currentFinancialSituation": narrative(),
		"employmentCircumstances":   narrative(),
		"reasonForApplying":         narrative(),
		"previousAssistance":        optionalString(),
		"additionalInfo":            optionalString(),
		"documents": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	}, []string{"currentFinancialSituation", "employmentCircumstances", "reasonForApplying"})
}

// Validator evaluates each step's schema and renders localized messages.
type Validator struct {
	schemas       map[models.Step]*gojsonschema.Schema
	catalogs      map[string]*Catalog
	defaultLocale string
	minLength     int
}

// NewValidator compiles the step schemas. narrativeMinLength is counted in
// characters after trimming surrounding whitespace.
func NewValidator(narrativeMinLength int, defaultLocale string) (*Validator, error) {
	catalogs, err := loadCatalogs()
	if err != nil {
		return nil, err
	}
	if _, ok := catalogs[defaultLocale]; !ok {
		defaultLocale = "en"
	}

	v := &Validator{
		schemas:       make(map[models.Step]*gojsonschema.Schema, 3),
		catalogs:      catalogs,
		defaultLocale: defaultLocale,
		minLength:     narrativeMinLength,
	}

	for step, doc := range map[models.Step]map[string]interface{}{
		models.StepPersonalInfo:         personalInfoSchema(),
		models.StepFamilyFinancial:      familyFinancialSchema(),
		models.StepSituationDescription: situationSchema(narrativeMinLength),
	} {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", step, err)
		}
		v.schemas[step] = schema
	}

	return v, nil
}

// NarrativeMinLength is the configured minimum narrative length.
func (v *Validator) NarrativeMinLength() int { return v.minLength }

// Validate checks one section.
func (v *Validator) Validate(section models.Section, locale string) FieldErrors {
	values, err := toValues(section)
	if err != nil {
		return FieldErrors{"_": err.Error()}
	}
	return v.ValidateValues(section.Step(), values, locale)
}

// ValidateValues checks raw field values for a step. Steps without a schema
// always pass.
func (v *Validator) ValidateValues(step models.Step, values map[string]interface{}, locale string) FieldErrors {
	schema, ok := v.schemas[step]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(trimValues(values)))
	if err != nil {
		return FieldErrors{"_": err.Error()}
	}
	if result.Valid() {
		return nil
	}

	failed := make(map[string]map[Rule]bool)
	for _, re := range result.Errors() {
		field, rule := classify(re, values)
		if failed[field] == nil {
			failed[field] = make(map[Rule]bool)
		}
		failed[field][rule] = true
	}

	catalog := v.catalog(locale)
	out := make(FieldErrors, len(failed))
	for field, rules := range failed {
		for _, rule := range rulePrecedence {
			if rules[rule] {
				out[field] = catalog.Message(rule, field, v.minLength)
				break
			}
		}
	}
	return out
}

func (v *Validator) catalog(locale string) *Catalog {
	if c, ok := v.catalogs[locale]; ok {
		return c
	}
	// "ar-SA" style tags fall back to their base language.
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		if c, ok := v.catalogs[locale[:i]]; ok {
			return c
		}
	}
	return v.catalogs[v.defaultLocale]
}

// classify maps a schema error onto a field and rule.
func classify(re gojsonschema.ResultError, values map[string]interface{}) (string, Rule) {
	field := re.Field()
	if i := strings.Index(field, "."); i > 0 {
		field = field[:i]
	}

	switch re.Type() {
	case "required":
		if prop, ok := re.Details()["property"].(string); ok {
			return prop, RuleRequired
		}
		return field, RuleRequired
	case "string_gte":
		if s, _ := values[field].(string); strings.TrimSpace(s) == "" {
			return field, RuleRequired
		}
		return field, RuleMinLength
	case "pattern":
		if field == "email" {
			return field, RuleEmail
		}
		return field, RulePattern
	case "format":
		switch re.Details()["format"] {
		case "email":
			return field, RuleEmail
		case calendarDateFormat:
			return field, RuleDate
		}
	case "invalid_type":
		if values[field] == nil {
			return field, RuleRequired
		}
	}
	return field, RuleInvalid
}

func toValues(section models.Section) (map[string]interface{}, error) {
	data, err := json.Marshal(section)
	if err != nil {
		return nil, fmt.Errorf("encode section: %w", err)
	}
	var values map[string]interface{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode section: %w", err)
	}
	return values, nil
}

func trimValues(values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
			continue
		}
		out[k] = v
	}
	return out
}
