package textgen

import (
	"strconv"
	"strings"
	"time"

	"assistance-wizard/internal/models"
)

const SystemPrompt = "You are a helpful assistant that helps users write clear, professional descriptions of their financial situations for assistance applications. Be empathetic, concise, and factual."

const closingInstruction = "Please write a clear, professional, and empathetic description that would be appropriate for a financial assistance application."

var openers = map[models.NarrativeField]string{
	models.FieldCurrentFinancialSituation: "Help me describe my current financial situation. ",
	models.FieldEmploymentCircumstances:   "Help me describe my employment circumstances. ",
	models.FieldReasonForApplying:         "Help me explain why I am applying for financial assistance. ",
}

var languageNames = map[string]string{
	"en": "English",
	"ar": "Arabic",
}

// BuildPrompt assembles the user prompt for field from whatever parts of the
// draft are filled in. Missing sections are skipped.
func BuildPrompt(field models.NarrativeField, draft models.ApplicationDraft, locale string, now time.Time) string {
	var b strings.Builder

	opener, ok := openers[field]
	if !ok {
		opener = "Help me describe my situation. "
	}
	b.WriteString(opener)

	if entries := promptContext(draft, now); len(entries) > 0 {
		b.WriteString("Based on this information: ")
		b.WriteString(strings.Join(entries, ", "))
		b.WriteString(". ")
	}

	b.WriteString(closingInstruction)

	if lang := Language(locale); lang != "en" {
		if name, ok := languageNames[lang]; ok {
			b.WriteString(" Please respond in ")
			b.WriteString(name)
			b.WriteString(".")
		}
	}
	return b.String()
}

func promptContext(draft models.ApplicationDraft, now time.Time) []string {
	var entries []string

	if p := draft.PersonalInfo; p != nil {
		if name := p.FullName(); name != "" {
			entries = append(entries, "Name: "+name)
		}
	}
	if f := draft.FamilyFinancial; f != nil {
		if f.EmploymentStatus != "" {
			entries = append(entries, "Employment Status: "+f.EmploymentStatus)
		}
		if f.MonthlyIncome != "" {
			entries = append(entries, "Monthly Income: "+f.MonthlyIncome)
		}
		if f.Dependents != "" {
			entries = append(entries, "Dependents: "+f.Dependents)
		}
	}
	if p := draft.PersonalInfo; p != nil && p.DateOfBirth != "" {
		if dob, err := p.BirthDate(); err == nil {
			entries = append(entries, "Age: "+strconv.Itoa(now.Year()-dob.Year()))
		}
	}
	return entries
}

// Language reduces a locale such as "ar-AE" to its base language.
func Language(locale string) string {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" {
		return "en"
	}
	return lang
}
