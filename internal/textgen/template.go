package textgen

import (
	"context"

	apperrors "assistance-wizard/internal/common/errors"
	"assistance-wizard/internal/models"
)

// TemplateGenerator returns fixed placeholder text. It is used when no
// provider is configured so the assist flow works offline.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Name() string { return "template" }

func (g *TemplateGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Normalize(apperrors.TransportFailure{Err: err})
	}
	return templateText(req.Field), nil
}

func templateText(field models.NarrativeField) string {
	switch field {
	case models.FieldCurrentFinancialSituation:
		return "I am currently facing significant financial challenges that have made it difficult to meet my basic living expenses. My monthly income is insufficient to cover essential costs such as housing, utilities, and groceries, leaving me in a precarious financial position that requires immediate assistance."
	case models.FieldEmploymentCircumstances:
		return "My current employment situation is unstable due to recent changes in my work circumstances. I am experiencing reduced hours, temporary layoffs, or other employment-related challenges that have significantly impacted my ability to maintain a stable income and provide for my family's needs."
	case models.FieldReasonForApplying:
		return "I am applying for financial assistance because I am experiencing genuine financial hardship that has made it difficult to meet my basic needs. This assistance would provide temporary relief while I work to improve my financial situation through employment opportunities and better financial management. I am committed to using any assistance responsibly and working towards long-term financial stability."
	default:
		return "I am experiencing financial difficulties and would appreciate assistance during this challenging time."
	}
}
