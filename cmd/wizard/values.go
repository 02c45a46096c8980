package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"assistance-wizard/internal/models"
)

// readSection decodes a YAML or JSON values file into the section for step.
func readSection(step models.Step, path string) (models.Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}

	var section models.Section
	switch step {
	case models.StepPersonalInfo:
		var s models.PersonalInfo
		err = yaml.Unmarshal(data, &s)
		section = s
	case models.StepFamilyFinancial:
		var s models.FamilyFinancial
		err = yaml.Unmarshal(data, &s)
		section = s
	case models.StepSituationDescription:
		var s models.SituationDescription
		err = yaml.Unmarshal(data, &s)
		section = s
	default:
		return nil, fmt.Errorf("step %s has no values to fill", step)
	}
	if err != nil {
		return nil, fmt.Errorf("parse values file %s: %w", path, err)
	}
	return section, nil
}
