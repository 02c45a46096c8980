package validation

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var catalogFS embed.FS

// Rule is the closed set of rules a field can fail.
type Rule string

const (
	RuleRequired  Rule = "required"
	RulePattern   Rule = "pattern"
	RuleEmail     Rule = "email"
	RuleDate      Rule = "date"
	RuleMinLength Rule = "minLength"
	RuleInvalid   Rule = "invalid"
)

// rulePrecedence decides which rule's message a field shows.
var rulePrecedence = []Rule{RuleRequired, RulePattern, RuleEmail, RuleDate, RuleMinLength, RuleInvalid}

// Catalog holds one locale's validation messages.
type Catalog struct {
	Locale string            `yaml:"locale"`
	Rules  map[Rule]string   `yaml:"rules"`
	Fields map[string]string `yaml:"fields"`
}

// Message renders the message for a failed rule.
func (c *Catalog) Message(rule Rule, field string, min int) string {
	tmpl, ok := c.Rules[rule]
	if !ok {
		tmpl = c.Rules[RuleInvalid]
	}
	label, ok := c.Fields[field]
	if !ok {
		label = field
	}
	return strings.NewReplacer("{field}", label, "{min}", strconv.Itoa(min)).Replace(tmpl)
}

func loadCatalogs() (map[string]*Catalog, error) {
	entries, err := catalogFS.ReadDir("messages")
	if err != nil {
		return nil, fmt.Errorf("read message catalogs: %w", err)
	}

	catalogs := make(map[string]*Catalog, len(entries))
	for _, entry := range entries {
		data, err := catalogFS.ReadFile("messages/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var c Catalog
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		for _, rule := range rulePrecedence {
			if _, ok := c.Rules[rule]; !ok {
				return nil, fmt.Errorf("catalog %s is missing rule %q", c.Locale, rule)
			}
		}
		catalogs[c.Locale] = &c
	}
	return catalogs, nil
}
