package wizard

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
)

//go:embed steps.yaml
var defaultStepsYAML []byte

// Step is one page of the profile wizard.
type Step struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Fields      []string `yaml:"fields" json:"fields"`
}

type stepsFile struct {
	Steps []Step `yaml:"steps"`
}

// ParseSteps decodes and checks a step definition document.
func ParseSteps(data []byte) ([]Step, error) {
	var f stepsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse steps: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("no steps defined")
	}

	seenSteps := make(map[string]bool, len(f.Steps))
	seenFields := make(map[string]string)
	for _, step := range f.Steps {
		if step.ID == "" {
			return nil, fmt.Errorf("step without id")
		}
		if seenSteps[step.ID] {
			return nil, fmt.Errorf("duplicate step %q", step.ID)
		}
		seenSteps[step.ID] = true

		if len(step.Fields) == 0 {
			return nil, fmt.Errorf("step %q has no fields", step.ID)
		}
		for _, field := range step.Fields {
			if !slices.Contains(profile.DraftFields, field) {
				return nil, fmt.Errorf("step %q: unknown field %q", step.ID, field)
			}
			if owner, ok := seenFields[field]; ok {
				return nil, fmt.Errorf("field %q appears in steps %q and %q", field, owner, step.ID)
			}
			seenFields[field] = step.ID
		}
	}
	return f.Steps, nil
}

// DefaultSteps returns the built-in step sequence.
func DefaultSteps() []Step {
	steps, err := ParseSteps(defaultStepsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded steps.yaml: %v", err))
	}
	return steps
}
