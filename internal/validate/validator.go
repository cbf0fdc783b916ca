package validate

import (
	"fmt"

	"github.com/kingrea/pickapad/internal/form"
)

// Validator validates the steps of one wizard by index.
type Validator struct {
	steps []Step
}

// New builds a validator over steps. Step indexes must run 1..N in order.
func New(steps []Step) (*Validator, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("validate: at least one step is required")
	}
	for i, step := range steps {
		if step.Index != i+1 {
			return nil, fmt.Errorf("validate: step %d has index %d", i+1, step.Index)
		}
		fields := map[string]bool{}
		for _, rule := range step.Rules {
			if rule.Field == "" {
				return nil, fmt.Errorf("validate: step %d has a rule without a field", step.Index)
			}
			fields[rule.Field] = true
		}
		for _, rule := range step.Rules {
			if rule.MatchField != "" && !fields[rule.MatchField] {
				return nil, fmt.Errorf("validate: step %d: %s matches unknown field %s", step.Index, rule.Field, rule.MatchField)
			}
			if rule.DependsOn != "" && !fields[rule.DependsOn] {
				return nil, fmt.Errorf("validate: step %d: %s depends on unknown field %s", step.Index, rule.Field, rule.DependsOn)
			}
		}
	}
	out := make([]Step, len(steps))
	copy(out, steps)
	return &Validator{steps: out}, nil
}

// Steps returns the number of steps.
func (v *Validator) Steps() int {
	return len(v.steps)
}

// Step returns the definition for a 1-based index.
func (v *Validator) Step(index int) (Step, error) {
	if index < 1 || index > len(v.steps) {
		return Step{}, fmt.Errorf("validate: step %d out of range 1..%d", index, len(v.steps))
	}
	return v.steps[index-1], nil
}

// Validate checks the fields owned by step index against values.
func (v *Validator) Validate(index int, values form.Values) ([]form.FieldError, error) {
	step, err := v.Step(index)
	if err != nil {
		return nil, err
	}
	return Check(step, values), nil
}
