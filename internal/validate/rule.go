package validate

import (
	"fmt"
	"strings"

	"github.com/kingrea/pickapad/internal/form"
)

// Rule constrains one field. Zero-valued constraints are ignored.
type Rule struct {
	Field       string
	Label       string
	Kind        form.Kind
	Placeholder string
	Required    bool
	MinLen      int
	MaxLen      int
	Format      *Format
	Password    *PasswordPolicy
	OneOf       []string
	MinItems    int
	MustBeTrue  bool
	// MatchField requires the value to equal another text field byte for byte.
	MatchField string
	// DependsOn names a boolean field; the rule only applies while it is true.
	DependsOn    string
	MaxBytes     int64
	AllowedTypes []string
	// Message overrides the generated message for required/must-be-true/match failures.
	Message string
}

// Step groups the rules for one wizard screen.
type Step struct {
	Index       int
	Title       string
	Description string
	Rules       []Rule
}

// Fields returns the field names in display order.
func (s Step) Fields() []string {
	out := make([]string, 0, len(s.Rules))
	for _, rule := range s.Rules {
		out = append(out, rule.Field)
	}
	return out
}

// RequiredFields returns the fields that must be filled unconditionally.
func (s Step) RequiredFields() []string {
	var out []string
	for _, rule := range s.Rules {
		if (rule.Required || rule.MustBeTrue || rule.MinItems > 0) && rule.DependsOn == "" {
			out = append(out, rule.Field)
		}
	}
	return out
}

// Rule returns the rule for field.
func (s Step) Rule(field string) (Rule, bool) {
	for _, rule := range s.Rules {
		if rule.Field == field {
			return rule, true
		}
	}
	return Rule{}, false
}

// Check evaluates every rule of a step. It returns at most one error per
// field, in rule order; an empty result means the step is valid.
func Check(step Step, values form.Values) []form.FieldError {
	var errs []form.FieldError
	seen := map[string]bool{}
	for _, rule := range step.Rules {
		if seen[rule.Field] {
			continue
		}
		if msg := rule.evaluate(values); msg != "" {
			seen[rule.Field] = true
			errs = append(errs, form.FieldError{Field: rule.Field, Message: msg})
		}
	}
	return errs
}

func (r Rule) evaluate(values form.Values) string {
	if r.DependsOn != "" && !values.Bool(r.DependsOn) {
		return ""
	}
	switch r.Kind {
	case form.KindBool:
		return r.checkBool(values.Bool(r.Field))
	case form.KindList:
		return r.checkList(values.List(r.Field))
	case form.KindFile:
		ref, ok := values.File(r.Field)
		return r.checkFile(ref, ok)
	default:
		return r.checkText(values.Text(r.Field), values)
	}
}

func (r Rule) checkBool(v bool) string {
	if (r.MustBeTrue || r.Required) && !v {
		return r.messageOr("You must accept the " + strings.ToLower(r.label()))
	}
	return ""
}

func (r Rule) checkList(items []string) string {
	want := r.MinItems
	if want == 0 && r.Required {
		want = 1
	}
	if len(items) < want {
		if want == 1 {
			return r.messageOr("Please select at least one " + strings.ToLower(singular(r.label())))
		}
		return r.messageOr(fmt.Sprintf("Please select at least %d %s", want, strings.ToLower(r.label())))
	}
	if len(r.OneOf) > 0 {
		for _, item := range items {
			if !contains(r.OneOf, item) {
				return fmt.Sprintf("%s contains an unknown option %q", r.label(), item)
			}
		}
	}
	return ""
}

func (r Rule) checkFile(ref form.FileRef, present bool) string {
	if !present {
		if r.Required {
			return r.messageOr(r.label() + " is required")
		}
		return ""
	}
	if r.MaxBytes > 0 && ref.Size > r.MaxBytes {
		return fmt.Sprintf("File size must be less than %s", humanBytes(r.MaxBytes))
	}
	if len(r.AllowedTypes) > 0 && !contains(r.AllowedTypes, ref.MIMEType) {
		return "File must be PDF, DOC, DOCX, or image format"
	}
	return ""
}

func (r Rule) checkText(raw string, values form.Values) string {
	if strings.TrimSpace(raw) == "" {
		if r.Required {
			return r.messageOr(r.label() + " is required")
		}
		if r.MatchField != "" && values.Text(r.MatchField) != "" {
			return r.matchMessage()
		}
		return ""
	}
	length := len([]rune(raw))
	if r.MinLen > 0 && length < r.MinLen {
		return fmt.Sprintf("%s must be at least %d characters", r.label(), r.MinLen)
	}
	if r.MaxLen > 0 && length > r.MaxLen {
		return fmt.Sprintf("%s must not exceed %d characters", r.label(), r.MaxLen)
	}
	if len(r.OneOf) > 0 && !contains(r.OneOf, raw) {
		return fmt.Sprintf("%s must be one of: %s", r.label(), strings.Join(r.OneOf, ", "))
	}
	if r.Format != nil && !r.Format.Check(raw) {
		return r.Format.Message
	}
	if r.Password != nil {
		if problem := r.Password.Problem(raw); problem != "" {
			return problem
		}
	}
	if r.MatchField != "" && raw != values.Text(r.MatchField) {
		return r.matchMessage()
	}
	return ""
}

func (r Rule) matchMessage() string {
	return r.messageOr("Passwords don't match")
}

func (r Rule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Field
}

func (r Rule) messageOr(fallback string) string {
	if r.Message != "" {
		return r.Message
	}
	return fallback
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func singular(label string) string {
	if strings.HasSuffix(label, "ies") {
		return strings.TrimSuffix(label, "ies") + "y"
	}
	if strings.HasSuffix(label, "s") {
		return strings.TrimSuffix(label, "s")
	}
	return label
}

func humanBytes(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
