package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"
)

// Format is a named shape check for text fields.
type Format struct {
	Name    string
	Message string
	Check   func(string) bool
}

var (
	phonePattern = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
	einPattern   = regexp.MustCompile(`^\d{2}-\d{7}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	codePattern  = regexp.MustCompile(`^\d{6}$`)
)

var (
	Email = Format{
		Name:    "email",
		Message: "Please enter a valid email address",
		Check:   govalidator.IsEmail,
	}
	URL = Format{
		Name:    "url",
		Message: "Please enter a valid URL",
		Check:   isWebURL,
	}
	Phone = Format{
		Name:    "phone",
		Message: "Phone must be in format (XXX) XXX-XXXX",
		Check:   phonePattern.MatchString,
	}
	EIN = Format{
		Name:    "ein",
		Message: "EIN must be in format XX-XXXXXXX",
		Check:   einPattern.MatchString,
	}
	ZIP = Format{
		Name:    "zip",
		Message: "ZIP code must be in format XXXXX or XXXXX-XXXX",
		Check:   zipPattern.MatchString,
	}
	OneTimeCode = Format{
		Name:    "otp",
		Message: "Please enter the 6-digit code",
		Check:   codePattern.MatchString,
	}
)

func isWebURL(raw string) bool {
	if !govalidator.IsURL(raw) {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// PasswordPolicy describes the complexity a new password must meet.
type PasswordPolicy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires 8..100 characters with upper, lower, digit and symbol.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		MaxLength:     100,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Problem returns the first policy violation, or "" when the password is acceptable.
func (p PasswordPolicy) Problem(password string) string {
	length := len([]rune(password))
	if p.MinLength > 0 && length < p.MinLength {
		return fmt.Sprintf("Password must be at least %d characters", p.MinLength)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return fmt.Sprintf("Password must not exceed %d characters", p.MaxLength)
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	var missing []string
	if p.RequireUpper && !upper {
		missing = append(missing, "uppercase")
	}
	if p.RequireLower && !lower {
		missing = append(missing, "lowercase")
	}
	if p.RequireDigit && !digit {
		missing = append(missing, "number")
	}
	if p.RequireSymbol && !symbol {
		missing = append(missing, "special character")
	}
	if len(missing) > 0 {
		return "Password must contain " + joinWords(missing)
	}
	return ""
}

func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
	}
}
