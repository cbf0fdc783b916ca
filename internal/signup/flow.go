package signup

import (
	"fmt"
	"strings"

	"github.com/kingrea/pickapad/internal/form"
	"github.com/kingrea/pickapad/internal/validate"
)

// AccountType tags a signup flow and its payload.
type AccountType string

const (
	Company    AccountType = "company"
	Contractor AccountType = "contractor"
	Retailer   AccountType = "retailer"
)

// ParseAccountType accepts a user supplied type name.
func ParseAccountType(raw string) (AccountType, error) {
	switch AccountType(strings.ToLower(strings.TrimSpace(raw))) {
	case Company:
		return Company, nil
	case Contractor:
		return Contractor, nil
	case Retailer, "realtor":
		return Retailer, nil
	default:
		return "", fmt.Errorf("signup: unknown account type %q", raw)
	}
}

// Flow is one signup wizard.
type Flow struct {
	Type        AccountType
	Title       string
	Description string
	Steps       []validate.Step
	Defaults    form.Values
}

// Options tune the flow tables.
type Options struct {
	DefaultState   string
	PasswordPolicy validate.PasswordPolicy
}

// DefaultOptions mirrors the stock configuration.
func DefaultOptions() Options {
	return Options{
		DefaultState:   "Texas",
		PasswordPolicy: validate.DefaultPasswordPolicy(),
	}
}

func (o Options) normalized() Options {
	if strings.TrimSpace(o.DefaultState) == "" {
		o.DefaultState = "Texas"
	}
	if o.PasswordPolicy.MinLength == 0 {
		o.PasswordPolicy = validate.DefaultPasswordPolicy()
	}
	return o
}

// Validate checks the flow's step table.
func (f Flow) Validate() error {
	if f.Type == "" {
		return fmt.Errorf("signup: flow type is required")
	}
	if _, err := validate.New(f.Steps); err != nil {
		return fmt.Errorf("signup: %s: %w", f.Type, err)
	}
	return nil
}

// TotalSteps returns the number of steps in the flow.
func (f Flow) TotalSteps() int {
	return len(f.Steps)
}

const maxDocumentBytes = 10 << 20

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
	"image/jpg",
}

// CompanyFlow is the eight step property-management company signup.
func CompanyFlow(opts Options) Flow {
	opts = opts.normalized()
	policy := opts.PasswordPolicy
	return Flow{
		Type:        Company,
		Title:       "Property Management Company",
		Description: "Manage portfolios, tenants and maintenance for your company",
		Defaults: form.Values{
			"isEVerified":   form.Bool(false),
			"contactState":  form.Text(opts.DefaultState),
			"termsAccepted": form.Bool(false),
		},
		Steps: []validate.Step{
			{
				Index: 1,
				Title: "Company name",
				Rules: []validate.Rule{
					{Field: "companyName", Label: "Company name", Required: true, MinLen: 2, MaxLen: 100, Placeholder: "Acme Property Group"},
				},
			},
			{
				Index:       2,
				Title:       "Legal details",
				Description: "EIN, website and E-Verify status",
				Rules: []validate.Rule{
					{Field: "ein", Label: "EIN", Required: true, Format: &validate.EIN, Placeholder: "12-3456789"},
					{Field: "website", Label: "Website", Format: &validate.URL, Placeholder: "https://example.com"},
					{Field: "isEVerified", Label: "Company is E-Verified", Kind: form.KindBool},
					{
						Field:     "eVerificationNumber",
						Label:     "E-Verification number",
						Required:  true,
						DependsOn: "isEVerified",
						Message:   "E-Verification number is required when E-Verified is checked",
					},
					{Field: "llcDocument", Label: "LLC document", Kind: form.KindFile, MaxBytes: maxDocumentBytes, AllowedTypes: documentTypes, Placeholder: "path/to/llc.pdf"},
				},
			},
			{
				Index: 3,
				Title: "Company contact",
				Rules: []validate.Rule{
					{Field: "companyEmail", Label: "Company email", Required: true, MaxLen: 100, Format: &validate.Email, Placeholder: "office@acme.com"},
					{Field: "companyPhone", Label: "Company phone", Required: true, Format: &validate.Phone, Placeholder: "(512) 555-0134"},
				},
			},
			{
				Index: 4,
				Title: "Portfolio",
				Rules: []validate.Rule{
					{Field: "propertiesUnderManagement", Label: "Properties under management", Required: true, Message: "Please select number of properties under management", Placeholder: "1-10"},
					{Field: "propertiesOwned", Label: "Properties owned", Required: true, Placeholder: "0"},
				},
			},
			{
				Index: 5,
				Title: "Business operations",
				Rules: []validate.Rule{
					{Field: "businessType", Label: "Business type", Required: true, Message: "Please select business type", Placeholder: "LLC"},
					{Field: "businessYears", Label: "Years in business", Placeholder: "5"},
				},
			},
			{
				Index: 6,
				Title: "Point of contact",
				Rules: []validate.Rule{
					{Field: "contactName", Label: "Contact name", Required: true, MinLen: 2, MaxLen: 50},
					{Field: "contactRole", Label: "Contact role", MinLen: 2, MaxLen: 50, Placeholder: "Operations Manager"},
					{Field: "contactEmail", Label: "Contact email", Required: true, MaxLen: 100, Format: &validate.Email},
					{Field: "contactPhone", Label: "Contact phone", Format: &validate.Phone, Placeholder: "(512) 555-0134"},
				},
			},
			{
				Index: 7,
				Title: "Account security",
				Rules: []validate.Rule{
					{Field: "password", Label: "Password", Required: true, Password: &policy},
					{Field: "confirmPassword", Label: "Password confirmation", Required: true, MatchField: "password"},
				},
			},
			{
				Index:       8,
				Title:       "Agreements",
				Description: "Review and accept to create the account",
				Rules: []validate.Rule{
					{Field: "termsAccepted", Label: "Terms of service", Kind: form.KindBool, MustBeTrue: true},
					{Field: "privacyAccepted", Label: "Privacy policy", Kind: form.KindBool, MustBeTrue: true},
					{Field: "companyEmailOnlyLogin", Label: "Company email only login", Kind: form.KindBool, MustBeTrue: true, Message: "You must acknowledge the company email usage policy"},
				},
			},
		},
	}
}

var contractorBusinessTypes = []string{"individual", "llc", "corporation", "partnership"}

// ContractorFlow is the six step independent contractor signup.
func ContractorFlow(opts Options) Flow {
	opts = opts.normalized()
	policy := opts.PasswordPolicy
	return Flow{
		Type:        Contractor,
		Title:       "Contractor",
		Description: "Find maintenance work from property managers",
		Defaults: form.Values{
			"state":                  form.Text(opts.DefaultState),
			"businessType":           form.Text("individual"),
			"hasInsurance":           form.Bool(false),
			"backgroundCheckConsent": form.Bool(false),
			"termsAccepted":          form.Bool(false),
		},
		Steps: []validate.Step{
			{
				Index: 1,
				Title: "Personal information",
				Rules: []validate.Rule{
					{Field: "firstName", Label: "First name", Required: true, MinLen: 2, MaxLen: 50},
					{Field: "lastName", Label: "Last name", Required: true, MinLen: 2, MaxLen: 50},
					{Field: "email", Label: "Email", Required: true, MaxLen: 100, Format: &validate.Email},
					{Field: "phone", Label: "Phone", Required: true, Format: &validate.Phone, Placeholder: "(512) 555-0134"},
				},
			},
			addressStep(2, "Address"),
			{
				Index: 3,
				Title: "Business information",
				Rules: []validate.Rule{
					{Field: "businessName", Label: "Business name", MaxLen: 100},
					{Field: "businessType", Label: "Business type", Required: true, OneOf: contractorBusinessTypes},
					{Field: "ein", Label: "EIN", Format: &validate.EIN, Placeholder: "12-3456789"},
					{Field: "yearsInBusiness", Label: "Years in business", Required: true},
				},
			},
			{
				Index: 4,
				Title: "License & insurance",
				Rules: []validate.Rule{
					{Field: "licenseNumber", Label: "License number"},
					{Field: "licenseType", Label: "License type"},
					{Field: "licenseExpiry", Label: "License expiry", Placeholder: "2027-01-31"},
					{Field: "certifications", Label: "Certifications", Kind: form.KindList, Placeholder: "comma separated"},
					{Field: "hasInsurance", Label: "Carries liability insurance", Kind: form.KindBool},
					{Field: "insuranceProvider", Label: "Insurance provider", Required: true, DependsOn: "hasInsurance", Message: "Insurance details are required when insurance is selected"},
					{Field: "insuranceAmount", Label: "Coverage amount", Required: true, DependsOn: "hasInsurance", Message: "Insurance details are required when insurance is selected"},
					{Field: "insuranceExpiry", Label: "Insurance expiry", DependsOn: "hasInsurance"},
				},
			},
			{
				Index: 5,
				Title: "Services & account",
				Rules: []validate.Rule{
					{Field: "serviceCategories", Label: "Service categories", Kind: form.KindList, MinItems: 1, Placeholder: "plumbing, electrical"},
					{Field: "specializations", Label: "Specializations"},
					{Field: "serviceRadius", Label: "Service radius", Required: true, Placeholder: "25 miles"},
					{Field: "password", Label: "Password", Required: true, Password: &policy},
					{Field: "confirmPassword", Label: "Password confirmation", Required: true, MatchField: "password"},
					{Field: "backgroundCheckConsent", Label: "Background check consent", Kind: form.KindBool, MustBeTrue: true, Message: "Background check consent is required"},
					{Field: "termsAccepted", Label: "Terms of service", Kind: form.KindBool, MustBeTrue: true},
				},
			},
			verificationStep(6),
		},
	}
}

var retailerBusinessTypes = []string{"sole_proprietorship", "llc", "corporation", "partnership"}

// RetailerFlow is the six step service retailer signup.
func RetailerFlow(opts Options) Flow {
	opts = opts.normalized()
	policy := opts.PasswordPolicy
	contact := addressStep(2, "Contact information")
	contact.Rules = append([]validate.Rule{
		{Field: "contactName", Label: "Contact name", Required: true, MinLen: 2, MaxLen: 50},
		{Field: "contactTitle", Label: "Contact title", Required: true, MinLen: 2, MaxLen: 50},
		{Field: "email", Label: "Email", Required: true, MaxLen: 100, Format: &validate.Email},
		{Field: "phone", Label: "Phone", Required: true, Format: &validate.Phone, Placeholder: "(512) 555-0134"},
	}, contact.Rules...)
	return Flow{
		Type:        Retailer,
		Title:       "Retailer",
		Description: "Offer products and services to managed properties",
		Defaults: form.Values{
			"state":         form.Text(opts.DefaultState),
			"businessType":  form.Text("llc"),
			"termsAccepted": form.Bool(false),
		},
		Steps: []validate.Step{
			{
				Index: 1,
				Title: "Business information",
				Rules: []validate.Rule{
					{Field: "businessName", Label: "Business name", Required: true, MinLen: 2, MaxLen: 100},
					{Field: "businessType", Label: "Business type", Required: true, OneOf: retailerBusinessTypes},
					{Field: "ein", Label: "EIN", Required: true, Format: &validate.EIN, Placeholder: "12-3456789"},
					{Field: "website", Label: "Website", Format: &validate.URL},
				},
			},
			contact,
			{
				Index: 3,
				Title: "Service categories",
				Rules: []validate.Rule{
					{Field: "serviceCategories", Label: "Service categories", Kind: form.KindList, MinItems: 1, Placeholder: "appliances, flooring"},
					{Field: "serviceDescription", Label: "Service description", Required: true, MinLen: 10, MaxLen: 500},
				},
			},
			{
				Index: 4,
				Title: "Service areas & details",
				Rules: []validate.Rule{
					{Field: "serviceArea", Label: "Service areas", Kind: form.KindList, MinItems: 1, Placeholder: "Austin, Round Rock"},
					{Field: "yearsInBusiness", Label: "Years in business", Required: true},
					{Field: "businessLicense", Label: "Business license"},
					{Field: "insuranceProvider", Label: "Insurance provider"},
					{Field: "insuranceAmount", Label: "Coverage amount"},
				},
			},
			{
				Index: 5,
				Title: "Account setup",
				Rules: []validate.Rule{
					{Field: "password", Label: "Password", Required: true, Password: &policy},
					{Field: "confirmPassword", Label: "Password confirmation", Required: true, MatchField: "password"},
					{Field: "termsAccepted", Label: "Terms of service", Kind: form.KindBool, MustBeTrue: true},
				},
			},
			verificationStep(6),
		},
	}
}

func addressStep(index int, title string) validate.Step {
	return validate.Step{
		Index: index,
		Title: title,
		Rules: []validate.Rule{
			{Field: "address", Label: "Address", Required: true, MinLen: 5, MaxLen: 200},
			{Field: "city", Label: "City", Required: true, MinLen: 2, MaxLen: 50},
			{Field: "state", Label: "State", Required: true, Message: "Please select a state"},
			{Field: "zipCode", Label: "ZIP code", Required: true, Format: &validate.ZIP, Placeholder: "78701"},
		},
	}
}

func verificationStep(index int) validate.Step {
	return validate.Step{
		Index:       index,
		Title:       "Verification",
		Description: "Enter the codes sent to your email and phone, or leave blank to verify later",
		Rules: []validate.Rule{
			{Field: "emailOtp", Label: "Email code", Format: &validate.OneTimeCode},
			{Field: "phoneOtp", Label: "Phone code", Format: &validate.OneTimeCode},
		},
	}
}
