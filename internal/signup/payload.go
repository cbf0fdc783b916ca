package signup

import (
	"fmt"
	"strings"

	"github.com/kingrea/pickapad/internal/form"
)

// Payload is the completed wizard record handed to the account service. The
// concrete type is one of CompanyPayload, ContractorPayload or RetailerPayload.
type Payload interface {
	AccountType() AccountType
	Email() string
	DisplayName() string
	Organization() string
	Secret() string
}

// CompanyPayload carries the company flow's fields.
type CompanyPayload struct {
	CompanyName               string
	EIN                       string
	Website                   string
	CompanyEmail              string
	CompanyPhone              string
	IsEVerified               bool
	EVerificationNumber       string
	LLCDocument               *form.FileRef
	PropertiesUnderManagement string
	PropertiesOwned           string
	BusinessType              string
	BusinessYears             string
	ContactName               string
	ContactRole               string
	ContactEmail              string
	ContactPhone              string
	ContactState              string
	Password                  string
	TermsAccepted             bool
	PrivacyAccepted           bool
	CompanyEmailOnlyLogin     bool
}

func (CompanyPayload) AccountType() AccountType { return Company }
func (p CompanyPayload) Email() string          { return p.CompanyEmail }
func (p CompanyPayload) DisplayName() string    { return p.ContactName }
func (p CompanyPayload) Organization() string   { return p.CompanyName }
func (p CompanyPayload) Secret() string         { return p.Password }

// ContractorPayload carries the contractor flow's fields.
type ContractorPayload struct {
	FirstName              string
	LastName               string
	EmailAddress           string
	Phone                  string
	Address                string
	City                   string
	State                  string
	ZipCode                string
	BusinessName           string
	BusinessType           string
	EIN                    string
	YearsInBusiness        string
	LicenseNumber          string
	LicenseType            string
	LicenseExpiry          string
	Certifications         []string
	HasInsurance           bool
	InsuranceProvider      string
	InsuranceAmount        string
	InsuranceExpiry        string
	ServiceCategories      []string
	Specializations        string
	ServiceRadius          string
	Password               string
	BackgroundCheckConsent bool
	TermsAccepted          bool
	EmailOTP               string
	PhoneOTP               string
}

func (ContractorPayload) AccountType() AccountType { return Contractor }
func (p ContractorPayload) Email() string          { return p.EmailAddress }
func (p ContractorPayload) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
func (p ContractorPayload) Organization() string {
	if name := strings.TrimSpace(p.BusinessName); name != "" {
		return name
	}
	return p.DisplayName()
}
func (p ContractorPayload) Secret() string { return p.Password }

// RetailerPayload carries the retailer flow's fields.
type RetailerPayload struct {
	BusinessName       string
	BusinessType       string
	EIN                string
	Website            string
	ContactName        string
	ContactTitle       string
	EmailAddress       string
	Phone              string
	Address            string
	City               string
	State              string
	ZipCode            string
	ServiceCategories  []string
	ServiceDescription string
	ServiceArea        []string
	YearsInBusiness    string
	BusinessLicense    string
	InsuranceProvider  string
	InsuranceAmount    string
	Password           string
	TermsAccepted      bool
	EmailOTP           string
	PhoneOTP           string
}

func (RetailerPayload) AccountType() AccountType { return Retailer }
func (p RetailerPayload) Email() string          { return p.EmailAddress }
func (p RetailerPayload) DisplayName() string    { return p.ContactName }
func (p RetailerPayload) Organization() string   { return p.BusinessName }
func (p RetailerPayload) Secret() string         { return p.Password }

// BuildPayload maps a snapshot onto the payload variant for t. Fields owned by
// other flows are never copied.
func BuildPayload(t AccountType, v form.Values) (Payload, error) {
	switch t {
	case Company:
		p := CompanyPayload{
			CompanyName:               v.Text("companyName"),
			EIN:                       v.Text("ein"),
			Website:                   v.Text("website"),
			CompanyEmail:              v.Text("companyEmail"),
			CompanyPhone:              v.Text("companyPhone"),
			IsEVerified:               v.Bool("isEVerified"),
			PropertiesUnderManagement: v.Text("propertiesUnderManagement"),
			PropertiesOwned:           v.Text("propertiesOwned"),
			BusinessType:              v.Text("businessType"),
			BusinessYears:             v.Text("businessYears"),
			ContactName:               v.Text("contactName"),
			ContactRole:               v.Text("contactRole"),
			ContactEmail:              v.Text("contactEmail"),
			ContactPhone:              v.Text("contactPhone"),
			ContactState:              v.Text("contactState"),
			Password:                  v.Text("password"),
			TermsAccepted:             v.Bool("termsAccepted"),
			PrivacyAccepted:           v.Bool("privacyAccepted"),
			CompanyEmailOnlyLogin:     v.Bool("companyEmailOnlyLogin"),
		}
		if p.IsEVerified {
			p.EVerificationNumber = v.Text("eVerificationNumber")
		}
		if ref, ok := v.File("llcDocument"); ok {
			p.LLCDocument = &ref
		}
		return p, nil
	case Contractor:
		p := ContractorPayload{
			FirstName:              v.Text("firstName"),
			LastName:               v.Text("lastName"),
			EmailAddress:           v.Text("email"),
			Phone:                  v.Text("phone"),
			Address:                v.Text("address"),
			City:                   v.Text("city"),
			State:                  v.Text("state"),
			ZipCode:                v.Text("zipCode"),
			BusinessName:           v.Text("businessName"),
			BusinessType:           v.Text("businessType"),
			EIN:                    v.Text("ein"),
			YearsInBusiness:        v.Text("yearsInBusiness"),
			LicenseNumber:          v.Text("licenseNumber"),
			LicenseType:            v.Text("licenseType"),
			LicenseExpiry:          v.Text("licenseExpiry"),
			Certifications:         v.List("certifications"),
			HasInsurance:           v.Bool("hasInsurance"),
			ServiceCategories:      v.List("serviceCategories"),
			Specializations:        v.Text("specializations"),
			ServiceRadius:          v.Text("serviceRadius"),
			Password:               v.Text("password"),
			BackgroundCheckConsent: v.Bool("backgroundCheckConsent"),
			TermsAccepted:          v.Bool("termsAccepted"),
			EmailOTP:               v.Text("emailOtp"),
			PhoneOTP:               v.Text("phoneOtp"),
		}
		if p.HasInsurance {
			p.InsuranceProvider = v.Text("insuranceProvider")
			p.InsuranceAmount = v.Text("insuranceAmount")
			p.InsuranceExpiry = v.Text("insuranceExpiry")
		}
		return p, nil
	case Retailer:
		return RetailerPayload{
			BusinessName:       v.Text("businessName"),
			BusinessType:       v.Text("businessType"),
			EIN:                v.Text("ein"),
			Website:            v.Text("website"),
			ContactName:        v.Text("contactName"),
			ContactTitle:       v.Text("contactTitle"),
			EmailAddress:       v.Text("email"),
			Phone:              v.Text("phone"),
			Address:            v.Text("address"),
			City:               v.Text("city"),
			State:              v.Text("state"),
			ZipCode:            v.Text("zipCode"),
			ServiceCategories:  v.List("serviceCategories"),
			ServiceDescription: v.Text("serviceDescription"),
			ServiceArea:        v.List("serviceArea"),
			YearsInBusiness:    v.Text("yearsInBusiness"),
			BusinessLicense:    v.Text("businessLicense"),
			InsuranceProvider:  v.Text("insuranceProvider"),
			InsuranceAmount:    v.Text("insuranceAmount"),
			Password:           v.Text("password"),
			TermsAccepted:      v.Bool("termsAccepted"),
			EmailOTP:           v.Text("emailOtp"),
			PhoneOTP:           v.Text("phoneOtp"),
		}, nil
	default:
		return nil, fmt.Errorf("signup: unknown account type %q", t)
	}
}
