package models

import "strings"

// BillingProfile gates purchasing: a vendor may not buy leads until the
// required address fields are on file. Written by the onboarding flow,
// read-only here.
type BillingProfile struct {
	AccountID    string `json:"account_id" db:"account_id"`
	ContactName  string `json:"contact_name" db:"contact_name"`
	CompanyName  string `json:"company_name" db:"company_name"`
	AddressLine1 string `json:"address_line1" db:"address_line1"`
	AddressLine2 string `json:"address_line2" db:"address_line2"`
	City         string `json:"city" db:"city"`
	State        string `json:"state" db:"state"`
	Zip          string `json:"zip" db:"zip"`
}

// Complete reports whether the profile has every field required before
// a purchase is allowed: address line, city, state, zip, and either a
// contact name or a company name.
func (p *BillingProfile) Complete() bool {
	if p == nil {
		return false
	}
	required := []string{p.AddressLine1, p.City, p.State, p.Zip}
	for _, f := range required {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return strings.TrimSpace(p.ContactName) != "" || strings.TrimSpace(p.CompanyName) != ""
}
