// Package model defines the domain types shared across the application.
package model

import "time"

// TaxFilingStatus is a user's federal filing status, used for tax estimates.
type TaxFilingStatus string

const (
	// FilingSingle represents a single filer.
	FilingSingle TaxFilingStatus = "single"
	// FilingMarriedJointly represents married filing jointly.
	FilingMarriedJointly TaxFilingStatus = "married_filing_jointly"
	// FilingMarriedSeparately represents married filing separately.
	FilingMarriedSeparately TaxFilingStatus = "married_filing_separately"
	// FilingHeadOfHousehold represents head of household.
	FilingHeadOfHousehold TaxFilingStatus = "head_of_household"
)

// DefaultTaxRate is applied when a user has not set an estimated rate.
const DefaultTaxRate = 0.25

// User is an account holder. AuthUID ties the row to the external
// identity provider; everything else is profile and tax settings.
type User struct {
	CreatedAt           time.Time
	UpdatedAt           time.Time
	EstimatedTaxRate    *float64
	ID                  string
	AuthUID             string
	Email               string
	FullName            string
	Phone               string
	TaxFilingStatus     TaxFilingStatus
	OnboardingCompleted bool
}

// TaxRate returns the user's estimated tax rate, falling back to
// DefaultTaxRate when unset. A nil user also yields the default.
func (u *User) TaxRate() float64 {
	if u == nil || u.EstimatedTaxRate == nil {
		return DefaultTaxRate
	}
	return *u.EstimatedTaxRate
}

// UserPatch carries a partial user update. Nil fields are left untouched.
type UserPatch struct {
	Email               *string
	FullName            *string
	Phone               *string
	OnboardingCompleted *bool
	TaxFilingStatus     *TaxFilingStatus
	EstimatedTaxRate    *float64
}
