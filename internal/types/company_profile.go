// Package types provides type definitions for the documents persisted per tenant.
package types

// ServiceKind names one of the two purchasable ad-generation services.
type ServiceKind string

// Service kinds correspond one-to-one with the credit counters on the
// company profile.
const (
	ServiceStandard ServiceKind = "standard_service"
	ServicePremium  ServiceKind = "premium_service"
)

// Valid reports whether k names a known service kind.
func (k ServiceKind) Valid() bool {
	return k == ServiceStandard || k == ServicePremium
}

// CreditBalance holds the two non-negative credit counters of a tenant.
type CreditBalance struct {
	StandardService int `json:"standard_service"`
	PremiumService  int `json:"premium_service"`
}

// CompanyProfile is the singleton per-tenant company document.
type CompanyProfile struct {
	ID        string `json:"id"`
	TenantKey string `json:"user_id"`

	Name            string `json:"company_name"`
	Website         string `json:"website,omitempty"`
	Phone           string `json:"phone,omitempty"`
	AddressLine1    string `json:"address_line1,omitempty"`
	AddressLine2    string `json:"address_line2,omitempty"`
	City            string `json:"city,omitempty"`
	Country         string `json:"country,omitempty"`
	WorkingHours    string `json:"working_hours,omitempty"`
	WorkingDays     string `json:"working_days,omitempty"`
	WorkArrangement string `json:"work_arrangement,omitempty"`

	Credits CreditBalance `json:"credits"`

	// Revision is the document-store revision token of the loaded copy.
	// Zero means the profile has never been persisted.
	Revision int64 `json:"-"`
}

// Credit returns the balance for the given service kind.
func (p *CompanyProfile) Credit(kind ServiceKind) int {
	switch kind {
	case ServiceStandard:
		return p.Credits.StandardService
	case ServicePremium:
		return p.Credits.PremiumService
	}
	return 0
}

// SetCredit sets the balance for the given service kind.
func (p *CompanyProfile) SetCredit(kind ServiceKind, n int) {
	switch kind {
	case ServiceStandard:
		p.Credits.StandardService = n
	case ServicePremium:
		p.Credits.PremiumService = n
	}
}
