package types

// IdentityClaims is the subset of identity-provider token claims the
// application consumes. The provider handles the authorization-code flow;
// the API only ever sees the resulting claims.
type IdentityClaims struct {
	// Subject is the stable account identifier issued by the provider.
	Subject string `json:"sub"`
	// Name is an optional display name.
	Name string `json:"name,omitempty"`
	// Email is an optional verified email address.
	Email string `json:"email,omitempty"`
	// CompanyHint is an optional company-name hint from the provider.
	CompanyHint string `json:"company,omitempty"`
}
