// Package llm provides the text-generation client abstraction and its
// provider configuration.
package llm

// ModelTier selects the model quality level. Tiers map one-to-one onto the
// purchasable services: the standard service uses the fast model, the
// premium service the strong one.
type ModelTier string

// Model tiers.
const (
	TierStandard ModelTier = "standard"
	TierPremium  ModelTier = "premium"
)

// Provider identifies an LLM provider.
type Provider string

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
)

// Config holds the provider and per-tier model names.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierStandard: "gemini-2.5-flash",
			TierPremium:  "gemini-2.5-pro",
		},
	}
}

// Model returns the model name for a tier, falling back to the standard
// tier when the requested one is not configured.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierStandard]
}
