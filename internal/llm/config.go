// Package llm - config.go holds the tier-to-model mapping for generation
// calls. Tiers let each call site pay for only as much model capability as
// its output needs.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short, low-stakes output: email bodies, summaries
	TierLite ModelTier = "lite"
	// TierStandard is for structured output: match assessments
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form writing: cover letters
	TierAdvanced ModelTier = "advanced"
)

// Config maps model tiers to concrete Gemini model names.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a given tier. An unconfigured tier
// falls back to standard, then lite; "" means nothing is configured at all.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
