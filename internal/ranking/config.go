// Package ranking reorders retrieval candidates and scores answer confidence.
package ranking

// Weights are the coefficients of the confidence combination. They sum to one.
type Weights struct {
	Similarity float64 `koanf:"similarity"`
	Citations  float64 `koanf:"citations"`
	WellFormed float64 `koanf:"well_formed"`
}

// Config holds the tuned ranking constants.
type Config struct {
	SectionWeights map[string]float64 `koanf:"section_weights"`
	DefaultWeight  float64            `koanf:"default_weight"`
	KeywordBoost   float64            `koanf:"keyword_boost"`
	// ConfidenceTopN is how many leading similarities feed the confidence mean.
	ConfidenceTopN int `koanf:"confidence_top_n"`
	// CitationCap is the citation count at which the citation term saturates.
	CitationCap int     `koanf:"citation_cap"`
	Weights     Weights `koanf:"weights"`
}

// DefaultConfig returns the empirically tuned defaults.
func DefaultConfig() Config {
	return Config{
		SectionWeights: map[string]float64{
			"abstract":     1.2,
			"results":      1.15,
			"conclusions":  1.1,
			"discussion":   1.05,
			"methodology":  1.0,
			"introduction": 1.0,
			"related work": 0.9,
			"preamble":     0.9,
			"unknown":      0.85,
			"references":   0.5,
		},
		DefaultWeight:  1.0,
		KeywordBoost:   1.15,
		ConfidenceTopN: 3,
		CitationCap:    3,
		Weights: Weights{
			Similarity: 0.4,
			Citations:  0.3,
			WellFormed: 0.3,
		},
	}
}

// SectionWeight returns the importance multiplier for a section.
func (c Config) SectionWeight(section string) float64 {
	if w, ok := c.SectionWeights[section]; ok {
		return w
	}
	return c.DefaultWeight
}
