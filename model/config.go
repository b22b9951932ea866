package model

// ProcessConfig controls extraction and persistence of articles.
type ProcessConfig struct {
	// Add Concept entities from open relation subjects and objects.
	EnableConcepts bool `json:"enable_concepts"`
	// Collect multi-word noun phrases as key phrases.
	EnableKeyPhrases bool `json:"enable_key_phrases"`
	// Maximum number of articles processed concurrently in batches.
	BatchLimit int `json:"batch_limit"`
	// Default number of related articles returned.
	RelatedLimit int `json:"related_limit"`
}

// DefaultProcessConfig returns the default configuration
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		EnableConcepts:   true,
		EnableKeyPhrases: true,
		BatchLimit:       4,
		RelatedLimit:     10,
	}
}
