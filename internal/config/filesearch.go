package config

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FileSearchConfig recognizes the options the file-search interception
// gateway reads: whether interception is enabled, the per-search
// deadline, the iteration budget, per-search result caps, and the
// model-facing content budget.
type FileSearchConfig struct {
	Enabled              bool
	TimeoutSecs          uint
	MaxIterations        uint
	MaxResultsPerSearch  uint
	ScoreThreshold       float64
	MaxSearchResultChars uint
}

// LoadFileSearchConfig reads FileSearchConfig from the environment using
// the same getEnv-with-default idiom as Load().
func LoadFileSearchConfig() *FileSearchConfig {
	return &FileSearchConfig{
		Enabled:              getEnv("FILE_SEARCH_ENABLED", "true") == "true",
		TimeoutSecs:          getEnvUint("FILE_SEARCH_TIMEOUT_SECS", 30),
		MaxIterations:        getEnvUint("FILE_SEARCH_MAX_ITERATIONS", 5),
		MaxResultsPerSearch:  getEnvUint("FILE_SEARCH_MAX_RESULTS_PER_SEARCH", 10),
		ScoreThreshold:       getEnvFloat("FILE_SEARCH_SCORE_THRESHOLD", 0.0),
		MaxSearchResultChars: getEnvUint("FILE_SEARCH_MAX_RESULT_CHARS", 8000),
	}
}

// Validate enforces the numeric ranges the gateway's design requires.
func (c *FileSearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ScoreThreshold, validation.Min(0.0), validation.Max(1.0)),
	)
}

func getEnvUint(key string, defaultValue uint) uint {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return defaultValue
	}
	return uint(v)
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}
