package llm

// Generation parameters sent with every completion request.
// They are fixed for the lifetime of the process.
const (
	DefaultModel       = "llama3-70b-8192"
	DefaultTemperature = 0.6
	DefaultMaxTokens   = 1000
)

// Options contains model inference parameters.
type Options struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"` // Creativity (0.0-2.0)
	MaxTokens   int     `json:"max_tokens"`  // Max tokens to generate
}

// DefaultOptions returns the fixed generation parameters.
func DefaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}
