package ai

// ProviderConfig holds the configuration needed to create a completer.
type ProviderConfig struct {
	Provider  string // "openai" | "anthropic" | "gemini"
	APIKey    string
	Model     string
	BaseURL   string // OpenAI-compatible endpoint; empty means api.openai.com
	MaxTokens int
}

// Verdict is the classifier's judgement of one feed item. Only Relevant is
// guaranteed; the text fields are filled when Relevant is true.
type Verdict struct {
	Relevant                  bool   `json:"is_relevant"`
	TranslatedTitle           string `json:"title_zh"`
	Summary                   string `json:"summary"`
	TranslatedSummary         string `json:"summary_zh"`
	Category                  string `json:"category"`
	InspirationText           string `json:"inspiration"`
	TranslatedInspirationText string `json:"inspiration_zh"`
}
