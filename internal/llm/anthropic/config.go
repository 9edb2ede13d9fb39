package anthropic

import "time"

// Config holds the Anthropic extractor settings.
type Config struct {
	Model     string
	APIKey    string
	MaxTokens int64
	Timeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "claude-haiku-4-5"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2048
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	return c
}
