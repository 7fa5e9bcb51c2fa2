package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	providerx "github.com/tanpawarit/record-agent/pkg/provider"
)

type Config struct {
	BaseURL          string        `envconfig:"BASE_URL" split_words:"true" default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	APIKey           string        `envconfig:"API_KEY" split_words:"true"`
	Model            string        `envconfig:"MODEL" split_words:"true" default:"gemini-2.5-flash"`
	MaxTokens        int           `envconfig:"MAX_TOKENS" split_words:"true" default:"1000"`
	Temperature      float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout          time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	ExcludeReasoning bool          `envconfig:"EXCLUDE_REASONING" split_words:"true" default:"false"`
	VerifyOnStart    bool          `envconfig:"VERIFY_ON_START" split_words:"true" default:"false"`

	InterpreterModel       string  `envconfig:"INTERPRETER_MODEL" split_words:"true"`
	SummarizerModel        string  `envconfig:"SUMMARIZER_MODEL" split_words:"true"`
	InterpreterTemperature float32 `envconfig:"INTERPRETER_TEMPERATURE" split_words:"true" default:"-1"`
	SummarizerTemperature  float32 `envconfig:"SUMMARIZER_TEMPERATURE" split_words:"true" default:"-1"`
}

// Enabled reports whether a language model is configured at all. Without
// one the record API still runs and the chat route reports unavailable.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive", contractx.ErrValidation)
	}
	return nil
}

func (c Config) ProviderFor(role contractx.Role) providerx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case contractx.RoleInterpreter:
		if v := strings.TrimSpace(c.InterpreterModel); v != "" {
			modelName = v
		}
		if c.InterpreterTemperature >= 0 {
			temp = c.InterpreterTemperature
		}
	case contractx.RoleSummarizer:
		if v := strings.TrimSpace(c.SummarizerModel); v != "" {
			modelName = v
		}
		if c.SummarizerTemperature >= 0 {
			temp = c.SummarizerTemperature
		}
	}

	maxTokens := c.MaxTokens
	return providerx.Config{
		BaseURL:          strings.TrimSpace(c.BaseURL),
		APIKey:           strings.TrimSpace(c.APIKey),
		Model:            modelName,
		MaxTokens:        &maxTokens,
		Temperature:      temp,
		Timeout:          c.Timeout,
		ExcludeReasoning: c.ExcludeReasoning,
	}
}
