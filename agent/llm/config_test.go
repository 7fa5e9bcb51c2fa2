package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
)

func baseConfig() Config {
	return Config{
		BaseURL:                " https://example.test/v1/ ",
		APIKey:                 " key ",
		Model:                  "gemini-2.5-flash",
		MaxTokens:              1000,
		Temperature:            0.7,
		InterpreterTemperature: -1,
		SummarizerTemperature:  -1,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := baseConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	noKey := baseConfig()
	noKey.APIKey = "  "
	if err := noKey.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("missing key error = %v", err)
	}
	if noKey.Enabled() {
		t.Fatal("config without key reports enabled")
	}

	noTokens := baseConfig()
	noTokens.MaxTokens = 0
	if err := noTokens.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("zero max tokens error = %v", err)
	}
}

func TestProviderForAppliesRoleOverrides(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.SummarizerModel = "gemini-2.5-flash-lite"
	cfg.InterpreterTemperature = 0

	interp := cfg.ProviderFor(contractx.RoleInterpreter)
	if interp.Model != "gemini-2.5-flash" || interp.Temperature != 0 {
		t.Fatalf("interpreter provider = %+v", interp)
	}
	if interp.APIKey != "key" || interp.BaseURL != "https://example.test/v1/" {
		t.Fatalf("interpreter provider endpoint = %q %q", interp.BaseURL, interp.APIKey)
	}
	if interp.MaxTokens == nil || *interp.MaxTokens != 1000 {
		t.Fatalf("max tokens = %v", interp.MaxTokens)
	}

	summ := cfg.ProviderFor(contractx.RoleSummarizer)
	if summ.Model != "gemini-2.5-flash-lite" || summ.Temperature != 0.7 {
		t.Fatalf("summarizer provider = %+v", summ)
	}
}
