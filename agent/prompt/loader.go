package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/interpreter.txt
	interpreterRaw string

	//go:embed template/summarizer.txt
	summarizerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Interpreter string
	Summarizer  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Interpreter: strings.TrimSpace(interpreterRaw),
		Summarizer:  strings.TrimSpace(summarizerRaw),
	}
}
