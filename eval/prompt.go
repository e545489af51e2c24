package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Template family names, selected by the leading digit of a portrait id.
const (
	FamilyReddit   = "reddit"
	FamilyShareGPT = "sharegpt"
)

// PromptTemplates holds the two template families for one prompt version.
type PromptTemplates struct {
	Reddit   string
	ShareGPT string
}

// LoadPromptTemplates reads the templates for one prompt version from
// <promptDir>/<version>/{reddit,sharegpt}_prompt.txt. A load failure is
// fatal for the whole (provider, model, version) combination.
func LoadPromptTemplates(promptDir, version string) (*PromptTemplates, error) {
	versionDir := filepath.Join(promptDir, version)

	reddit, err := os.ReadFile(filepath.Join(versionDir, "reddit_prompt.txt"))
	if err != nil {
		return nil, fmt.Errorf("reading reddit prompt for version %s: %w", version, err)
	}
	sharegpt, err := os.ReadFile(filepath.Join(versionDir, "sharegpt_prompt.txt"))
	if err != nil {
		return nil, fmt.Errorf("reading sharegpt prompt for version %s: %w", version, err)
	}

	return &PromptTemplates{
		Reddit:   string(reddit),
		ShareGPT: string(sharegpt),
	}, nil
}

// RoutingError reports a portrait id whose leading digit selects no
// template family. It is fatal for that entry, never retried.
type RoutingError struct {
	PortraitID int
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("unexpected portrait_id prefix: %d", e.PortraitID)
}

// ForPortrait selects the template family by the portrait id's leading
// digit: 1-2 routes to reddit, 3-4 to sharegpt.
func (t *PromptTemplates) ForPortrait(portraitID int) (template, family string, err error) {
	s := strconv.Itoa(portraitID)
	switch s[0] {
	case '1', '2':
		return t.Reddit, FamilyReddit, nil
	case '3', '4':
		return t.ShareGPT, FamilyShareGPT, nil
	default:
		return "", "", &RoutingError{PortraitID: portraitID}
	}
}

// BuildPrompt substitutes the entry and output text into a template. The
// reddit family additionally carries the entry title.
func BuildPrompt(template, family string, entry *Entry, outputContent string) string {
	prompt := template
	if family == FamilyReddit {
		prompt = strings.ReplaceAll(prompt, "{title}", entry.Content.Title)
	}
	prompt = strings.ReplaceAll(prompt, "{text}", entry.Content.Text)
	prompt = strings.ReplaceAll(prompt, "{content}", outputContent)
	return prompt
}

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

// EstimateTokens approximates the token count of a prompt with the
// cl100k_base encoding. Returns 0 when the encoding is unavailable; the
// estimate is advisory, used only to warn about oversized prompts.
func EstimateTokens(prompt string) int {
	tokenizerOnce.Do(func() {
		tokenizer, _ = tiktoken.GetEncoding("cl100k_base")
	})
	if tokenizer == nil {
		return 0
	}
	return len(tokenizer.Encode(prompt, nil, nil))
}
