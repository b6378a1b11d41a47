// Package merged combines the five per-type captions of a video into one
// comprehensive caption via an LLM call. The prompt template and required
// keys live in a JSON config so prompt edits do not need a rebuild.
package merged

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/camerabench/captionkit/pkg/file"
)

// RequiredKeys are the caption types a merge request must carry.
var RequiredKeys = []string{"subject", "scene", "motion", "spatial", "camera"}

// DefaultPromptTemplate instructs the model to merge without redundancy,
// anchored on the spatial caption. {captions} is replaced with the
// formatted input block.
const DefaultPromptTemplate = `Please merge the following five captions into a single, comprehensive caption that describes the video completely without any redundancy.

Caption Types:
1. Subject: Describes the subjects/people in the video
2. Scene: Describes the scene composition and environment
3. Motion: Describes the movement and dynamics of subjects
4. Spatial: Describes the spatial relationships and framing
5. Camera: Describes camera movements and framing choices

Input Captions:
{captions}

Instructions:
1. Use the SPATIAL caption as your BASE structure - it provides the core visual description and framing
2. Merge MOTION and CAMERA captions into the spatial description to create a temporally coherent narrative that describes how things change over time
3. Add information from SUBJECT and SCENE captions ONLY if they contain unique details not already covered in the Spatial caption
4. Eliminate ALL redundant information - if the same detail appears in multiple captions, mention it only ONCE
5. Preserve the EXACT wording from the original captions - do NOT paraphrase
6. When describing temporal changes, integrate motion and camera movements in chronological order to show how the scene evolves
7. CRITICAL: Every unique detail from all five captions must appear in the final merged caption - nothing should be omitted
8. Do NOT add any information not present in the original captions
9. Return only the merged caption without any additional text or formatting

Goal: A single, temporally coherent caption based on the Spatial description, with Motion and Camera information merged chronologically, and Subject/Scene details added only when they provide new information. Keep as many details as possible but limit to at most 320 words.`

// Config is the persisted merge configuration.
type Config struct {
	PromptTemplate string   `json:"prompt_template"`
	RequiredKeys   []string `json:"required_keys"`
	DefaultModel   string   `json:"default_model,omitempty"`
	Metadata       Metadata `json:"_metadata,omitempty"`
}

type Metadata struct {
	GeneratedAt string `json:"generated_at,omitempty"`
	Description string `json:"description,omitempty"`
}

// DefaultConfig returns the built-in template and key set.
func DefaultConfig() Config {
	return Config{
		PromptTemplate: DefaultPromptTemplate,
		RequiredKeys:   append([]string(nil), RequiredKeys...),
	}
}

// LoadConfig reads a config file, falling back to defaults for missing
// fields. A missing file yields the default config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read merge config %s: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse merge config %s: %w", path, err)
	}
	if config.PromptTemplate == "" {
		config.PromptTemplate = DefaultPromptTemplate
	}
	if len(config.RequiredKeys) == 0 {
		config.RequiredKeys = append([]string(nil), RequiredKeys...)
	}
	return config, nil
}

// SaveConfig writes the config with a generated_at stamp, creating parent
// directories as needed.
func SaveConfig(path string, config Config) error {
	if config.Metadata.GeneratedAt == "" {
		config.Metadata.GeneratedAt = time.Now().Format(time.RFC3339)
	}
	if config.Metadata.Description == "" {
		config.Metadata.Description = "Configuration for merged caption generation API"
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encode merge config: %w", err)
	}
	if err := file.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("write merge config %s: %w", path, err)
	}
	return nil
}

// Result is the outcome of one merge call. Token count is the 0.75
// words-per-token approximation used across the reports.
type Result struct {
	Success       bool   `json:"success"`
	MergedCaption string `json:"merged_caption,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	WordCount     int    `json:"word_count"`
	TokenCount    int    `json:"token_count"`
}

// TextGenerator is the LLM surface the merger needs.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Merger builds prompts from a config and calls the LLM.
type Merger struct {
	client TextGenerator
	config Config
}

func NewMerger(client TextGenerator, config Config) (*Merger, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if config.PromptTemplate == "" {
		config = DefaultConfig()
	}
	return &Merger{client: client, config: config}, nil
}

// Merge combines the five captions. Caption keys are case-insensitive.
// Validation and LLM failures come back as unsuccessful results, not
// errors, so batch callers can keep going.
func (m *Merger) Merge(ctx context.Context, captions map[string]string) Result {
	normalized := make(map[string]string, len(captions))
	for key, value := range captions {
		normalized[strings.ToLower(key)] = value
	}

	var missing []string
	for _, key := range m.config.RequiredKeys {
		if _, ok := normalized[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Result{ErrorMessage: fmt.Sprintf("missing required captions: %s", strings.Join(missing, ", "))}
	}

	prompt := strings.ReplaceAll(m.config.PromptTemplate, "{captions}", FormatCaptions(normalized, m.config.RequiredKeys))

	response, err := m.client.Generate(ctx, prompt)
	if err != nil {
		return Result{ErrorMessage: err.Error()}
	}
	cleaned := CleanResponse(response)
	if cleaned == "" {
		return Result{ErrorMessage: "LLM returned empty response"}
	}

	words := len(strings.Fields(cleaned))
	return Result{
		Success:       true,
		MergedCaption: cleaned,
		WordCount:     words,
		TokenCount:    int(float64(words) / 0.75),
	}
}

// FormatCaptions renders the captions block in required-key order.
func FormatCaptions(captions map[string]string, order []string) string {
	parts := make([]string, 0, len(order))
	for _, key := range order {
		value, ok := captions[key]
		if !ok {
			continue
		}
		parts = append(parts, strings.ToUpper(key[:1])+key[1:]+": "+value)
	}
	return strings.Join(parts, "\n\n")
}

// CleanResponse strips a wrapping markdown code fence, if any.
func CleanResponse(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	lines := strings.Split(response, "\n")
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
