package analyze

import (
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageCount is one detected language with its share of the corpus.
type LanguageCount struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LanguageMix detects the language of each text and aggregates counts.
// Blank texts are skipped. Results are sorted by count descending, then by
// code for stable output.
func LanguageMix(texts []string) []LanguageCount {
	counts := make(map[string]int)
	total := 0
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		code := whatlanggo.DetectLang(text).Iso6391()
		if code == "" {
			code = "und"
		}
		counts[code]++
		total++
	}

	mix := make([]LanguageCount, 0, len(counts))
	for code, count := range counts {
		mix = append(mix, LanguageCount{
			Code:       code,
			Name:       languageName(code),
			Count:      count,
			Percentage: percent(count, total),
		})
	}
	sort.Slice(mix, func(i, j int) bool {
		if mix[i].Count != mix[j].Count {
			return mix[i].Count > mix[j].Count
		}
		return mix[i].Code < mix[j].Code
	})
	return mix
}

func languageName(code string) string {
	tag := language.All.Make(code)
	if tag == language.Und {
		return "Unknown"
	}
	return display.English.Tags().Name(tag)
}
