package report

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/camerabench/captionkit/internal/hierarchy"
)

// LatexOptions shapes the generated tables. Exclusion sets drop whole
// aspects or individual primitives (by filename) without touching the
// taxonomy on disk.
type LatexOptions struct {
	ExcludedAspects    map[string]bool
	ExcludedPrimitives map[string]bool
	// Display-name overrides keyed by primitive filename. Anything not
	// listed falls back to CleanTaskName.
	DisplayNames map[string]string
	// Full-sentence aspect descriptions keyed by aspect.
	AspectDescriptions map[string]string
	CollectionNames    map[string]string
	// Two-column definition-only layout instead of question + description.
	DefinitionOnly bool
}

// DefaultCollectionNames maps the label tree folders to paper headings.
var DefaultCollectionNames = map[string]string{
	"cam_motion": "Camera Motion",
	"cam_setup":  "Camera Setup",
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// EscapeLatex escapes LaTeX special characters. The replacer handles the
// backslash first so escapes are not re-escaped.
func EscapeLatex(text string) string {
	return latexReplacer.Replace(text)
}

var taskNamePrefix = regexp.MustCompile(`^(is_|has_|only_)`)
var taskNameJoin = regexp.MustCompile(`(_vs_|_or_)`)

// CleanTaskName turns a primitive filename into a display name, e.g.
// "has_pan_left" becomes "Pan Left".
func CleanTaskName(name string) string {
	name = taskNamePrefix.ReplaceAllString(name, "")
	name = taskNameJoin.ReplaceAllString(name, " vs. ")
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}

func (o *LatexOptions) displayName(primitive string) string {
	if name, ok := o.DisplayNames[primitive]; ok {
		return name
	}
	return CleanTaskName(primitive)
}

func (o *LatexOptions) collectionName(collection string) string {
	if name, ok := o.CollectionNames[collection]; ok {
		return name
	}
	if name, ok := DefaultCollectionNames[collection]; ok {
		return name
	}
	return CleanTaskName(collection)
}

func (o *LatexOptions) filterAspect(aspect string, entries []hierarchy.Entry) []hierarchy.Entry {
	if o.ExcludedAspects[aspect] {
		return nil
	}
	kept := make([]hierarchy.Entry, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry.FullKey, ".")
		if o.ExcludedPrimitives[parts[len(parts)-1]] {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func primitiveFilename(fullKey string) string {
	parts := strings.Split(fullKey, ".")
	return parts[len(parts)-1]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// OverviewTable generates the per-collection aspect overview table.
func OverviewTable(collection string, aspects map[string][]hierarchy.Entry, opts LatexOptions) string {
	total := 0
	type keptAspect struct {
		key     string
		entries []hierarchy.Entry
	}
	var kept []keptAspect
	for _, aspect := range sortedKeys(aspects) {
		entries := opts.filterAspect(aspect, aspects[aspect])
		if len(entries) == 0 {
			continue
		}
		kept = append(kept, keptAspect{aspect, entries})
		total += len(entries)
	}

	name := EscapeLatex(opts.collectionName(collection))
	var lines []string
	lines = append(lines,
		`\begin{table*}[h!]`,
		`\centering`,
		fmt.Sprintf(`\caption{\small \textbf{%s Primitives Overview.} All primitive aspects in %s (%d primitives in total).}`, name, name, total),
		`\scalebox{0.7}{`,
		`\begin{NiceTabular}{l M{0.3\linewidth} M{0.6\linewidth}}`,
		`\CodeBefore`,
		`    \Body`,
		`\toprule[1.2pt]`,
		`\textbf{Aspect} & \textbf{Description} & \textbf{Primitives} \\`,
		`\midrule`,
	)

	for i, aspect := range kept {
		if i > 0 {
			lines = append(lines, `\midrule`)
		}
		display := CleanTaskName(aspect.key)
		description := opts.AspectDescriptions[aspect.key]
		if description == "" {
			description = display
		}

		names := make([]string, len(aspect.entries))
		for j, entry := range aspect.entries {
			names[j] = opts.displayName(primitiveFilename(entry.FullKey))
		}

		lines = append(lines,
			fmt.Sprintf(`\textbf{%s} `, EscapeLatex(display)),
			fmt.Sprintf(`& %s `, EscapeLatex(description)),
			fmt.Sprintf(`& %s. (%d Primitives in \autoref{tab:primitives_%s}) \\`,
				EscapeLatex(strings.Join(names, ", ")), len(aspect.entries), aspect.key),
		)
	}

	lines = append(lines,
		`\bottomrule[1.2pt]`,
		`\end{NiceTabular}`,
		`}`,
		fmt.Sprintf(`\label{tab:primitives_overview_%s}`, collection),
		`\end{table*}`,
	)
	return strings.Join(lines, "\n")
}

// DetailTable generates the per-aspect primitive table.
func DetailTable(aspect string, entries []hierarchy.Entry, opts LatexOptions) string {
	display := EscapeLatex(CleanTaskName(aspect))
	var lines []string
	lines = append(lines,
		`\begin{table*}[h!]`,
		`\centering`,
		fmt.Sprintf(`\caption{\small \textbf{%s Primitives}}`, display),
		`\scalebox{0.7}{`,
	)
	if opts.DefinitionOnly {
		lines = append(lines,
			`\begin{NiceTabular}{l M{0.9\linewidth}}`,
			`\CodeBefore`,
			`    \Body`,
			`\toprule[1.2pt]`,
			`\textbf{Primitive} & \textbf{Description} \\`,
		)
	} else {
		lines = append(lines,
			`\begin{NiceTabular}{l M{0.45\linewidth} M{0.45\linewidth}}`,
			`\CodeBefore`,
			`    \Body`,
			`\toprule[1.2pt]`,
			`\textbf{Primitive} & \textbf{Question} & \textbf{Description} \\`,
		)
	}
	lines = append(lines, `\midrule`)

	for i, entry := range entries {
		if i > 0 {
			lines = append(lines, `\midrule`)
		}
		name := EscapeLatex(opts.displayName(primitiveFilename(entry.FullKey)))
		if opts.DefinitionOnly {
			lines = append(lines,
				fmt.Sprintf(`\textbf{%s} `, name),
				fmt.Sprintf(`& %s \\`, EscapeLatex(entry.DefPrompt)),
			)
		} else {
			lines = append(lines,
				fmt.Sprintf(`\textbf{%s} `, name),
				fmt.Sprintf(`& %s `, EscapeLatex(entry.DefQuestion)),
				fmt.Sprintf(`& %s \\`, EscapeLatex(entry.DefPrompt)),
			)
		}
	}

	lines = append(lines,
		`\bottomrule[1.2pt]`,
		`\end{NiceTabular}`,
		`}`,
		fmt.Sprintf(`\label{tab:primitives_%s}`, aspect),
		`\end{table*}`,
	)
	return strings.Join(lines, "\n")
}

// WriteLatexHTML renders every overview and detail table into one static
// HTML page with copy buttons, ready to paste into the paper.
func WriteLatexHTML(w io.Writer, h hierarchy.Hierarchy, opts LatexOptions) error {
	b := &strings.Builder{}
	b.WriteString(latexPageHeader)

	tableID := 0
	writeTable := func(title, latex string) {
		tableID++
		fmt.Fprintf(b, "<div class=\"table-container\">\n<h3>%s</h3>\n", html.EscapeString(title))
		fmt.Fprintf(b, "<button class=\"copy-button\" onclick=\"copyTable('latex-%d', this)\">📋 Copy LaTeX</button>\n", tableID)
		fmt.Fprintf(b, "<pre id=\"latex-%d\"><code>%s</code></pre>\n</div>\n", tableID, html.EscapeString(latex))
	}

	for _, collection := range sortedKeys(h) {
		aspects := h[collection]
		fmt.Fprintf(b, "<h2>%s</h2>\n", html.EscapeString(opts.collectionName(collection)))
		writeTable(opts.collectionName(collection)+" Overview", OverviewTable(collection, aspects, opts))

		for _, aspect := range sortedKeys(aspects) {
			entries := opts.filterAspect(aspect, aspects[aspect])
			if len(entries) == 0 {
				continue
			}
			writeTable(CleanTaskName(aspect)+" Primitives", DetailTable(aspect, entries, opts))
		}
	}

	b.WriteString(latexPageFooter)
	_, err := io.WriteString(w, b.String())
	return err
}

const latexPageHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Taxonomy LaTeX Tables</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 1400px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
h1 { color: #333; border-bottom: 3px solid #007bff; padding-bottom: 10px; }
h2 { color: #555; margin-top: 40px; border-bottom: 2px solid #6c757d; padding-bottom: 8px; }
h3 { color: #666; margin-top: 30px; }
.table-container { background: white; border-radius: 8px; padding: 20px; margin: 20px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
.copy-button { background: #007bff; color: white; border: none; padding: 8px 16px; border-radius: 4px; cursor: pointer; font-size: 14px; margin-bottom: 10px; }
.copy-button.copied { background: #28a745; }
pre { background: #f8f9fa; border: 1px solid #dee2e6; border-radius: 4px; padding: 15px; overflow-x: auto; font-size: 13px; line-height: 1.5; }
code { font-family: 'Courier New', Courier, monospace; }
</style>
</head>
<body>
<h1>Taxonomy LaTeX Tables</h1>
`

const latexPageFooter = `<script>
function copyTable(id, button) {
  const text = document.getElementById(id).innerText;
  navigator.clipboard.writeText(text).then(() => {
    button.classList.add('copied');
    button.textContent = '✅ Copied!';
    setTimeout(() => {
      button.classList.remove('copied');
      button.textContent = '📋 Copy LaTeX';
    }, 2000);
  });
}
</script>
</body>
</html>
`
