// Package generators turns creative briefs into structured game content.
// Model output is free text, so every generator leans on a best-effort
// labeled-section parser with synthesized defaults: malformed or partial
// output degrades to defaults, it never aborts a pipeline.
package generators

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titler = cases.Title(language.English)

// Sections maps an uppercase label to the text found under it.
type Sections map[string]string

// ParseLabeled scans text for lines beginning with one of the given labels
// followed by a colon (e.g. "GEOGRAPHY: rolling hills") and returns the text
// under each label, ending at the next recognized label. Markdown bullets
// and bold markers around labels are tolerated. Labels that never appear are
// simply absent from the result.
func ParseLabeled(text string, labels ...string) Sections {
	if len(labels) == 0 || text == "" {
		return Sections{}
	}
	alternation := make([]string, 0, len(labels))
	for _, l := range labels {
		alternation = append(alternation, regexp.QuoteMeta(l))
	}
	re := regexp.MustCompile(`(?im)^[\s#*\->]*(` + strings.Join(alternation, "|") + `)\s*:[ \t]*`)

	matches := re.FindAllStringSubmatchIndex(text, -1)
	out := make(Sections, len(matches))
	for i, m := range matches {
		label := strings.ToUpper(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])
		body = strings.TrimSpace(strings.Trim(body, "*_"))
		if _, seen := out[label]; !seen && body != "" {
			out[label] = body
		}
	}
	return out
}

// Get returns the section for label, or fallback when the section is missing
// or empty.
func (s Sections) Get(label, fallback string) string {
	if v, ok := s[strings.ToUpper(label)]; ok && v != "" {
		return v
	}
	return fallback
}

// FirstLine trims a section down to its first line, for fields that should
// be a short phrase rather than a paragraph.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// SplitList breaks a section into items, accepting newline-, semicolon- or
// comma-separated lists with optional bullets and numbering.
func SplitList(s string) []string {
	sep := "\n"
	if !strings.Contains(s, "\n") {
		if strings.Contains(s, ";") {
			sep = ";"
		} else {
			sep = ","
		}
	}
	var items []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		part = strings.TrimLeft(part, "-*•0123456789.) \t")
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

// labelStartRe matches a single label at line start, with the same tolerance
// for bullets and markdown markers as ParseLabeled.
func labelStartRe(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[\s#*\->]*` + regexp.QuoteMeta(label) + `\s*:`)
}

var codeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9+#-]*\\n?(.*?)```")

// ExtractCode pulls the first fenced code block out of model output. When no
// fence is present the whole trimmed text is treated as code, since code
// models frequently answer with bare source.
func ExtractCode(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// SynthesizedTitle builds a deterministic human-readable title from a prompt
// for use when the model did not supply one.
func SynthesizedTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return "Untitled Project"
	}
	return titler.String(strings.Join(words, " "))
}
