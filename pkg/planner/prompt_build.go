package planner

import (
	"fmt"
	"strings"

	"copycat-api/pkg/prompt"
)

// PromptInputs is the data injected into the user prompt template.
type PromptInputs struct {
	Title    string
	URL      string
	Domain   string
	Content  string
	Elements string
	Actions  []string
	// Omitted counts elements dropped by the max_elements cap.
	Omitted int
}

func buildPromptInputs(cfg *Config, page *PageSnapshot) PromptInputs {
	elements := page.Elements
	omitted := 0
	if cfg.MaxElements > 0 && len(elements) > cfg.MaxElements {
		omitted = len(elements) - cfg.MaxElements
		elements = elements[:cfg.MaxElements]
	}
	return PromptInputs{
		Title:    page.Title,
		URL:      page.URL,
		Domain:   page.Domain,
		Content:  prompt.Truncate(cfg.MaxContentChars, page.Content),
		Elements: formatElements(elements),
		Actions:  cfg.AllowedActions,
		Omitted:  omitted,
	}
}

func formatElements(elements []Element) string {
	lines := make([]string, 0, len(elements))
	for i, el := range elements {
		lines = append(lines, formatElement(i, el))
	}
	return strings.Join(lines, "\n")
}

func formatElement(i int, el Element) string {
	text := el.Text
	if text == "" {
		text = el.Value
	}
	var b strings.Builder
	fmt.Fprintf(&b, `%d. ID: "%s" | Type: %s | Tag: %s | Label: "%s" | Text: "%s" | Placeholder: "%s"`,
		i+1, el.ID, el.Type, el.TagName, el.Label, text, el.Placeholder)
	if el.Options != nil {
		quoted := make([]string, 0, len(el.Options))
		for _, o := range el.Options {
			quoted = append(quoted, `"`+o.Text+`"`)
		}
		fmt.Fprintf(&b, " | Options: [%s]", strings.Join(quoted, ", "))
	}
	if el.InputType != "" {
		fmt.Fprintf(&b, " | InputType: %s", el.InputType)
	}
	if el.IsCodeEditor {
		b.WriteString(" | CodeEditor: true")
	}
	return b.String()
}
