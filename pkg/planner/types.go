package planner

import (
	"time"

	"copycat-api/pkg/actionplan"
	"copycat-api/pkg/llm"
	"copycat-api/pkg/session"
)

// SelectOption is one entry of a select element.
type SelectOption struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
	ID       string `json:"id"`
}

// Element is an interactive control captured from the page.
type Element struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"` // text_input | clickable | select
	TagName       string         `json:"tagName"`
	InputType     string         `json:"inputType"`
	Placeholder   string         `json:"placeholder"`
	Name          string         `json:"name"`
	Label         string         `json:"label"`
	Text          string         `json:"text"`
	Value         string         `json:"value"`
	CurrentValue  string         `json:"currentValue"`
	Options       []SelectOption `json:"options"`
	Checked       bool           `json:"checked"`
	Disabled      bool           `json:"disabled"`
	IsCodeEditor  bool           `json:"isCodeEditor"`
	SelectedValue string         `json:"selectedValue"`
}

// PageSnapshot is everything the client captured from one page.
type PageSnapshot struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Domain   string    `json:"domain"`
	Content  string    `json:"pageContent"`
	Elements []Element `json:"interactiveElements"`
	// Timestamp is the capture time in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// CapturedAt converts Timestamp, falling back to now when unset.
func (p *PageSnapshot) CapturedAt() time.Time {
	if p == nil || p.Timestamp <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(p.Timestamp).UTC()
}

// Source says where a completion came from.
type Source string

const (
	SourceModel  Source = "model"
	SourceIngest Source = "ingest"
)

// Result is the outcome of one planning run. It is returned alongside
// ErrNoPlan and ErrEmptyPlan so callers can inspect what the model said.
type Result struct {
	RunID        string
	Source       Source
	Session      *session.Session
	Kept         *actionplan.Plan
	Dropped      []actionplan.Action
	Method       actionplan.Method
	Raw          string
	Model        string
	PromptDigest string
	Usage        llm.Usage
	Duration     time.Duration
}
