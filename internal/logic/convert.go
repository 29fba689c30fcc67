package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"copycat-api/internal/types"
	"copycat-api/pkg/actionplan"
	plannerpkg "copycat-api/pkg/planner"
	"copycat-api/pkg/session"
)

var (
	// ErrInvalidRequest marks malformed or incomplete requests.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream marks failures of the model provider.
	ErrUpstream = errors.New("model provider error")
)

// PlanFailure carries the run details of a completion that produced no usable plan.
type PlanFailure struct {
	Err    error
	Result *plannerpkg.Result
}

func (e *PlanFailure) Error() string { return e.Err.Error() }
func (e *PlanFailure) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func requireSessionID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("session id is required")
	}
	return id, nil
}

// planError converts planner errors into the errors the HTTP layer maps.
func planError(res *plannerpkg.Result, err error) error {
	switch {
	case errors.Is(err, plannerpkg.ErrNoPlan), errors.Is(err, plannerpkg.ErrEmptyPlan):
		return &PlanFailure{Err: err, Result: res}
	case errors.Is(err, plannerpkg.ErrModelCall):
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	default:
		return err
	}
}

func toActionItems(actions []actionplan.Action) []types.ActionItem {
	out := make([]types.ActionItem, 0, len(actions))
	for _, a := range actions {
		out = append(out, types.ActionItem{ElementID: a.ElementID, Action: string(a.Action), Value: a.Value})
	}
	return out
}

func toPlanResponse(sessionID string, res *plannerpkg.Result) *types.PlanResponse {
	var kept []actionplan.Action
	if res.Kept != nil {
		kept = res.Kept.Actions
	}
	return &types.PlanResponse{
		RunID:     res.RunID,
		SessionID: sessionID,
		Source:    string(res.Source),
		Model:     res.Model,
		Method:    string(res.Method),
		Actions:   toActionItems(kept),
		Dropped:   toActionItems(res.Dropped),
		Usage: types.UsageInfo{
			PromptTokens:     res.Usage.PromptTokens,
			CompletionTokens: res.Usage.CompletionTokens,
			TotalTokens:      res.Usage.TotalTokens,
		},
		DurationMs: res.Duration.Milliseconds(),
	}
}

func toSessionResponse(s *session.Session) *types.SessionResponse {
	var actions []actionplan.Action
	if s.Plan != nil {
		actions = s.Plan.Actions
	}
	return &types.SessionResponse{
		ID:           s.ID,
		Model:        s.Model,
		Method:       string(s.Method),
		PromptDigest: s.PromptDigest,
		CapturedAt:   s.CapturedAt.UTC().Format(time.RFC3339),
		Actions:      toActionItems(actions),
		Pending:      toActionItems(s.Pending()),
		Cursor:       s.Cursor,
		Paused:       s.Paused,
		Done:         s.Done(),
	}
}

func toPageSnapshot(req *types.PlanRequest) *plannerpkg.PageSnapshot {
	page := &plannerpkg.PageSnapshot{
		URL:       req.URL,
		Title:     req.Title,
		Domain:    req.Domain,
		Content:   req.PageContent,
		Timestamp: req.Timestamp,
		Elements:  make([]plannerpkg.Element, 0, len(req.Elements)),
	}
	for _, el := range req.Elements {
		item := plannerpkg.Element{
			ID:            el.ID,
			Type:          el.Type,
			TagName:       el.TagName,
			InputType:     el.InputType,
			Placeholder:   el.Placeholder,
			Name:          el.Name,
			Label:         el.Label,
			Text:          el.Text,
			Value:         el.Value,
			CurrentValue:  el.CurrentValue,
			Checked:       el.Checked,
			Disabled:      el.Disabled,
			IsCodeEditor:  el.IsCodeEditor,
			SelectedValue: el.SelectedValue,
		}
		if el.Options != nil {
			item.Options = make([]plannerpkg.SelectOption, 0, len(el.Options))
			for _, o := range el.Options {
				item.Options = append(item.Options, plannerpkg.SelectOption{Value: o.Value, Text: o.Text, Selected: o.Selected, ID: o.ID})
			}
		}
		page.Elements = append(page.Elements, item)
	}
	return page
}
