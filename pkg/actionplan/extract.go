package actionplan

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	thinkBlockPattern   = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkInversePattern = regexp.MustCompile(`(?is)</think>.*?<think>`)

	fencedBlockPattern = regexp.MustCompile("(?is)```\\s*(?:json)?\\s*(.*?)\\s*```")
	bareFencePattern   = regexp.MustCompile("```[^`]*```")

	// objectPatterns run from strict to permissive.
	objectPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\{\s*"actions"\s*:\s*\[[^\]]*\][^}]*\}`),
		regexp.MustCompile(`\{[^{}]*"actions"\s*:\s*\[[^\]]*(?:\{[^}]*\}[^\]]*)*\][^}]*\}`),
		regexp.MustCompile(`(?s)\{.*\}`),
	}

	actionsArrayPattern = regexp.MustCompile(`"actions"\s*:\s*(\[[^\]]*(?:\{[^}]*\}[^\]]*)*\])`)

	elementIDFieldPattern = regexp.MustCompile(`"elementId"\s*:\s*"([^"]*)"`)
	actionFieldPattern    = regexp.MustCompile(`"action"\s*:\s*"([^"]*)"`)
	valueFieldPattern     = regexp.MustCompile(`"value"\s*:\s*"([^"]*)"`)

	wordLinePattern = regexp.MustCompile(`(?m)^\s*\w+.*?\n`)
)

type step struct {
	method Method
	run    func(string) (*Plan, bool)
}

var chain = []step{
	{MethodFenced, fromFencedBlock},
	{MethodPattern, fromObjectPatterns},
	{MethodBraceScan, fromBraceScan},
	{MethodActionsArray, fromActionsArray},
	{MethodFieldZip, fromFieldZip},
	{MethodAggressive, fromAggressiveClean},
}

// Extract recovers an action plan from free-form model output.
// It returns nil when no step of the fallback chain yields a plan.
func Extract(text string) *Plan {
	plan, _ := ExtractWithMethod(text)
	return plan
}

// ExtractWithMethod is Extract plus the name of the step that succeeded.
// The method is MethodNone when the plan is nil.
func ExtractWithMethod(text string) (*Plan, Method) {
	cleaned := StripThinking(text)
	for _, s := range chain {
		if plan, ok := runStep(s, cleaned); ok {
			return plan, s.method
		}
	}
	return nil, MethodNone
}

// StripThinking removes <think> segments emitted by reasoning models.
func StripThinking(text string) string {
	text = thinkBlockPattern.ReplaceAllString(text, "")
	text = thinkInversePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func runStep(s step, text string) (plan *Plan, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			plan, ok = nil, false
		}
	}()
	return s.run(text)
}

func fromFencedBlock(text string) (*Plan, bool) {
	for _, m := range fencedBlockPattern.FindAllStringSubmatch(text, -1) {
		if plan, ok := decodePlan(m[1]); ok {
			return plan, true
		}
	}
	return nil, false
}

func fromObjectPatterns(text string) (*Plan, bool) {
	for _, pattern := range objectPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			if plan, ok := decodePlan(match); ok {
				return plan, true
			}
		}
	}
	return nil, false
}

// fromBraceScan does not skip string literals: a '}' inside a value ends
// the candidate early.
func fromBraceScan(text string) (*Plan, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return decodePlan(text[start : i+1])
			}
		}
	}
	return nil, false
}

func fromActionsArray(text string) (*Plan, bool) {
	m := actionsArrayPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	raw := m[1]
	if !gjson.Valid(raw) {
		return nil, false
	}
	arr := gjson.Parse(raw)
	if !arr.IsArray() {
		return nil, false
	}
	return &Plan{Actions: decodeActions(arr)}, true
}

func fromFieldZip(text string) (*Plan, bool) {
	ids := elementIDFieldPattern.FindAllStringSubmatch(text, -1)
	verbs := actionFieldPattern.FindAllStringSubmatch(text, -1)
	values := valueFieldPattern.FindAllStringSubmatch(text, -1)
	if len(ids) == 0 || len(ids) != len(verbs) || len(verbs) != len(values) {
		return nil, false
	}
	actions := make([]Action, 0, len(ids))
	for i := range ids {
		actions = append(actions, Action{
			ElementID: unescapeFragment(ids[i][1]),
			Action:    Kind(unescapeFragment(verbs[i][1])),
			Value:     unescapeFragment(values[i][1]),
			HasValue:  true,
		})
	}
	return &Plan{Actions: actions}, true
}

func fromAggressiveClean(text string) (*Plan, bool) {
	cleaned := bareFencePattern.ReplaceAllString(text, "")
	cleaned = wordLinePattern.ReplaceAllString(cleaned, "")
	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end < start {
		return nil, false
	}
	return decodePlan(cleaned[start : end+1])
}

// decodePlan accepts s only when it is a JSON object whose "actions" is an array.
func decodePlan(s string) (*Plan, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}
	root := gjson.Parse(s)
	if !root.IsObject() {
		return nil, false
	}
	actions := lastField(root, "actions")
	if !actions.IsArray() {
		return nil, false
	}
	return &Plan{Actions: decodeActions(actions)}, true
}

func decodeActions(arr gjson.Result) []Action {
	out := make([]Action, 0)
	arr.ForEach(func(_, item gjson.Result) bool {
		out = append(out, decodeAction(item))
		return true
	})
	return out
}

// decodeAction keeps only fields of an acceptable JSON type; anything else
// stays empty so Filter drops the action.
func decodeAction(item gjson.Result) Action {
	var a Action
	if !item.IsObject() {
		return a
	}
	if id := lastField(item, "elementId"); id.Type == gjson.String || id.Type == gjson.Number {
		a.ElementID = scalarText(id)
	}
	if verb := lastField(item, "action"); verb.Type == gjson.String {
		a.Action = Kind(verb.String())
	}
	switch v := lastField(item, "value"); v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		a.Value = scalarText(v)
		a.HasValue = true
	}
	return a
}

// lastField returns the value of the last member of obj named name; a
// duplicated key resolves to its final occurrence.
func lastField(obj gjson.Result, name string) gjson.Result {
	var found gjson.Result
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			found = value
		}
		return true
	})
	return found
}

// scalarText renders numbers in their shortest decimal form, so 7.0 and 1e1
// become "7" and "10".
func scalarText(r gjson.Result) string {
	return r.String()
}

// unescapeFragment decodes JSON escapes in a regex-captured string body,
// returning it untouched when it is not a valid JSON string.
func unescapeFragment(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
