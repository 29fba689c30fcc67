package actionplan

import (
	"encoding/json"
	"strings"
)

// Format renders plan as a fenced json block, the shape Extract tries first.
func Format(plan *Plan) string {
	if plan == nil {
		plan = &Plan{}
	}
	out := plan
	if plan.Actions == nil {
		out = &Plan{Actions: []Action{}}
	}
	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		// Action holds only strings; Marshal cannot fail here.
		body = []byte(`{"actions":[]}`)
	}
	var b strings.Builder
	b.WriteString("```json\n")
	b.Write(body)
	b.WriteString("\n```")
	return b.String()
}
