package actionplan

import "strings"

// Kind is the verb of a simulated user-input instruction.
type Kind string

const (
	KindType   Kind = "type"
	KindClick  Kind = "click"
	KindSelect Kind = "select"
)

// DefaultKinds lists every action kind a replayer understands.
var DefaultKinds = []Kind{KindType, KindClick, KindSelect}

// ParseKind lowercases and trims s; ok reports whether the result is a known kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindType, KindClick, KindSelect:
		return k, true
	default:
		return k, false
	}
}

// Action is one instruction recovered from a model response.
type Action struct {
	ElementID string `json:"elementId"`
	Action    Kind   `json:"action" enum:"type,click,select"`
	Value     string `json:"value"`

	// HasValue is false when the source object carried no usable value field.
	HasValue bool `json:"-" msgpack:"has_value"`
}

// Plan is the ordered list of actions recovered from one response.
type Plan struct {
	Actions []Action `json:"actions"`
}

// Len returns the number of actions, tolerating a nil plan.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Actions)
}

// Method names the extraction step that produced a plan.
type Method string

const (
	MethodNone         Method = "none"
	MethodFenced       Method = "fenced_block"
	MethodPattern      Method = "object_pattern"
	MethodBraceScan    Method = "brace_scan"
	MethodActionsArray Method = "actions_array"
	MethodFieldZip     Method = "field_zip"
	MethodAggressive   Method = "aggressive_clean"
)
