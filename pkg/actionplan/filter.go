package actionplan

import "strings"

// DefaultDenylist holds words that signal "finish the page" rather than
// answering it; actions targeting or carrying them are dropped.
var DefaultDenylist = []string{"submit", "done", "continue"}

// Policy configures Filter.
type Policy struct {
	// Allowed is the set of accepted kinds. Empty means DefaultKinds.
	Allowed []Kind
	// Denylist words are matched case-insensitively as substrings of
	// elementId and value.
	Denylist []string
}

// DefaultPolicy accepts every known kind and applies DefaultDenylist.
func DefaultPolicy() Policy {
	return Policy{
		Allowed:  append([]Kind(nil), DefaultKinds...),
		Denylist: append([]string(nil), DefaultDenylist...),
	}
}

// Filter returns the actions of plan that are safe to replay, with the kind
// normalized to lowercase, and the actions it rejected.
func Filter(plan *Plan, policy Policy) (*Plan, []Action) {
	kept := &Plan{Actions: []Action{}}
	if plan == nil {
		return kept, nil
	}

	allowed := policy.Allowed
	if len(allowed) == 0 {
		allowed = DefaultKinds
	}
	deny := normalizeWords(policy.Denylist)

	var dropped []Action
	for _, a := range plan.Actions {
		kind, ok := ParseKind(string(a.Action))
		if !ok || !containsKind(allowed, kind) ||
			strings.TrimSpace(a.ElementID) == "" || !a.HasValue ||
			matchesAny(a.ElementID, deny) || matchesAny(a.Value, deny) {
			dropped = append(dropped, a)
			continue
		}
		a.Action = kind
		kept.Actions = append(kept.Actions, a)
	}
	return kept, dropped
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, candidate := range kinds {
		if Kind(strings.ToLower(string(candidate))) == k {
			return true
		}
	}
	return false
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func matchesAny(s string, words []string) bool {
	if s == "" || len(words) == 0 {
		return false
	}
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
