package actionplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_DefaultPolicy(t *testing.T) {
	plan := &Plan{Actions: []Action{
		{ElementID: "answer", Action: "type", Value: "42", HasValue: true},
		{ElementID: "opt_b", Action: "CLICK", Value: "Option B", HasValue: true},
		{ElementID: "", Action: "click", Value: "x", HasValue: true},
		{ElementID: "hover-me", Action: "hover", Value: "", HasValue: true},
		{ElementID: "missing", Action: "type"},
		{ElementID: "submit-btn", Action: "click", Value: "", HasValue: true},
		{ElementID: "next", Action: "click", Value: "Continue", HasValue: true},
		{ElementID: "finish", Action: "click", Value: "I am DONE", HasValue: true},
		{ElementID: "country", Action: " Select ", Value: "", HasValue: true},
	}}

	kept, dropped := Filter(plan, DefaultPolicy())
	require.Equal(t, []Action{
		{ElementID: "answer", Action: KindType, Value: "42", HasValue: true},
		{ElementID: "opt_b", Action: KindClick, Value: "Option B", HasValue: true},
		{ElementID: "country", Action: KindSelect, Value: "", HasValue: true},
	}, kept.Actions)
	assert.Len(t, dropped, 6)
	// input plan is left untouched
	assert.Equal(t, Kind("CLICK"), plan.Actions[1].Action)
}

func TestFilter_CustomPolicy(t *testing.T) {
	plan := &Plan{Actions: []Action{
		{ElementID: "editor", Action: "type", Value: "print('done')", HasValue: true},
		{ElementID: "run", Action: "click", Value: "Run", HasValue: true},
	}}

	t.Run("no denylist", func(t *testing.T) {
		kept, dropped := Filter(plan, Policy{})
		require.Len(t, kept.Actions, 2)
		require.Empty(t, dropped)
	})

	t.Run("restricted kinds", func(t *testing.T) {
		kept, dropped := Filter(plan, Policy{Allowed: []Kind{"TYPE"}})
		require.Len(t, kept.Actions, 1)
		require.Equal(t, "editor", kept.Actions[0].ElementID)
		require.Len(t, dropped, 1)
	})

	t.Run("custom denylist ignores blanks", func(t *testing.T) {
		kept, _ := Filter(plan, Policy{Denylist: []string{" ", "RUN"}})
		require.Len(t, kept.Actions, 1)
		require.Equal(t, "editor", kept.Actions[0].ElementID)
	})
}

func TestFilter_NilPlan(t *testing.T) {
	kept, dropped := Filter(nil, DefaultPolicy())
	require.NotNil(t, kept)
	require.Empty(t, kept.Actions)
	require.Nil(t, dropped)
	require.Equal(t, 0, (*Plan)(nil).Len())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"type", KindType, true},
		{" Click ", KindClick, true},
		{"SELECT", KindSelect, true},
		{"scroll", Kind("scroll"), false},
		{"", Kind(""), false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
