package planner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptRenderer_Default(t *testing.T) {
	r, err := NewPromptRenderer(DefaultConfig())
	require.NoError(t, err)

	out, err := r.Render(samplePage())
	require.NoError(t, err)
	assert.Contains(t, out, "PAGE: Geography quiz\nURL: https://quiz.example.com/geo")
	assert.Contains(t, out, "CONTENT:\nWhat is the capital of France?")
	assert.Contains(t, out, "TAB characters (\t)")
	assert.Contains(t, out, `use \t characters`)
	assert.Contains(t, out, `3. ID: "code" | Type: text_input | Tag: textarea | Label: "" | Text: "" | Placeholder: "Your code" | CodeEditor: true`)
	assert.NotEmpty(t, r.Digest())

	_, err = r.Render(nil)
	require.Error(t, err)
	_, err = NewPromptRenderer(nil)
	require.Error(t, err)
}

func TestPromptRenderer_FileTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ .Title }} ({{ .Omitted }} hidden)\n{{ .Elements }}"), 0o600))

	cfg := DefaultConfig()
	cfg.PromptTemplate = path
	cfg.MaxElements = 1
	r, err := NewPromptRenderer(cfg)
	require.NoError(t, err)

	out, err := r.Render(samplePage())
	require.NoError(t, err)
	assert.Equal(t, "Geography quiz (2 hidden)\n"+`1. ID: "q1" | Type: clickable | Tag: label | Label: "Paris" | Text: "Paris" | Placeholder: ""`, out)

	require.NoError(t, os.WriteFile(path, []byte("{{ .URL }}"), 0o600))
	digest := r.Digest()
	require.NoError(t, r.Reload())
	assert.NotEqual(t, digest, r.Digest())
}

func TestFormatElement(t *testing.T) {
	tests := []struct {
		name string
		el   Element
		want string
	}{
		{
			name: "text falls back to value",
			el:   Element{ID: "email", Type: "text_input", TagName: "input", InputType: "email", Value: "a@b.c"},
			want: `1. ID: "email" | Type: text_input | Tag: input | Label: "" | Text: "a@b.c" | Placeholder: "" | InputType: email`,
		},
		{
			name: "empty options still listed",
			el:   Element{ID: "s", Type: "select", TagName: "select", Options: []SelectOption{}},
			want: `1. ID: "s" | Type: select | Tag: select | Label: "" | Text: "" | Placeholder: "" | Options: []`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatElement(0, tt.el))
		})
	}
}

func TestBuildPromptInputs_TruncatesContent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxContentChars = 5
	in := buildPromptInputs(cfg, &PageSnapshot{Content: strings.Repeat("é", 10)})
	assert.Equal(t, "ééééé", in.Content)
	assert.Zero(t, in.Omitted)
}
