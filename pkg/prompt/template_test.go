package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateRender(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "planner.tmpl")
	err := os.WriteFile(templatePath, []byte(`PAGE: {{ .Title }}{{ range $i, $e := .Items }}
{{ inc $i }}. {{ quote $e }}{{ end }}`), 0o600)
	assert.NoError(t, err, "write template should succeed")

	tpl, err := NewTemplate(templatePath, Funcs())
	assert.NoError(t, err, "NewTemplate should not error")
	assert.Equal(t, "planner.tmpl", tpl.Name())

	out, err := tpl.Render(map[string]any{"Title": "Quiz", "Items": []string{"a", `b"c`}})
	assert.NoError(t, err, "Render should not error")
	assert.Equal(t, "PAGE: Quiz\n1. \"a\"\n2. \"b\\\"c\"", out)
}

func TestTemplateMissingKey(t *testing.T) {
	tpl, err := ParseTemplate("strict", "{{ .Missing }}", nil)
	assert.NoError(t, err)
	_, err = tpl.Render(map[string]any{})
	assert.Error(t, err, "missing keys should fail rendering")
}

func TestTemplateReload(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "reload.tmpl")
	assert.NoError(t, os.WriteFile(templatePath, []byte("v1"), 0o600))

	tpl, err := NewTemplate(templatePath, nil)
	assert.NoError(t, err, "NewTemplate should not error")

	out, err := tpl.Render(nil)
	assert.NoError(t, err)
	assert.Equal(t, "v1", out, "initial render should be v1")
	digestV1 := tpl.Digest()
	assert.Equal(t, DigestString("v1"), digestV1)

	assert.NoError(t, os.WriteFile(templatePath, []byte("v2"), 0o600))
	assert.NoError(t, tpl.Reload(), "Reload should not error")

	out, err = tpl.Render(nil)
	assert.NoError(t, err)
	assert.Equal(t, "v2", out, "reloaded render should be v2")
	assert.NotEqual(t, digestV1, tpl.Digest(), "digest should change after reload")
}

func TestParseTemplate(t *testing.T) {
	tpl, err := ParseTemplate("", "You are a {{ trim .Role }}.", Funcs())
	assert.NoError(t, err)
	assert.Equal(t, "inline", tpl.Name())
	assert.NoError(t, tpl.Reload(), "reload of inline template is a no-op")

	out, err := tpl.Render(map[string]string{"Role": "  web automation expert "})
	assert.NoError(t, err)
	assert.Equal(t, "You are a web automation expert.", out)

	_, err = ParseTemplate("broken", "{{ .Oops", nil)
	assert.Error(t, err)

	_, err = NewTemplate("", nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate(4, "héllo"))
	assert.Equal(t, "hi", Truncate(10, "hi"))
	assert.Equal(t, "unlimited", Truncate(0, "unlimited"))
}
