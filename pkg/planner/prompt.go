package planner

import (
	_ "embed"
	"errors"

	"copycat-api/pkg/prompt"
)

//go:embed templates/user_prompt.tmpl
var defaultUserPrompt string

// PromptRenderer renders the user prompt for a page snapshot.
type PromptRenderer struct {
	cfg *Config
	tpl *prompt.Template
	sys *prompt.Template
}

// NewPromptRenderer uses cfg.PromptTemplate when set, the built-in prompt otherwise.
func NewPromptRenderer(cfg *Config) (*PromptRenderer, error) {
	if cfg == nil {
		return nil, errors.New("planner prompt renderer requires config")
	}
	var (
		tpl *prompt.Template
		err error
	)
	if cfg.PromptTemplate != "" {
		tpl, err = prompt.NewTemplate(cfg.PromptTemplate, prompt.Funcs())
	} else {
		tpl, err = prompt.ParseTemplate("user_prompt.tmpl", defaultUserPrompt, prompt.Funcs())
	}
	if err != nil {
		return nil, err
	}
	sys, err := prompt.ParseTemplate("system_prompt", cfg.SystemPrompt, prompt.Funcs())
	if err != nil {
		return nil, err
	}
	return &PromptRenderer{cfg: cfg, tpl: tpl, sys: sys}, nil
}

// Render generates the user prompt populated with the page.
func (r *PromptRenderer) Render(page *PageSnapshot) (string, error) {
	if r == nil || r.tpl == nil {
		return "", errors.New("planner prompt renderer not initialised")
	}
	if page == nil {
		return "", errors.New("planner prompt renderer requires a page")
	}
	return r.tpl.Render(buildPromptInputs(r.cfg, page))
}

// RenderSystem renders the configured system instruction for page.
func (r *PromptRenderer) RenderSystem(page *PageSnapshot) (string, error) {
	if r == nil || r.sys == nil {
		return "", errors.New("planner prompt renderer not initialised")
	}
	if page == nil {
		page = &PageSnapshot{}
	}
	return r.sys.Render(buildPromptInputs(r.cfg, page))
}

// Reload rereads a file-backed template.
func (r *PromptRenderer) Reload() error {
	if r == nil || r.tpl == nil {
		return errors.New("planner prompt renderer not initialised")
	}
	return r.tpl.Reload()
}

// Digest identifies the template for observability.
func (r *PromptRenderer) Digest() string {
	if r == nil || r.tpl == nil {
		return ""
	}
	return r.tpl.Digest()
}
