package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/pkg/actionplan"
	"copycat-api/pkg/llm"
	"copycat-api/pkg/session"
)

var (
	// ErrNoPlan means no extraction step recovered a plan from the completion.
	ErrNoPlan = errors.New("no parseable action plan found")
	// ErrEmptyPlan means a plan was recovered but every action was filtered out.
	ErrEmptyPlan = errors.New("action plan has no usable actions")
	// ErrThrottled means the previous model call for the session was too recent.
	ErrThrottled = errors.New("planner: model call throttled")
	// ErrModelCall wraps failures of the chat completion itself.
	ErrModelCall = errors.New("planner: model call failed")
)

// Planner turns page snapshots into replayable action plans.
type Planner interface {
	// Plan asks the model for a plan for page and stores it under sessionID.
	Plan(ctx context.Context, sessionID string, page *PageSnapshot) (*Result, error)
	// Ingest parses a completion obtained elsewhere and stores it under sessionID.
	Ingest(ctx context.Context, sessionID, raw string) (*Result, error)
	// GetConfig exposes the planner configuration.
	GetConfig() *Config
}

// BasicPlanner wires configuration, prompt rendering, the LLM client and sessions.
type BasicPlanner struct {
	cfg           *Config
	llm           llm.LLMClient
	renderer      *PromptRenderer
	sessions      *session.Manager
	throttle      *throttle
	conversations ConversationRecorder
	format        *llm.ResponseFormat
	now           func() time.Time
}

var _ Planner = (*BasicPlanner)(nil)

// NewPlanner constructs a BasicPlanner.
func NewPlanner(cfg *Config, client llm.LLMClient, sessions *session.Manager, opts ...Option) (*BasicPlanner, error) {
	if cfg == nil {
		return nil, errors.New("planner: config is required")
	}
	if client == nil {
		return nil, errors.New("planner: llm client is required")
	}
	if sessions == nil {
		return nil, errors.New("planner: session manager is required")
	}
	renderer, err := NewPromptRenderer(cfg)
	if err != nil {
		return nil, err
	}
	format, err := responseFormat(cfg.ResponseFormat)
	if err != nil {
		return nil, err
	}
	th, err := newThrottle(cfg.MinInterval)
	if err != nil {
		return nil, fmt.Errorf("planner: throttle: %w", err)
	}
	p := &BasicPlanner{
		cfg:           cfg,
		llm:           client,
		renderer:      renderer,
		sessions:      sessions,
		throttle:      th,
		conversations: noopConversationRecorder{},
		format:        format,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.throttle.now = p.now
	return p, nil
}

func responseFormat(kind string) (*llm.ResponseFormat, error) {
	switch kind {
	case "", "text":
		return nil, nil
	case "json_object":
		return &llm.ResponseFormat{Type: "json_object"}, nil
	case "json_schema":
		return llm.JSONSchemaFormat("action_plan", actionplan.Plan{})
	default:
		return nil, fmt.Errorf("planner: unsupported response format %q", kind)
	}
}

// GetConfig returns the underlying configuration.
func (p *BasicPlanner) GetConfig() *Config { return p.cfg }

// Renderer exposes the prompt renderer, mainly for template reloads.
func (p *BasicPlanner) Renderer() *PromptRenderer { return p.renderer }

// Plan renders the prompt for page, calls the model and stores the filtered
// plan. A failed model call leaves the previous session in place; a
// completion without usable actions clears it.
func (p *BasicPlanner) Plan(ctx context.Context, sessionID string, page *PageSnapshot) (*Result, error) {
	if sessionID == "" {
		return nil, errors.New("planner: session id is required")
	}
	if page == nil {
		return nil, errors.New("planner: page snapshot is required")
	}
	if ok, wait := p.throttle.Allow(sessionID); !ok {
		return nil, fmt.Errorf("%w: retry in %s", ErrThrottled, wait.Round(time.Millisecond))
	}

	systemPrompt, err := p.renderer.RenderSystem(page)
	if err != nil {
		return nil, err
	}
	userPrompt, err := p.renderer.Render(page)
	if err != nil {
		return nil, err
	}

	req := &llm.ChatRequest{
		Model: p.cfg.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		Temperature:    p.cfg.Temperature,
		MaxTokens:      p.cfg.MaxTokens,
		ResponseFormat: p.format,
	}

	start := p.now()
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()
	resp, err := p.llm.Chat(callCtx, req)
	if err != nil {
		rec := p.baseRecord(sessionID, SourceModel, start)
		rec.SystemPrompt, rec.Prompt = systemPrompt, userPrompt
		rec.ModelName = p.cfg.Model
		rec.Err = err.Error()
		p.record(ctx, rec)
		return nil, fmt.Errorf("%w: %w", ErrModelCall, err)
	}

	res := &Result{
		Source:       SourceModel,
		Raw:          resp.Content(),
		Model:        resp.Model,
		PromptDigest: p.renderer.Digest(),
		Usage:        resp.Usage,
	}
	rec := p.baseRecord(sessionID, SourceModel, start)
	rec.SystemPrompt, rec.Prompt = systemPrompt, userPrompt
	return p.finish(ctx, sessionID, res, rec)
}

// Ingest runs extraction, filtering and the session update for raw.
func (p *BasicPlanner) Ingest(ctx context.Context, sessionID, raw string) (*Result, error) {
	if sessionID == "" {
		return nil, errors.New("planner: session id is required")
	}
	res := &Result{Source: SourceIngest, Raw: raw}
	return p.finish(ctx, sessionID, res, p.baseRecord(sessionID, SourceIngest, p.now()))
}

func (p *BasicPlanner) finish(ctx context.Context, sessionID string, res *Result, rec ConversationRecord) (*Result, error) {
	res.RunID = rec.RunID
	plan, method := actionplan.ExtractWithMethod(res.Raw)
	res.Method = method

	var outcome error
	if plan == nil {
		outcome = ErrNoPlan
	} else {
		res.Kept, res.Dropped = actionplan.Filter(plan, p.cfg.Policy())
		if res.Kept.Len() == 0 {
			outcome = ErrEmptyPlan
		}
	}
	res.Duration = p.now().Sub(rec.Timestamp)

	logger := logx.WithContext(ctx)
	fields := []logx.LogField{
		logx.Field("session", sessionID),
		logx.Field("run", res.RunID),
		logx.Field("source", string(res.Source)),
		logx.Field("method", string(res.Method)),
		logx.Field("kept", res.Kept.Len()),
		logx.Field("dropped", len(res.Dropped)),
	}

	if outcome != nil {
		if err := p.sessions.Clear(ctx, sessionID); err != nil {
			logger.Errorw("planner: clear session failed", append(fields, logx.Field("error", err.Error()))...)
		}
		logger.Sloww("planner: no usable plan", append(fields, logx.Field("reason", outcome.Error()))...)
	} else {
		s, err := p.sessions.Replace(ctx, sessionID, session.Capture{
			Plan:         res.Kept,
			Raw:          res.Raw,
			Model:        res.Model,
			Method:       res.Method,
			PromptDigest: res.PromptDigest,
		})
		if err != nil {
			outcome = fmt.Errorf("planner: save session: %w", err)
		}
		res.Session = s
		logger.Infow("planner: plan stored", fields...)
	}

	p.fillRecord(&rec, res, outcome)
	p.record(ctx, rec)
	return res, outcome
}

func (p *BasicPlanner) baseRecord(sessionID string, source Source, start time.Time) ConversationRecord {
	return ConversationRecord{
		RunID:     uuid.NewString(),
		SessionID: sessionID,
		Source:    source,
		Timestamp: start,
	}
}

func (p *BasicPlanner) fillRecord(rec *ConversationRecord, res *Result, outcome error) {
	rec.ModelName = res.Model
	rec.PromptDigest = res.PromptDigest
	rec.Response = res.Raw
	rec.PromptTokens = res.Usage.PromptTokens
	rec.CompletionTokens = res.Usage.CompletionTokens
	rec.TotalTokens = res.Usage.TotalTokens
	rec.Method = res.Method
	if res.Kept != nil {
		rec.Kept = res.Kept.Actions
	}
	rec.Dropped = res.Dropped
	rec.Duration = res.Duration
	if outcome != nil {
		rec.Err = outcome.Error()
	}
}

func (p *BasicPlanner) record(ctx context.Context, rec ConversationRecord) {
	if rec.Duration == 0 {
		rec.Duration = p.now().Sub(rec.Timestamp)
	}
	if err := p.conversations.RecordConversation(ctx, rec); err != nil {
		logx.WithContext(ctx).Errorf("planner: record conversation %s failed: %v", rec.RunID, err)
	}
}
