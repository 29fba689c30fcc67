package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "copycat-api/internal/cache"
	"copycat-api/internal/model"
	"copycat-api/pkg/actionplan"
	"copycat-api/pkg/journal"
	plannerpkg "copycat-api/pkg/planner"
)

const recentRunsLimit = 20

var _ plannerpkg.ConversationRecorder = (*Service)(nil)

// RunCache is the subset of go-zero's stores/cache.Cache used for run listings.
type RunCache interface {
	GetCtx(ctx context.Context, key string, val any) error
	SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error
	DelCtx(ctx context.Context, keys ...string) error
	IsNotFound(err error) bool
}

// RunSummary is the listing view of one planning run.
type RunSummary struct {
	RunID       string            `json:"runId"`
	Source      string            `json:"source"`
	Model       string            `json:"model"`
	Method      actionplan.Method `json:"method"`
	Kept        int               `json:"kept"`
	Dropped     int               `json:"dropped"`
	TotalTokens int64             `json:"totalTokens"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Service mirrors planner runs to Postgres and the file journal.
type Service struct {
	runsModel model.PlanRunsModel
	journal   *journal.Writer
	cache     RunCache
	ttl       cachekeys.TTLSet
}

// Config enumerates the collaborators; each of them is optional.
type Config struct {
	PlanRunsModel model.PlanRunsModel
	Journal       *journal.Writer
	Cache         RunCache
	TTL           cachekeys.TTLSet
}

// NewService returns nil when there is nowhere to persist runs.
func NewService(cfg Config) *Service {
	if cfg.PlanRunsModel == nil && cfg.Journal == nil {
		return nil
	}
	return &Service{
		runsModel: cfg.PlanRunsModel,
		journal:   cfg.Journal,
		cache:     cfg.Cache,
		ttl:       cfg.TTL,
	}
}

// RecordConversation stores one planning run. Replays of an already stored
// run id are ignored.
func (s *Service) RecordConversation(ctx context.Context, rec plannerpkg.ConversationRecord) error {
	if s == nil || strings.TrimSpace(rec.RunID) == "" {
		return nil
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	var errs []error
	if s.journal != nil {
		if _, err := s.journal.WriteRun(toRunRecord(rec)); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}
	if s.runsModel != nil {
		row, err := toRow(rec)
		if err != nil {
			return err
		}
		_, err = s.runsModel.Insert(ctx, row)
		switch {
		case err == nil:
			s.invalidateRecent(ctx, rec.SessionID)
		case isUniqueViolation(err):
			// already recorded
		default:
			errs = append(errs, fmt.Errorf("insert plan run %s: %w", rec.RunID, err))
		}
	}
	return errors.Join(errs...)
}

// RecentRuns lists the newest runs of a session, served from cache when possible.
func (s *Service) RecentRuns(ctx context.Context, sessionID string) ([]RunSummary, error) {
	if s == nil || s.runsModel == nil {
		return []RunSummary{}, nil
	}
	key := cachekeys.RecentRunsKey(sessionID)
	if s.cache != nil {
		var cached []RunSummary
		err := s.cache.GetCtx(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !s.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("persistence: load recent runs cache key=%s err=%v", key, err)
		}
	}

	rows, err := s.runsModel.FindRecentBySession(ctx, sessionID, recentRunsLimit)
	if err != nil {
		return nil, fmt.Errorf("find recent runs: %w", err)
	}
	out := make([]RunSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSummary(row))
	}

	if s.cache != nil {
		if ttl := cachekeys.RecentRunsTTL(s.ttl); ttl > 0 {
			if err := s.cache.SetWithExpireCtx(ctx, key, out, ttl); err != nil {
				logx.WithContext(ctx).Errorf("persistence: set recent runs cache key=%s err=%v", key, err)
			}
		}
	}
	return out, nil
}

func (s *Service) invalidateRecent(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	key := cachekeys.RecentRunsKey(sessionID)
	if err := s.cache.DelCtx(ctx, key); err != nil {
		logx.WithContext(ctx).Errorf("persistence: invalidate recent runs key=%s err=%v", key, err)
	}
}

func toRow(rec plannerpkg.ConversationRecord) (*model.PlanRuns, error) {
	kept, err := marshalActions(rec.Kept)
	if err != nil {
		return nil, err
	}
	dropped, err := marshalActions(rec.Dropped)
	if err != nil {
		return nil, err
	}
	method := rec.Method
	if method == "" {
		method = actionplan.MethodNone
	}
	return &model.PlanRuns{
		RunId:            rec.RunID,
		SessionId:        rec.SessionID,
		Source:           string(rec.Source),
		Model:            rec.ModelName,
		PromptDigest:     nullString(rec.PromptDigest),
		Prompt:           nullString(rec.Prompt),
		Response:         rec.Response,
		PromptTokens:     int64(rec.PromptTokens),
		CompletionTokens: int64(rec.CompletionTokens),
		TotalTokens:      int64(rec.TotalTokens),
		Method:           string(method),
		Actions:          kept,
		Dropped:          dropped,
		ErrorMessage:     nullString(rec.Err),
		DurationMs:       rec.Duration.Milliseconds(),
	}, nil
}

func toRunRecord(rec plannerpkg.ConversationRecord) *journal.RunRecord {
	return &journal.RunRecord{
		Timestamp:    rec.Timestamp,
		RunID:        rec.RunID,
		SessionID:    rec.SessionID,
		Source:       string(rec.Source),
		Model:        rec.ModelName,
		PromptDigest: rec.PromptDigest,
		Prompt:       rec.Prompt,
		Response:     rec.Response,
		Method:       rec.Method,
		Kept:         rec.Kept,
		Dropped:      rec.Dropped,
		TotalTokens:  rec.TotalTokens,
		DurationMS:   rec.Duration.Milliseconds(),
		Success:      rec.Err == "",
		ErrorMessage: rec.Err,
	}
}

func toSummary(row *model.PlanRuns) RunSummary {
	return RunSummary{
		RunID:       row.RunId,
		Source:      row.Source,
		Model:       row.Model,
		Method:      actionplan.Method(row.Method),
		Kept:        countActions(row.Actions),
		Dropped:     countActions(row.Dropped),
		TotalTokens: row.TotalTokens,
		Error:       row.ErrorMessage.String,
		CreatedAt:   row.CreatedAt,
	}
}

func marshalActions(actions []actionplan.Action) (string, error) {
	if actions == nil {
		actions = []actionplan.Action{}
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return "", fmt.Errorf("marshal actions: %w", err)
	}
	return string(data), nil
}

func countActions(raw string) int {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return 0
	}
	return len(items)
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
