package svc

import (
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "copycat-api/internal/cache"
	"copycat-api/internal/config"
	"copycat-api/internal/model"
	"copycat-api/internal/persistence"
	"copycat-api/pkg/journal"
	llmpkg "copycat-api/pkg/llm"
	plannerpkg "copycat-api/pkg/planner"
	"copycat-api/pkg/session"
)

// testEnvModel is the low-cost model used when Env is test.
const testEnvModel = "llama-3.1-8b-instant"

type ServiceContext struct {
	Config config.Config

	LLMConfig     *llmpkg.Config
	LLM           llmpkg.LLMClient
	PlannerConfig *plannerpkg.Config
	Planner       plannerpkg.Planner
	Sessions      *session.Manager

	Redis       *redis.Redis
	Cache       gocache.Cache
	Journal     *journal.Writer
	Persistence *persistence.Service

	// Optional DB models, injected when a DSN is configured
	DBConn        sqlx.SqlConn
	PlanRunsModel model.PlanRunsModel
}

// NewServiceContext wires every collaborator described by c.
func NewServiceContext(c config.Config, opts ...Option) (*ServiceContext, error) {
	svc := &ServiceContext{Config: c}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.LLMConfig == nil {
		if c.LLM.Value == nil {
			return nil, errors.New("svc: llm config is required")
		}
		llmCfg := c.LLM.Value.Clone()
		// Apply test environment defaults: use a low-cost model
		if c.IsTestEnv() {
			llmCfg.DefaultModel = testEnvModel
		}
		svc.LLMConfig = llmCfg
	}
	if svc.LLM == nil {
		client, err := llmpkg.NewClient(svc.LLMConfig)
		if err != nil {
			return nil, fmt.Errorf("svc: llm client: %w", err)
		}
		svc.LLM = client
	}

	if c.Planner.Value != nil {
		svc.PlannerConfig = c.Planner.Value.Clone()
	} else {
		svc.PlannerConfig = plannerpkg.DefaultConfig()
	}
	// Test env pins the planner model as well as the client default.
	if c.IsTestEnv() {
		svc.PlannerConfig.Model = testEnvModel
	}

	if c.Redis.Host != "" && svc.Redis == nil {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			return nil, fmt.Errorf("svc: redis: %w", err)
		}
		svc.Redis = rds
		svc.Cache = gocache.New(gocache.CacheConf{{RedisConf: c.Redis, Weight: 100}},
			syncx.NewSingleFlight(), gocache.NewStat("copycat"), sqlx.ErrNotFound)
	}

	store, err := newSessionStore(c, svc.Redis)
	if err != nil {
		return nil, err
	}
	svc.Sessions = session.NewManager(store)

	// Only inject DB models when DSN provided
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if db, err := conn.RawDB(); err == nil {
			db.SetMaxOpenConns(c.Postgres.MaxOpen)
			db.SetMaxIdleConns(c.Postgres.MaxIdle)
		}
		svc.DBConn = conn
		svc.PlanRunsModel = model.NewPlanRunsModel(conn)
	}

	if c.JournalDir != "" {
		w, err := journal.NewWriter(c.JournalDir)
		if err != nil {
			return nil, err
		}
		svc.Journal = w
	}

	svc.Persistence = persistence.NewService(persistence.Config{
		PlanRunsModel: svc.PlanRunsModel,
		Journal:       svc.Journal,
		Cache:         svc.Cache,
		TTL:           cachekeys.NewTTLSet(c.TTL),
	})

	if svc.Planner == nil {
		var plannerOpts []plannerpkg.Option
		if svc.Persistence != nil {
			plannerOpts = append(plannerOpts, plannerpkg.WithConversationRecorder(svc.Persistence))
		}
		p, err := plannerpkg.NewPlanner(svc.PlannerConfig, svc.LLM, svc.Sessions, plannerOpts...)
		if err != nil {
			return nil, fmt.Errorf("svc: planner: %w", err)
		}
		svc.Planner = p
	}

	logx.Infof("svc: sessions=%s postgres=%t journal=%t", c.SessionStore(), svc.DBConn != nil, svc.Journal != nil)
	return svc, nil
}

func newSessionStore(c config.Config, rds *redis.Redis) (session.Store, error) {
	switch c.SessionStore() {
	case "redis":
		if rds == nil {
			return nil, errors.New("svc: redis session store requires redis")
		}
		return session.NewRedisStore(rds, c.SessionTTL(), session.WithKeyFunc(cachekeys.SessionKey))
	default:
		return session.NewMemoryStore(c.SessionTTL())
	}
}

// Close releases the LLM client.
func (s *ServiceContext) Close() error {
	if s == nil || s.LLM == nil {
		return nil
	}
	return s.LLM.Close()
}

// Option overrides a collaborator, mainly for tests.
type Option func(*ServiceContext)

// WithLLMClient injects a ready LLM client.
func WithLLMClient(client llmpkg.LLMClient) Option {
	return func(s *ServiceContext) {
		s.LLM = client
		if client != nil {
			s.LLMConfig = client.GetConfig()
		}
	}
}

// WithPlanner injects a ready planner.
func WithPlanner(p plannerpkg.Planner) Option {
	return func(s *ServiceContext) { s.Planner = p }
}
