package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
)

type ListRunsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListRunsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListRunsLogic {
	return &ListRunsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ListRuns returns an empty list when no database is configured.
func (l *ListRunsLogic) ListRuns(req *types.SessionRequest) (resp *types.RunsResponse, err error) {
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	runs, err := l.svcCtx.Persistence.RecentRuns(l.ctx, id)
	if err != nil {
		return nil, err
	}
	resp = &types.RunsResponse{Runs: make([]types.RunItem, 0, len(runs))}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, types.RunItem{
			RunID:       r.RunID,
			Source:      r.Source,
			Model:       r.Model,
			Method:      string(r.Method),
			Kept:        r.Kept,
			Dropped:     r.Dropped,
			TotalTokens: r.TotalTokens,
			Error:       r.Error,
			CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}
