package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
)

type IngestLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewIngestLogic(ctx context.Context, svcCtx *svc.ServiceContext) *IngestLogic {
	return &IngestLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *IngestLogic) Ingest(req *types.IngestRequest) (resp *types.PlanResponse, err error) {
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Response) == "" {
		return nil, invalid("response is required")
	}

	res, err := l.svcCtx.Planner.Ingest(l.ctx, id, req.Response)
	if err != nil {
		return nil, planError(res, err)
	}
	return toPlanResponse(id, res), nil
}
