package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
)

type PlanLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPlanLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PlanLogic {
	return &PlanLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *PlanLogic) Plan(req *types.PlanRequest) (resp *types.PlanResponse, err error) {
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, invalid("url is required")
	}
	if len(req.Elements) == 0 {
		return nil, invalid("page has no interactive elements")
	}

	res, err := l.svcCtx.Planner.Plan(l.ctx, id, toPageSnapshot(req))
	if err != nil {
		return nil, planError(res, err)
	}
	return toPlanResponse(id, res), nil
}
