package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
	"copycat-api/pkg/actionplan"
)

type ParseLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewParseLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ParseLogic {
	return &ParseLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Parse extracts and filters a completion without touching any session.
func (l *ParseLogic) Parse(req *types.ParseRequest) (resp *types.ParseResponse, err error) {
	plan, method := actionplan.ExtractWithMethod(req.Response)
	kept, dropped := actionplan.Filter(plan, l.svcCtx.PlannerConfig.Policy())
	l.Debugf("parse: method=%s kept=%d dropped=%d", method, kept.Len(), len(dropped))
	return &types.ParseResponse{
		Actions: toActionItems(kept.Actions),
		Dropped: toActionItems(dropped),
		Method:  string(method),
	}, nil
}
