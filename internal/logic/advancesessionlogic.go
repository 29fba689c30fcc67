package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
)

type AdvanceSessionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAdvanceSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AdvanceSessionLogic {
	return &AdvanceSessionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *AdvanceSessionLogic) AdvanceSession(req *types.AdvanceRequest) (resp *types.SessionResponse, err error) {
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if req.Count < 0 {
		return nil, invalid("count cannot be negative")
	}
	s, err := l.svcCtx.Sessions.Advance(l.ctx, id, req.Count)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(s), nil
}
