package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
)

type PauseSessionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPauseSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PauseSessionLogic {
	return &PauseSessionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *PauseSessionLogic) PauseSession(req *types.SessionRequest) (resp *types.SessionResponse, err error) {
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	s, err := l.svcCtx.Sessions.Pause(l.ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(s), nil
}
