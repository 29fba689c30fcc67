package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
)

type GetSessionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetSessionLogic {
	return &GetSessionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetSessionLogic) GetSession(req *types.SessionRequest) (resp *types.SessionResponse, err error) {
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	s, err := l.svcCtx.Sessions.Get(l.ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(s), nil
}
