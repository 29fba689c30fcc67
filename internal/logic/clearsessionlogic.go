package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
)

type ClearSessionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewClearSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ClearSessionLogic {
	return &ClearSessionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ClearSessionLogic) ClearSession(req *types.SessionRequest) error {
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		return err
	}
	if err := l.svcCtx.Sessions.Clear(l.ctx, id); err != nil {
		return err
	}
	l.Infof("session %s cleared", id)
	return nil
}
