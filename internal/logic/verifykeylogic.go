package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/svc"
	"copycat-api/internal/types"
	llmpkg "copycat-api/pkg/llm"
)

type VerifyKeyLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewVerifyKeyLogic(ctx context.Context, svcCtx *svc.ServiceContext) *VerifyKeyLogic {
	return &VerifyKeyLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// VerifyKey reports a rejected key in the body; other failures are upstream errors.
func (l *VerifyKeyLogic) VerifyKey(req *types.VerifyRequest) (resp *types.VerifyResponse, err error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = l.svcCtx.LLMConfig.DefaultModel
	}
	resp = &types.VerifyResponse{Model: model}
	if err := l.svcCtx.LLM.VerifyKey(l.ctx, model); err != nil {
		if !errors.Is(err, llmpkg.ErrInvalidKey) {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		l.Infof("key rejected for model %s: %v", model, err)
		resp.Error = err.Error()
		return resp, nil
	}
	resp.Valid = true
	return resp, nil
}
