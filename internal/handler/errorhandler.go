package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/internal/logic"
	"copycat-api/internal/types"
	plannerpkg "copycat-api/pkg/planner"
	"copycat-api/pkg/session"
)

// ErrorHandler maps service errors onto status codes; register it with
// httpx.SetErrorHandlerCtx.
func ErrorHandler(ctx context.Context, err error) (int, any) {
	body := &types.ErrorResponse{Message: err.Error()}

	var failure *logic.PlanFailure
	switch {
	case errors.As(err, &failure):
		body.Code = "no_plan"
		if errors.Is(err, plannerpkg.ErrEmptyPlan) {
			body.Code = "empty_plan"
		}
		if res := failure.Result; res != nil {
			body.RunID = res.RunID
			body.Method = string(res.Method)
			for _, a := range res.Dropped {
				body.Dropped = append(body.Dropped, types.ActionItem{ElementID: a.ElementID, Action: string(a.Action), Value: a.Value})
			}
		}
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, logic.ErrInvalidRequest):
		body.Code = "invalid_request"
		return http.StatusBadRequest, body
	case errors.Is(err, session.ErrNotFound):
		body.Code = "not_found"
		return http.StatusNotFound, body
	case errors.Is(err, session.ErrConflict):
		body.Code = "conflict"
		return http.StatusConflict, body
	case errors.Is(err, plannerpkg.ErrThrottled):
		body.Code = "throttled"
		return http.StatusTooManyRequests, body
	case errors.Is(err, context.DeadlineExceeded):
		body.Code = "timeout"
		return http.StatusGatewayTimeout, body
	case errors.Is(err, logic.ErrUpstream):
		body.Code = "upstream"
		return http.StatusBadGateway, body
	default:
		logx.WithContext(ctx).Errorf("unhandled error: %v", err)
		body.Code = "internal"
		body.Message = "internal error"
		return http.StatusInternalServerError, body
	}
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", logic.ErrInvalidRequest, err)
}
