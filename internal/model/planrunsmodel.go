package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PlanRunsModel = (*customPlanRunsModel)(nil)

type (
	// PlanRunsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customPlanRunsModel.
	PlanRunsModel interface {
		planRunsModel
		FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]*PlanRuns, error)
	}

	customPlanRunsModel struct {
		*defaultPlanRunsModel
	}
)

// NewPlanRunsModel returns a model for the database table.
func NewPlanRunsModel(conn sqlx.SqlConn) PlanRunsModel {
	return &customPlanRunsModel{
		defaultPlanRunsModel: newPlanRunsModel(conn),
	}
}

// FindRecentBySession lists the newest runs of a session first.
func (m *customPlanRunsModel) FindRecentBySession(ctx context.Context, sessionID string, limit int) ([]*PlanRuns, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("select %s from %s where session_id = $1 order by created_at desc, id desc limit $2", planRunsRows, m.tableName())
	var resp []*PlanRuns
	if err := m.conn.QueryRowsCtx(ctx, &resp, query, sessionID, limit); err != nil {
		return nil, err
	}
	return resp, nil
}
