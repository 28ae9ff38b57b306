package repo

import (
	"context"
	"fmt"
	"strings"

	"chefconsole/internal/domain"
	"chefconsole/internal/infra"
	"chefconsole/internal/sqlinline"
)

// PlanDirectoryPG implements domain.PlanDirectory against the CRUD database.
// It only reads; plans and clients are owned by the CRUD service.
type PlanDirectoryPG struct {
	sql infra.SQLExecutor
}

// NewPlanDirectory creates a plan directory backed by PostgreSQL.
func NewPlanDirectory(sql infra.SQLExecutor) *PlanDirectoryPG {
	return &PlanDirectoryPG{sql: sql}
}

// PlanExists reports whether the plan is still present.
func (r *PlanDirectoryPG) PlanExists(ctx context.Context, planID int64) (bool, error) {
	var exists bool
	if err := r.sql.QueryRow(ctx, sqlinline.QPlanExists, planID).Scan(&exists); err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("plan directory: plan exists: %w", err)
	}
	return exists, nil
}

// ClientNameForPlan returns the display name of the plan's client.
func (r *PlanDirectoryPG) ClientNameForPlan(ctx context.Context, planID int64) (string, error) {
	var name string
	if err := r.sql.QueryRow(ctx, sqlinline.QClientNameForPlan, planID).Scan(&name); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("plan directory: client name: %w", err)
	}
	return strings.TrimSpace(name), nil
}

var _ domain.PlanDirectory = (*PlanDirectoryPG)(nil)

// StaticDirectory is used when no database is configured. Every plan is
// assumed to exist and client names come from the optional map.
type StaticDirectory struct {
	Names map[int64]string
}

func (d StaticDirectory) PlanExists(context.Context, int64) (bool, error) { return true, nil }

func (d StaticDirectory) ClientNameForPlan(_ context.Context, planID int64) (string, error) {
	if name, ok := d.Names[planID]; ok {
		return name, nil
	}
	return "", domain.ErrNotFound
}

var _ domain.PlanDirectory = StaticDirectory{}
