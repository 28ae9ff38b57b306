package domain

import "context"

// PlanDirectory resolves plans and clients owned by the external CRUD service.
type PlanDirectory interface {
	PlanExists(ctx context.Context, planID int64) (bool, error)
	ClientNameForPlan(ctx context.Context, planID int64) (string, error)
}
