package report

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/separation-management/internal"
	"github.com/frahmantamala/separation-management/internal/auth"
	"github.com/frahmantamala/separation-management/internal/separation"
)

type RepositoryAPI interface {
	// ActiveCase returns nil, nil when the employee has no open case.
	ActiveCase(ctx context.Context, employeeID int64, closed []string) (*CaseSummary, error)
	// StatusTotals and RecentCases are limited to cases visibleTo can see; nil means all cases.
	StatusTotals(ctx context.Context, visibleTo *int64) ([]StatusTotal, error)
	RecentCases(ctx context.Context, visibleTo *int64, limit int) ([]*CaseSummary, error)
	// PendingSignOffs lists open requests on open cases; nil managerID means every manager.
	PendingSignOffs(ctx context.Context, managerID *int64, closed []string) ([]*PendingSignOff, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func closedStatuses() []string {
	return []string{string(separation.StatusCompleted), string(separation.StatusCancelled)}
}

func (s *Service) Dashboard(ctx context.Context, actor *auth.Actor) (*Dashboard, error) {
	d := &Dashboard{Role: string(actor.Role)}

	active, err := s.repo.ActiveCase(ctx, actor.ID, closedStatuses())
	if err != nil {
		return nil, internal.NewInternalError("failed to load active case", err)
	}
	if active != nil {
		active.computeProgress()
		d.ActiveCase = active
	}

	if !actor.IsManager() {
		return d, nil
	}

	var scope *int64
	if !auth.Can(actor, auth.ActionCaseListAll, auth.Resource{}) {
		scope = &actor.ID
	}

	totals, err := s.repo.StatusTotals(ctx, scope)
	if err != nil {
		return nil, internal.NewInternalError("failed to load case totals", err)
	}
	d.Totals = make(map[string]int, len(separation.Statuses))
	for _, st := range separation.Statuses {
		d.Totals[string(st)] = 0
	}
	for _, t := range totals {
		d.Totals[t.Status] = t.Count
		d.TotalCases += t.Count
	}

	pending, err := s.repo.PendingSignOffs(ctx, scope, closedStatuses())
	if err != nil {
		return nil, internal.NewInternalError("failed to load pending sign-offs", err)
	}
	d.PendingSignOffs = pending

	recent, err := s.repo.RecentCases(ctx, scope, recentCaseLimit)
	if err != nil {
		return nil, internal.NewInternalError("failed to load recent cases", err)
	}
	for _, c := range recent {
		c.computeProgress()
	}
	d.RecentCases = recent

	s.logger.Debug("dashboard built",
		"actor_id", actor.ID,
		"total_cases", d.TotalCases,
		"pending_signoffs", len(pending))
	return d, nil
}
