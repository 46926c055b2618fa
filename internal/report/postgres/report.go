package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/separation-management/internal/report"
	"github.com/jmoiron/sqlx"
)

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

const caseSummaryColumns = `
	c.id, c.case_number, c.employee_id, u.name AS employee_name, c.status,
	c.last_working_day, c.created_at,
	(SELECT COUNT(*) FROM checklist_items i WHERE i.case_id = c.id) AS total_items,
	(SELECT COUNT(*) FROM checklist_items i WHERE i.case_id = c.id AND i.is_completed = ?) AS completed_items`

const visibleClause = `(c.employee_id = ? OR c.direct_manager_id = ? OR c.separation_manager_id = ?
	OR c.id IN (SELECT case_id FROM signoffs WHERE manager_id = ?))`

func (r *ReportRepository) ActiveCase(ctx context.Context, employeeID int64, closed []string) (*report.CaseSummary, error) {
	query, args, err := sqlx.In(`
SELECT `+caseSummaryColumns+`
FROM separation_cases c
JOIN users u ON u.id = c.employee_id
WHERE c.employee_id = ? AND c.status NOT IN (?)
ORDER BY c.created_at DESC, c.id DESC
LIMIT 1`, true, employeeID, closed)
	if err != nil {
		return nil, fmt.Errorf("active case query: %w", err)
	}

	var c report.CaseSummary
	if err := r.db.GetContext(ctx, &c, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("active case query: %w", err)
	}
	return &c, nil
}

func (r *ReportRepository) StatusTotals(ctx context.Context, visibleTo *int64) ([]report.StatusTotal, error) {
	query := `SELECT c.status, COUNT(*) AS count FROM separation_cases c`
	var args []interface{}
	if visibleTo != nil {
		query += ` WHERE ` + visibleClause
		args = append(args, *visibleTo, *visibleTo, *visibleTo, *visibleTo)
	}
	query += ` GROUP BY c.status ORDER BY c.status`

	var totals []report.StatusTotal
	if err := r.db.SelectContext(ctx, &totals, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("status totals query: %w", err)
	}
	return totals, nil
}

func (r *ReportRepository) RecentCases(ctx context.Context, visibleTo *int64, limit int) ([]*report.CaseSummary, error) {
	query := `SELECT ` + caseSummaryColumns + `
FROM separation_cases c
JOIN users u ON u.id = c.employee_id`
	args := []interface{}{true}
	if visibleTo != nil {
		query += ` WHERE ` + visibleClause
		args = append(args, *visibleTo, *visibleTo, *visibleTo, *visibleTo)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC LIMIT ?`
	args = append(args, limit)

	var cases []*report.CaseSummary
	if err := r.db.SelectContext(ctx, &cases, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("recent cases query: %w", err)
	}
	return cases, nil
}

func (r *ReportRepository) PendingSignOffs(ctx context.Context, managerID *int64, closed []string) ([]*report.PendingSignOff, error) {
	query := `
SELECT s.id AS signoff_id, s.case_id, c.case_number, u.name AS employee_name,
	d.name AS department_name, s.manager_id, s.assigned_at
FROM signoffs s
JOIN separation_cases c ON c.id = s.case_id
JOIN users u ON u.id = c.employee_id
JOIN departments d ON d.id = s.department_id
WHERE s.status = ? AND c.status NOT IN (?)`
	args := []interface{}{"pending", closed}
	if managerID != nil {
		query += ` AND s.manager_id = ?`
		args = append(args, *managerID)
	}
	query += ` ORDER BY s.assigned_at ASC, s.id ASC`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("pending sign-offs query: %w", err)
	}

	var pending []*report.PendingSignOff
	if err := r.db.SelectContext(ctx, &pending, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("pending sign-offs query: %w", err)
	}
	return pending, nil
}
