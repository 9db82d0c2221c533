package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/association-platform/internal/model"
)

// StrategyRepo persists event goals, budget lines and ESG metrics, and
// aggregates them per tenant. Callers scope the event to the tenant first.
type StrategyRepo struct{ DB *sql.DB }

func NewStrategyRepo(db *sql.DB) *StrategyRepo { return &StrategyRepo{DB: db} }

func (r *StrategyRepo) CreateGoal(ctx context.Context, g *model.Goal) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO event_goals (event_id, metric_name, target_value, actual_value, created_at) VALUES (?,?,?,?,?)",
		g.EventID, g.MetricName, g.TargetValue, g.ActualValue, now)
	if err != nil {
		return err
	}
	if g.ID, err = lastInsertID(res); err != nil {
		return err
	}
	g.CreatedAt = now
	return nil
}

func (r *StrategyRepo) ListGoals(ctx context.Context, eventID uint64) ([]model.Goal, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT id, event_id, metric_name, target_value, actual_value, created_at FROM event_goals WHERE event_id=? ORDER BY id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Goal{}
	for rows.Next() {
		var g model.Goal
		if err := rows.Scan(&g.ID, &g.EventID, &g.MetricName, &g.TargetValue, &g.ActualValue, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *StrategyRepo) CreateBudgetItem(ctx context.Context, b *model.BudgetItem) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO event_budget_items (event_id, category, planned_cents, actual_cents, forecast_cents, created_at) VALUES (?,?,?,?,?,?)",
		b.EventID, b.Category, b.PlannedCents, b.ActualCents, b.ForecastCents, now)
	if err != nil {
		return err
	}
	if b.ID, err = lastInsertID(res); err != nil {
		return err
	}
	b.CreatedAt = now
	return nil
}

func (r *StrategyRepo) ListBudget(ctx context.Context, eventID uint64) ([]model.BudgetItem, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT id, event_id, category, planned_cents, actual_cents, forecast_cents, created_at FROM event_budget_items WHERE event_id=? ORDER BY id",
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BudgetItem{}
	for rows.Next() {
		var b model.BudgetItem
		if err := rows.Scan(&b.ID, &b.EventID, &b.Category, &b.PlannedCents, &b.ActualCents, &b.ForecastCents, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *StrategyRepo) CreateESGMetric(ctx context.Context, m *model.ESGMetric) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO event_esg_metrics (event_id, metric, value, unit, created_at) VALUES (?,?,?,?,?)",
		m.EventID, m.Metric, m.Value, m.Unit, now)
	if err != nil {
		return err
	}
	if m.ID, err = lastInsertID(res); err != nil {
		return err
	}
	m.CreatedAt = now
	return nil
}

func (r *StrategyRepo) ListESGMetrics(ctx context.Context, eventID uint64) ([]model.ESGMetric, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT id, event_id, metric, value, unit, created_at FROM event_esg_metrics WHERE event_id=? ORDER BY id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ESGMetric{}
	for rows.Next() {
		var m model.ESGMetric
		if err := rows.Scan(&m.ID, &m.EventID, &m.Metric, &m.Value, &m.Unit, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Dashboard aggregates every event of tenantID in SQL.
func (r *StrategyRepo) Dashboard(ctx context.Context, tenantID uint64) (model.StrategyDashboard, error) {
	d := model.StrategyDashboard{EventsByRegion: map[string]int64{}, EventsByStatus: map[string]int64{}}
	c := conn(ctx, r.DB)

	err := c.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE tenant_id=?", tenantID).Scan(&d.TotalEvents)
	if err != nil {
		return d, err
	}
	err = c.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(b.planned_cents), 0), COALESCE(SUM(b.actual_cents), 0), COALESCE(SUM(b.forecast_cents), 0)
		 FROM event_budget_items b JOIN events e ON e.id = b.event_id WHERE e.tenant_id=?`, tenantID).
		Scan(&d.BudgetPlannedCents, &d.BudgetActualCents, &d.BudgetForecastCents)
	if err != nil {
		return d, err
	}
	err = c.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(m.value), 0) FROM event_esg_metrics m JOIN events e ON e.id = m.event_id
		 WHERE e.tenant_id=? AND LOWER(m.metric) LIKE ?`, tenantID, "%carbon%").Scan(&d.CarbonFootprint)
	if err != nil {
		return d, err
	}
	if err := groupCount(ctx, c, d.EventsByRegion,
		"SELECT region, COUNT(*) FROM events WHERE tenant_id=? GROUP BY region", tenantID); err != nil {
		return d, err
	}
	if err := groupCount(ctx, c, d.EventsByStatus,
		"SELECT status, COUNT(*) FROM events WHERE tenant_id=? GROUP BY status", tenantID); err != nil {
		return d, err
	}
	return d, nil
}

// groupCount fills dst from a (key, count) query. An empty key is
// reported as "unspecified".
func groupCount(ctx context.Context, c dbtx, dst map[string]int64, q string, args ...any) error {
	rows, err := c.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		if key == "" {
			key = "unspecified"
		}
		dst[key] = n
	}
	return rows.Err()
}
