package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/association-platform/internal/model"
)

// StatsRepo computes platform-wide counters.
type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

// Platform counts rows across all tenants. Only paid donations contribute
// to the donation amount.
func (r *StatsRepo) Platform(ctx context.Context) (model.PlatformStats, error) {
	var s model.PlatformStats
	c := conn(ctx, r.DB)
	counts := []struct {
		q    string
		args []any
		dst  *int64
	}{
		{"SELECT COUNT(*) FROM tenants", nil, &s.Tenants},
		{"SELECT COUNT(*) FROM tenants WHERE is_active=?", []any{true}, &s.ActiveTenants},
		{"SELECT COUNT(*) FROM users", nil, &s.Users},
		{"SELECT COUNT(*) FROM events", nil, &s.Events},
		{"SELECT COUNT(*) FROM event_registrations", nil, &s.Registrations},
		{"SELECT COUNT(*) FROM donations", nil, &s.Donations},
		{"SELECT COALESCE(SUM(amount_cents), 0) FROM donations WHERE payment_status=?", []any{model.PaymentPaid}, &s.DonationAmountCents},
	}
	for _, q := range counts {
		if err := c.QueryRowContext(ctx, q.q, q.args...).Scan(q.dst); err != nil {
			return model.PlatformStats{}, err
		}
	}
	return s, nil
}
