package model

import "time"

// Session is one slot of an event's agenda.
type Session struct {
	ID          uint64    `json:"id"`
	EventID     uint64    `json:"event_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	SpeakerName string    `json:"speaker_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Goal is a measurable target for an event, e.g. attendance or revenue.
type Goal struct {
	ID          uint64    `json:"id"`
	EventID     uint64    `json:"event_id"`
	MetricName  string    `json:"metric_name"`
	TargetValue float64   `json:"target_value"`
	ActualValue float64   `json:"actual_value"`
	CreatedAt   time.Time `json:"created_at"`
}

// BudgetItem is one budget category of an event. Amounts are in cents.
type BudgetItem struct {
	ID            uint64    `json:"id"`
	EventID       uint64    `json:"event_id"`
	Category      string    `json:"category"`
	PlannedCents  int64     `json:"planned_cents"`
	ActualCents   int64     `json:"actual_cents"`
	ForecastCents int64     `json:"forecast_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

// ESGMetric is an environmental, social or governance measurement such as
// a carbon footprint in kg CO2e.
type ESGMetric struct {
	ID        uint64    `json:"id"`
	EventID   uint64    `json:"event_id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// StrategyDashboard aggregates planning data over a tenant's events.
// Carbon sums every ESG metric whose name mentions carbon.
type StrategyDashboard struct {
	TotalEvents         int64            `json:"total_events"`
	BudgetPlannedCents  int64            `json:"total_budget_planned_cents"`
	BudgetActualCents   int64            `json:"total_budget_actual_cents"`
	BudgetForecastCents int64            `json:"total_budget_forecast_cents"`
	CarbonFootprint     float64          `json:"total_carbon_footprint"`
	EventsByRegion      map[string]int64 `json:"events_by_region"`
	EventsByStatus      map[string]int64 `json:"events_by_status"`
}
