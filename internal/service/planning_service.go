package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/repository"
)

type AgendaStore interface {
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, tenantID, id uint64) (model.Session, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Session, error)
	Update(ctx context.Context, tenantID, id uint64, u repository.SessionUpdate) (model.Session, error)
	Delete(ctx context.Context, tenantID, id uint64) error
}

type StrategyStore interface {
	CreateGoal(ctx context.Context, g *model.Goal) error
	ListGoals(ctx context.Context, eventID uint64) ([]model.Goal, error)
	CreateBudgetItem(ctx context.Context, b *model.BudgetItem) error
	ListBudget(ctx context.Context, eventID uint64) ([]model.BudgetItem, error)
	CreateESGMetric(ctx context.Context, m *model.ESGMetric) error
	ListESGMetrics(ctx context.Context, eventID uint64) ([]model.ESGMetric, error)
	Dashboard(ctx context.Context, tenantID uint64) (model.StrategyDashboard, error)
}

type EmailListStore interface {
	Create(ctx context.Context, l *model.EmailList) error
	Get(ctx context.Context, tenantID, eventID, id uint64) (model.EmailList, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.EmailList, error)
	MarkSent(ctx context.Context, id uint64, at time.Time) error
	MarkFailed(ctx context.Context, id uint64) error
}

// PlanningService covers everything hung off an event besides tickets:
// the agenda, strategy data and email lists. Every call first checks the
// event belongs to the caller's tenant.
type PlanningService struct {
	events    EventReader
	agenda    AgendaStore
	strategy  StrategyStore
	lists     EmailListStore
	publisher queue.Publisher
	clock     clock.Clock
}

func NewPlanningService(events EventReader, agenda AgendaStore, strategy StrategyStore, lists EmailListStore,
	publisher queue.Publisher, clk clock.Clock) *PlanningService {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &PlanningService{events: events, agenda: agenda, strategy: strategy, lists: lists,
		publisher: publisher, clock: clk}
}

func (s *PlanningService) event(ctx context.Context, tenantID, id uint64) (model.Event, error) {
	e, err := s.events.Get(ctx, tenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

func validateSession(ss model.Session) error {
	switch {
	case ss.Title == "":
		return invalid("title", "is required")
	case ss.StartTime.IsZero() || ss.EndTime.IsZero():
		return invalid("start_time", "start_time and end_time are required")
	case !ss.EndTime.After(ss.StartTime):
		return invalid("end_time", "must be after start_time")
	}
	return nil
}

func (s *PlanningService) CreateSession(ctx context.Context, tenantID uint64, ss *model.Session) error {
	ss.Title = strings.TrimSpace(ss.Title)
	if err := validateSession(*ss); err != nil {
		return err
	}
	if _, err := s.event(ctx, tenantID, ss.EventID); err != nil {
		return err
	}
	return s.agenda.Create(ctx, ss)
}

func (s *PlanningService) ListSessions(ctx context.Context, eventID uint64) ([]model.Session, error) {
	return s.agenda.ListByEvent(ctx, eventID)
}

// UpdateSession applies u after checking the merged times still make sense.
func (s *PlanningService) UpdateSession(ctx context.Context, tenantID, id uint64, u repository.SessionUpdate) (model.Session, error) {
	cur, err := s.agenda.Get(ctx, tenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		u.Title = &t
		cur.Title = t
	}
	if u.StartTime != nil {
		cur.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		cur.EndTime = *u.EndTime
	}
	if err := validateSession(cur); err != nil {
		return model.Session{}, err
	}
	out, err := s.agenda.Update(ctx, tenantID, id, u)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Session{}, ErrSessionNotFound
	}
	return out, err
}

func (s *PlanningService) DeleteSession(ctx context.Context, tenantID, id uint64) error {
	err := s.agenda.Delete(ctx, tenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

func (s *PlanningService) CreateGoal(ctx context.Context, tenantID uint64, g *model.Goal) error {
	g.MetricName = strings.TrimSpace(g.MetricName)
	switch {
	case g.MetricName == "":
		return invalid("metric_name", "is required")
	case g.TargetValue < 0:
		return invalid("target_value", "must not be negative")
	case g.ActualValue < 0:
		return invalid("actual_value", "must not be negative")
	}
	if _, err := s.event(ctx, tenantID, g.EventID); err != nil {
		return err
	}
	return s.strategy.CreateGoal(ctx, g)
}

func (s *PlanningService) CreateBudgetItem(ctx context.Context, tenantID uint64, b *model.BudgetItem) error {
	b.Category = strings.TrimSpace(b.Category)
	switch {
	case b.Category == "":
		return invalid("category", "is required")
	case b.PlannedCents < 0 || b.ActualCents < 0 || b.ForecastCents < 0:
		return invalid("planned_cents", "amounts must not be negative")
	}
	if _, err := s.event(ctx, tenantID, b.EventID); err != nil {
		return err
	}
	return s.strategy.CreateBudgetItem(ctx, b)
}

func (s *PlanningService) CreateESGMetric(ctx context.Context, tenantID uint64, m *model.ESGMetric) error {
	m.Metric = strings.TrimSpace(m.Metric)
	m.Unit = strings.TrimSpace(m.Unit)
	switch {
	case m.Metric == "":
		return invalid("metric", "is required")
	case m.Unit == "":
		return invalid("unit", "is required")
	}
	if _, err := s.event(ctx, tenantID, m.EventID); err != nil {
		return err
	}
	return s.strategy.CreateESGMetric(ctx, m)
}

// Strategy returns the goals, budget lines and ESG metrics of one event.
func (s *PlanningService) Strategy(ctx context.Context, tenantID, eventID uint64) ([]model.Goal, []model.BudgetItem, []model.ESGMetric, error) {
	if _, err := s.event(ctx, tenantID, eventID); err != nil {
		return nil, nil, nil, err
	}
	goals, err := s.strategy.ListGoals(ctx, eventID)
	if err != nil {
		return nil, nil, nil, err
	}
	budget, err := s.strategy.ListBudget(ctx, eventID)
	if err != nil {
		return nil, nil, nil, err
	}
	esg, err := s.strategy.ListESGMetrics(ctx, eventID)
	if err != nil {
		return nil, nil, nil, err
	}
	return goals, budget, esg, nil
}

func (s *PlanningService) Dashboard(ctx context.Context, tenantID uint64) (model.StrategyDashboard, error) {
	return s.strategy.Dashboard(ctx, tenantID)
}

func (s *PlanningService) CreateEmailList(ctx context.Context, tenantID uint64, l *model.EmailList) error {
	l.Name = strings.TrimSpace(l.Name)
	l.Subject = strings.TrimSpace(l.Subject)
	switch {
	case l.Name == "":
		return invalid("name", "is required")
	case l.Subject == "":
		return invalid("subject", "is required")
	case strings.TrimSpace(l.Body) == "":
		return invalid("body", "is required")
	}
	seen := make(map[string]bool, len(l.Recipients))
	recipients := l.Recipients[:0]
	for _, r := range l.Recipients {
		addr, err := mail.ParseAddress(strings.TrimSpace(r.Email))
		if err != nil {
			return invalid("recipients", fmt.Sprintf("%q is not a valid email", r.Email))
		}
		key := strings.ToLower(addr.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		recipients = append(recipients, model.EmailRecipient{Email: addr.Address, Name: strings.TrimSpace(r.Name)})
	}
	l.Recipients = recipients
	if _, err := s.event(ctx, tenantID, l.EventID); err != nil {
		return err
	}
	return s.lists.Create(ctx, l)
}

func (s *PlanningService) ListEmailLists(ctx context.Context, tenantID, eventID uint64) ([]model.EmailList, error) {
	if _, err := s.event(ctx, tenantID, eventID); err != nil {
		return nil, err
	}
	return s.lists.ListByEvent(ctx, eventID)
}

// SendEmailList hands a list to the mailer through the queue. A list is sent
// once; if the hand-off fails it is marked FAILED and may be retried.
func (s *PlanningService) SendEmailList(ctx context.Context, tenantID, eventID, id uint64) (model.EmailList, error) {
	log := logger.FromContext(ctx)
	event, err := s.event(ctx, tenantID, eventID)
	if err != nil {
		return model.EmailList{}, err
	}
	l, err := s.lists.Get(ctx, tenantID, eventID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.EmailList{}, ErrEmailListNotFound
	}
	if err != nil {
		return model.EmailList{}, err
	}
	if l.Status == model.EmailListSent {
		return model.EmailList{}, ErrEmailListSent
	}
	if len(l.Recipients) == 0 {
		return model.EmailList{}, invalid("recipients", "list has no recipients")
	}

	now := s.clock.Now()
	if err := s.lists.MarkSent(ctx, l.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.EmailList{}, ErrEmailListSent
		}
		return model.EmailList{}, err
	}

	to := make([]string, 0, len(l.Recipients))
	for _, r := range l.Recipients {
		to = append(to, r.Email)
	}
	ev := queue.EmailListSendEvent{
		ListID:      l.ID,
		TenantID:    tenantID,
		EventID:     event.ID,
		EventTitle:  event.Title,
		Subject:     l.Subject,
		Body:        l.Body,
		Recipients:  to,
		RequestedAt: now.Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, queue.EmailListSendKey, ev); err != nil {
		log.Warn("publish email_list.send failed", zap.Uint64("list_id", l.ID), zap.Error(err))
		if mErr := s.lists.MarkFailed(context.WithoutCancel(ctx), l.ID); mErr != nil {
			log.Error("mark email list failed", zap.Uint64("list_id", l.ID), zap.Error(mErr))
		}
		return model.EmailList{}, fmt.Errorf("send email list: %w", err)
	}

	log.Info("email list sent", zap.Uint64("tenant_id", tenantID), zap.Uint64("list_id", l.ID), zap.Int("recipients", len(to)))
	l.Status = model.EmailListSent
	l.SentAt = &now
	return l, nil
}
