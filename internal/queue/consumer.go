package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notifier delivers a rendered notification. Outbound email is out of
// process; FileNotifier appends to a log file for it to pick up.
type Notifier interface {
	Notify(line string) error
}

// FileNotifier appends one line per notification to Path.
type FileNotifier struct {
	Path string
	mu   sync.Mutex
}

func (n *FileNotifier) Notify(line string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(n.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(n.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open notification log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write notification log: %w", err)
	}
	return nil
}

// Consumer reads every domain event queue and hands rendered notifications
// to a Notifier.
type Consumer struct {
	URL      string
	Notifier Notifier
	Log      *zap.Logger
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn("notification consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("notification consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

type delivery struct {
	key string
	amqp.Delivery
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("notification consumer: set QoS failed", zap.Error(err))
	}
	if err := declareQueues(ch); err != nil {
		return err
	}

	merged := make(chan delivery)
	var wg sync.WaitGroup
	for _, name := range RoutingKeys {
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func(name string, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- delivery{key: name, Delivery: d}:
				case <-ctx.Done():
					return
				}
			}
		}(name, msgs)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return errors.New("deliveries channel closed")
		case d := <-merged:
			if err := c.handle(d.key, d.Body); err != nil {
				log.Error("notification consumer: handle message failed", zap.String("queue", d.key), zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(key string, body []byte) error {
	line, err := Render(key, body)
	if err != nil {
		return err
	}
	return c.Notifier.Notify(line)
}

// Render turns a message body from queue key into a single human-readable
// notification line.
func Render(key string, body []byte) (string, error) {
	switch key {
	case RegistrationConfirmedKey:
		var ev RegistrationConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Registration confirmed | to=%s | tenant_id=%d | registration_id=%d | event=%q | starts_at=%s | ticket=%q | total=%d %s | code=%s",
			ev.ConfirmedAt, ev.UserEmail, ev.TenantID, ev.RegistrationID, ev.EventTitle, ev.StartsAt, ev.TicketType, ev.AmountCents, ev.Currency, ev.ConfirmationCode), nil
	case DonationReceivedKey:
		var ev DonationReceivedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		campaign := "general"
		if ev.CampaignID != nil {
			campaign = fmt.Sprintf("%d", *ev.CampaignID)
		}
		return fmt.Sprintf("[%s] Donation receipt | to=%s | donor=%q | tenant_id=%d | donation_id=%d | campaign=%s | amount=%d %s | trx=%s",
			ev.ReceivedAt, ev.DonorEmail, ev.DonorName, ev.TenantID, ev.DonationID, campaign, ev.AmountCents, ev.Currency, ev.TransactionID), nil
	case FeePaidKey:
		var ev FeePaidEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Fee payment receipt | to=%s | tenant_id=%d | payment_id=%d | fee=%q | amount=%d %s | trx=%s",
			ev.PaidAt, ev.UserEmail, ev.TenantID, ev.PaymentID, ev.FeeName, ev.AmountCents, ev.Currency, ev.TransactionID), nil
	case EmailListSendKey:
		var ev EmailListSendEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Event mailing | to=%s | tenant_id=%d | list_id=%d | event=%q | subject=%q | recipients=%d",
			ev.RequestedAt, strings.Join(ev.Recipients, ","), ev.TenantID, ev.ListID, ev.EventTitle, ev.Subject, len(ev.Recipients)), nil
	}
	return "", fmt.Errorf("unknown queue %q", key)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
