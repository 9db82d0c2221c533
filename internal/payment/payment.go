// Package payment is the boundary to the payment gateway. The only
// implementation shipped is MockProcessor; a real gateway plugs in behind
// Processor.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Method is how a payer settles a charge.
type Method string

const (
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
)

// ParseMethod normalizes s; empty input defaults to card.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodCard, nil
	case MethodCard, MethodBankTransfer, MethodCash:
		return m, nil
	}
	return "", fmt.Errorf("unsupported payment method %q", s)
}

// ErrDeclined is returned when the gateway refuses a charge.
var ErrDeclined = errors.New("payment declined")

// ErrInvalidAmount is returned for non-positive charges.
var ErrInvalidAmount = errors.New("amount must be positive")

// Outcome describes a completed charge or refund.
type Outcome struct {
	TransactionID string
	AmountCents   int64
	Currency      string
	ProcessedAt   time.Time
}

// Processor charges and refunds. Charge returns ErrDeclined when the gateway
// refuses the payment; any other error is a gateway failure.
type Processor interface {
	Charge(ctx context.Context, amountCents int64, currency string, method Method) (Outcome, error)
	Refund(ctx context.Context, transactionID string, amountCents int64) (Outcome, error)
}

// MockProcessor approves every charge up to DeclineAboveCents (when set)
// and issues "TRX-" transaction IDs. It never touches the network and keeps
// the issued IDs so refunds of unknown transactions fail.
type MockProcessor struct {
	DeclineAboveCents int64
	Now               func() time.Time

	mu     sync.Mutex
	issued map[string]int64
}

func NewMockProcessor(declineAboveCents int64) *MockProcessor {
	return &MockProcessor{DeclineAboveCents: declineAboveCents, Now: time.Now}
}

func (m *MockProcessor) Charge(ctx context.Context, amountCents int64, currency string, method Method) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if amountCents <= 0 {
		return Outcome{}, ErrInvalidAmount
	}
	if m.DeclineAboveCents > 0 && amountCents > m.DeclineAboveCents {
		return Outcome{}, ErrDeclined
	}
	id := "TRX-" + strings.ToUpper(uuid.NewString()[:13])

	m.mu.Lock()
	if m.issued == nil {
		m.issued = make(map[string]int64)
	}
	m.issued[id] = amountCents
	m.mu.Unlock()

	return Outcome{TransactionID: id, AmountCents: amountCents, Currency: currency, ProcessedAt: m.now()}, nil
}

func (m *MockProcessor) Refund(ctx context.Context, transactionID string, amountCents int64) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	charged, ok := m.issued[transactionID]
	if !ok {
		return Outcome{}, fmt.Errorf("refund %s: unknown transaction", transactionID)
	}
	if amountCents > charged {
		return Outcome{}, fmt.Errorf("refund %s: amount exceeds charge", transactionID)
	}
	delete(m.issued, transactionID)
	return Outcome{TransactionID: "RFD-" + strings.TrimPrefix(transactionID, "TRX-"), AmountCents: amountCents, ProcessedAt: m.now()}, nil
}

func (m *MockProcessor) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}
