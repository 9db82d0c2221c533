package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRegistration(t *testing.T) {
	body, err := json.Marshal(RegistrationConfirmedEvent{
		RegistrationID: 9, TenantID: 2, EventTitle: "Spring Gala", UserEmail: "ann@example.org",
		TicketType: "VIP", AmountCents: 2500, Currency: "EUR", ConfirmationCode: "ABCDEF0123456789",
		ConfirmedAt: "2026-04-01T10:00:00Z",
	})
	require.NoError(t, err)

	line, err := Render(RegistrationConfirmedKey, body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "[2026-04-01T10:00:00Z] Registration confirmed"))
	assert.Contains(t, line, `event="Spring Gala"`)
	assert.Contains(t, line, "total=2500 EUR")
	assert.Contains(t, line, "code=ABCDEF0123456789")
}

func TestRenderDonationWithoutCampaign(t *testing.T) {
	body, err := json.Marshal(DonationReceivedEvent{DonationID: 1, DonorEmail: "d@example.org", AmountCents: 100, Currency: "EUR"})
	require.NoError(t, err)

	line, err := Render(DonationReceivedKey, body)
	require.NoError(t, err)
	assert.Contains(t, line, "campaign=general")
}

func TestRenderEmailList(t *testing.T) {
	body, err := json.Marshal(EmailListSendEvent{
		ListID: 4, TenantID: 2, EventTitle: "Spring Gala", Subject: "Doors open at 7",
		Recipients: []string{"ann@example.org", "bob@example.org"}, RequestedAt: "2026-04-01T10:00:00Z",
	})
	require.NoError(t, err)

	line, err := Render(EmailListSendKey, body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "[2026-04-01T10:00:00Z] Event mailing"))
	assert.Contains(t, line, "to=ann@example.org,bob@example.org")
	assert.Contains(t, line, `subject="Doors open at 7"`)
	assert.Contains(t, line, "recipients=2")
}

func TestRenderRejectsBadInput(t *testing.T) {
	_, err := Render(FeePaidKey, []byte("{"))
	assert.Error(t, err)

	_, err = Render("unknown.key", []byte("{}"))
	assert.Error(t, err)
}

func TestFileNotifierAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notifications.log")
	n := &FileNotifier{Path: path}

	require.NoError(t, n.Notify("one"))
	require.NoError(t, n.Notify("two"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestConsumerHandleWritesNotification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "n.log")
	c := &Consumer{Notifier: &FileNotifier{Path: path}}

	body, err := json.Marshal(FeePaidEvent{PaymentID: 3, FeeName: "Annual", AmountCents: 5000, Currency: "EUR"})
	require.NoError(t, err)
	require.NoError(t, c.handle(FeePaidKey, body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fee="Annual"`)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), FeePaidKey, FeePaidEvent{}))
}
