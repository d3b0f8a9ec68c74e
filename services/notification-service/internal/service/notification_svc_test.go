package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/travel/pkg/events"
	"github.com/mamadbah2/travel/services/notification-service/internal/domain"
)

type fakeNotificationRepo struct {
	rows []domain.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByTraveler(ctx context.Context, travelerID string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.rows {
		if n.TravelerID == travelerID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) Send(recipient, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, subject)
	return nil
}

func TestHandleSubscriptionCreated_SendsAndRecords(t *testing.T) {
	repo := &fakeNotificationRepo{}
	mailer := &fakeMailer{}
	svc := NewNotificationService(repo, mailer, zerolog.Nop())

	err := svc.HandleSubscriptionCreated(context.Background(), events.SubscriptionCreated{
		SubscriptionID: "sub-1",
		TravelerID:     "11111111-2222-3333-4444-555555555555",
		TravelTitle:    "Saly Beach Week",
		Amount:         250000,
		Currency:       "XOF",
	})
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)

	row := repo.rows[0]
	assert.Equal(t, domain.TypeSubscriptionCreated, row.Type)
	assert.Equal(t, domain.StatusSent, row.Status)
	assert.Equal(t, "traveler-11111111@travel.sn", row.Recipient)
	assert.Contains(t, row.Body, "Saly Beach Week")
	assert.Contains(t, row.Body, "sub-1")
	assert.Len(t, mailer.sent, 1)
}

func TestHandlePaymentCompleted_SuccessAndFailureWording(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeMailer{}, zerolog.Nop())

	require.NoError(t, svc.HandlePaymentCompleted(context.Background(), events.PaymentCompleted{
		SubscriptionID: "sub-1",
		TravelerID:     "trav1",
		Status:         "SUCCESS",
		TransactionID:  "SIM-ABCD1234",
	}))
	require.NoError(t, svc.HandlePaymentCompleted(context.Background(), events.PaymentCompleted{
		SubscriptionID: "sub-2",
		TravelerID:     "trav1",
		Status:         "FAILED",
		FailureReason:  "invalid amount",
	}))

	require.Len(t, repo.rows, 2)
	assert.Equal(t, domain.TypePaymentSuccess, repo.rows[0].Type)
	assert.Contains(t, repo.rows[0].Body, "SIM-ABCD1234")
	assert.Equal(t, domain.TypePaymentFailed, repo.rows[1].Type)
	assert.Contains(t, repo.rows[1].Body, "invalid amount")
	assert.Contains(t, repo.rows[1].Body, "cancelled")
}

func TestSendFailureRecordedAsFailed(t *testing.T) {
	repo := &fakeNotificationRepo{}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := NewNotificationService(repo, mailer, zerolog.Nop())

	err := svc.HandleSubscriptionCreated(context.Background(), events.SubscriptionCreated{
		SubscriptionID: "sub-1",
		TravelerID:     "trav1",
		TravelTitle:    "Saly Beach Week",
	})
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, domain.StatusFailed, repo.rows[0].Status)
	assert.Equal(t, "smtp down", repo.rows[0].Error)
}
