package booking

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"tourify/database/query"
	"tourify/database/repository"
	"tourify/models"
	"tourify/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

// memBookings records created bookings.
type memBookings struct {
	created []models.Booking
}

func (m *memBookings) Find(ctx context.Context, opts *query.Options) ([]models.Booking, error) {
	return m.created, nil
}

func (m *memBookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return nil, repository.ErrNotFound
}

func (m *memBookings) Create(ctx context.Context, doc *models.Booking) error {
	doc.SetID(fmt.Sprintf("booking-%d", len(m.created)+1))
	m.created = append(m.created, *doc)
	return nil
}

func (m *memBookings) UpdateByID(ctx context.Context, id string, patch bson.M) (*models.Booking, error) {
	return nil, repository.ErrNotFound
}

func (m *memBookings) DeleteByID(ctx context.Context, id string) error {
	return repository.ErrNotFound
}

func (m *memBookings) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	return nil
}

type memTours struct {
	tours map[string]*models.Tour
}

func (m *memTours) GetByID(ctx context.Context, id string) (*models.Tour, error) {
	tour, ok := m.tours[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tour, nil
}

type memUserLookup struct {
	users map[string]*models.User
}

func (m *memUserLookup) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func newTestService(bookings *memBookings) *Service {
	user := &models.User{Name: "Alice", Email: "alice@example.com"}
	user.ID = "u1"
	tour := &models.Tour{Name: "The Forest Hiker", Summary: "Breathtaking hike", Price: 497}
	tour.ID = "t1"

	return &Service{
		Tours:         &memTours{tours: map[string]*models.Tour{"t1": tour}},
		Users:         &memUserLookup{users: map[string]*models.User{"alice@example.com": user}},
		Bookings:      bookings,
		WebhookSecret: testWebhookSecret,
		Logger:        zap.NewNop(),
	}
}

// signPayload produces a valid Stripe-Signature header for the payload.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedPayload(tourID, email string, amountTotal int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"client_reference_id": %q,
				"customer_details": {"email": %q},
				"amount_total": %d
			}
		}
	}`, stripe.APIVersion, tourID, email, amountTotal))
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	bookings := &memBookings{}
	svc := newTestService(bookings)
	payload := checkoutCompletedPayload("t1", "alice@example.com", 49700)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "garbage header", header: "t=123,v1=deadbeef"},
		{name: "wrong secret", header: signPayload(payload, "whsec_wrong", time.Now())},
		{name: "stale timestamp", header: signPayload(payload, testWebhookSecret, time.Now().Add(-24*time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.HandleWebhook(context.Background(), payload, tt.header)
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, 400, appErr.Code)
			// Fail closed: nothing was recorded.
			assert.Empty(t, bookings.created)
		})
	}
}

func TestHandleWebhookRecordsPaidBooking(t *testing.T) {
	bookings := &memBookings{}
	svc := newTestService(bookings)
	payload := checkoutCompletedPayload("t1", "alice@example.com", 49700)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)

	require.Len(t, bookings.created, 1)
	booking := bookings.created[0]
	assert.Equal(t, "t1", booking.Tour)
	assert.Equal(t, "u1", booking.User)
	assert.Equal(t, 497.0, booking.Price)
	assert.True(t, booking.Paid)
}

func TestHandleWebhookIgnoresOtherEventTypes(t *testing.T) {
	bookings := &memBookings{}
	svc := newTestService(bookings)
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test_2",
		"object": "event",
		"api_version": %q,
		"type": "payment_intent.created",
		"data": {"object": {}}
	}`, stripe.APIVersion))

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret, time.Now()))
	assert.NoError(t, err)
	assert.Empty(t, bookings.created)
}

func TestHandleWebhookUnknownCustomer(t *testing.T) {
	bookings := &memBookings{}
	svc := newTestService(bookings)
	payload := checkoutCompletedPayload("t1", "stranger@example.com", 49700)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret, time.Now()))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
	assert.Empty(t, bookings.created)
}

func TestHandleWebhookMissingTourReference(t *testing.T) {
	bookings := &memBookings{}
	svc := newTestService(bookings)
	payload := checkoutCompletedPayload("", "alice@example.com", 49700)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret, time.Now()))
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
	assert.Empty(t, bookings.created)
}

func TestAmountInCents(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{price: 497, want: 49700},
		{price: 19.99, want: 1999},
		// 9.95*100 is 994.999... in binary; rounding keeps the cent.
		{price: 9.95, want: 995},
		{price: 0.3, want: 30},
		{price: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, amountInCents(tt.price), "price %v", tt.price)
	}
}

func TestCreateCheckoutSessionUnknownTour(t *testing.T) {
	svc := newTestService(&memBookings{})
	user := &models.User{Email: "alice@example.com"}
	user.ID = "u1"

	_, err := svc.CreateCheckoutSession(context.Background(), "missing", user)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.Code)
}
