package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"tourify/database/repository"
	"tourify/models"
	"tourify/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// TourReader resolves tours for checkout and webhook correlation.
type TourReader interface {
	GetByID(ctx context.Context, id string) (*models.Tour, error)
}

// UserReader resolves the payer identity from the webhook's customer email.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service creates Stripe checkout sessions and turns confirmed payments
// into bookings.
type Service struct {
	Tours         TourReader
	Users         UserReader
	Bookings      repository.Collection[models.Booking]
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Logger        *zap.Logger
}

// CreateCheckoutSession builds a Stripe checkout session for one tour. The
// tour id rides along as the client reference so the webhook can correlate
// the payment back to it.
func (s *Service) CreateCheckoutSession(ctx context.Context, tourID string, user *models.User) (*stripe.CheckoutSession, error) {
	tour, err := s.Tours.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound("No tour found with that ID")
		}
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.SuccessURL),
		CancelURL:         stripe.String(s.CancelURL),
		CustomerEmail:     stripe.String(user.Email),
		ClientReferenceID: stripe.String(tour.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(amountInCents(tour.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(fmt.Sprintf("%s Tour", tour.Name)),
					Description: stripe.String(tour.Summary),
				},
			},
		}},
	}

	sess, err := session.New(params)
	if err != nil {
		s.Logger.Error("failed to create checkout session", zap.String("tour", tour.ID), zap.Error(err))
		return nil, utils.Internal("Failed to create checkout session")
	}
	return sess, nil
}

// amountInCents converts a price in whole currency units to the smallest
// unit. Rounding, not truncation: 9.95 is 995 cents, not 994.
func amountInCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// HandleWebhook verifies an inbound Stripe event against the shared secret
// and, for completed checkouts, records the booking. An unverifiable event
// is rejected before any side effect.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.WebhookSecret)
	if err != nil {
		return utils.BadRequest("Webhook signature verification failed").Wrap(err)
	}

	if event.Type != "checkout.session.completed" {
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return utils.BadRequest("Malformed checkout session payload").Wrap(err)
	}
	return s.createBookingFromSession(ctx, &sess)
}

func (s *Service) createBookingFromSession(ctx context.Context, sess *stripe.CheckoutSession) error {
	tourID := sess.ClientReferenceID
	if tourID == "" {
		return utils.BadRequest("Checkout session carries no tour reference")
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		return utils.BadRequest("Checkout session carries no customer email")
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NotFound("No user found for the paying customer")
		}
		return err
	}

	booking := &models.Booking{
		Tour:  tourID,
		User:  user.ID,
		Price: float64(sess.AmountTotal) / 100,
		Paid:  true,
	}
	if err := s.Bookings.Create(ctx, booking); err != nil {
		return err
	}

	s.Logger.Info("booking recorded from confirmed payment",
		zap.String("tour", tourID), zap.String("user", user.ID))
	return nil
}
