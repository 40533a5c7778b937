package handlers

import (
	"net/http"

	"tourify/middleware"
	"tourify/models"
	bookingService "tourify/services/booking"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// BookingHandler serves the booking admin CRUD, the checkout flow and the
// payment webhook.
type BookingHandler struct {
	factory *Factory[models.Booking, models.BookingUpdate]
	svc     *bookingService.Service
}

// NewBookingHandler wires the booking factory and the checkout service.
func NewBookingHandler(svc *bookingService.Service) *BookingHandler {
	factory := &Factory[models.Booking, models.BookingUpdate]{
		Coll: svc.Bookings,
		Name: "booking",
	}
	return &BookingHandler{factory: factory, svc: svc}
}

func (h *BookingHandler) GetAllBookings(c *gin.Context) { h.factory.GetAll(c) }
func (h *BookingHandler) GetBooking(c *gin.Context)     { h.factory.GetOne(c) }
func (h *BookingHandler) CreateBooking(c *gin.Context)  { h.factory.CreateOne(c) }
func (h *BookingHandler) UpdateBooking(c *gin.Context)  { h.factory.UpdateOne(c) }
func (h *BookingHandler) DeleteBooking(c *gin.Context)  { h.factory.DeleteOne(c) }

// GetCheckoutSession creates a Stripe checkout session for the tour in the
// path and returns it to the client.
func (h *BookingHandler) GetCheckoutSession(c *gin.Context) {
	principal := middleware.CurrentUser(c)
	if principal == nil {
		utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
		return
	}

	sess, err := h.svc.CreateCheckoutSession(c.Request.Context(), c.Param("tourId"), principal)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "session": sess})
}

// WebhookCheckout receives Stripe events. Verification failures reject the
// event; nothing is recorded on an unverified payload.
func (h *BookingHandler) WebhookCheckout(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.Fail(c, utils.BadRequest("Failed to read webhook payload"))
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GetMyBookings lists the principal's own bookings.
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	principal := middleware.CurrentUser(c)
	if principal == nil {
		utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
		return
	}

	scoped := &Factory[models.Booking, models.BookingUpdate]{
		Coll: h.svc.Bookings,
		Name: "booking",
		Scope: func(c *gin.Context) bson.M {
			return bson.M{"user": principal.ID}
		},
	}
	scoped.GetAll(c)
}
