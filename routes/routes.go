package routes

import (
	"time"

	"tourify/database/repository"
	"tourify/handlers"
	"tourify/middleware"
	"tourify/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Tours    *handlers.TourHandler
	Reviews  *handlers.ReviewHandler
	Users    *handlers.UserHandler
	Bookings *handlers.BookingHandler
}

// RegisterRoutes mounts the full API surface on the engine.
func RegisterRoutes(r *gin.Engine, h Handlers, users *repository.UserRepo) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	protect := middleware.Protect(users)
	adminOnly := middleware.RestrictTo(models.RoleAdmin)
	staffOnly := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)
	guides := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide)

	r.GET("/health", handlers.Health)

	// Stripe calls this endpoint directly; it authenticates with its
	// signature header, not a bearer token.
	r.POST("/webhook-checkout", h.Bookings.WebhookCheckout)

	api := r.Group("/api/v1")

	tours := api.Group("/tours")
	{
		tours.GET("/top-5-cheap", h.Tours.GetTopTours)
		tours.GET("/tour-stats", h.Tours.GetTourStats)
		tours.GET("/monthly-plan/:year", protect, guides, h.Tours.GetMonthlyPlan)
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.Tours.GetToursWithin)
		tours.GET("/distances/:latlng/unit/:unit", h.Tours.GetDistances)

		tours.GET("", h.Tours.GetAllTours)
		tours.GET("/:id", h.Tours.GetTour)
		tours.POST("", protect, staffOnly, h.Tours.CreateTour)
		tours.PATCH("/:id", protect, staffOnly, h.Tours.UpdateTour)
		tours.DELETE("/:id", protect, staffOnly, h.Tours.DeleteTour)
	}

	// Nested review routes reuse the tour segment's :id param and remap it
	// to the :tourId slot the review handlers read.
	nestedReviews := api.Group("/tours/:id/reviews")
	nestedReviews.Use(rewriteTourParam())
	{
		nestedReviews.GET("", h.Reviews.GetAllReviews)
		nestedReviews.POST("", protect, middleware.RestrictTo(models.RoleUser), h.Reviews.CreateReview)
	}

	reviews := api.Group("/reviews")
	reviews.Use(protect)
	{
		reviews.GET("", h.Reviews.GetAllReviews)
		reviews.GET("/:id", h.Reviews.GetReview)
		reviews.POST("", middleware.RestrictTo(models.RoleUser), h.Reviews.CreateReview)
		reviews.PATCH("/:id", middleware.RestrictTo(models.RoleUser, models.RoleAdmin), h.Reviews.UpdateReview)
		reviews.DELETE("/:id", middleware.RestrictTo(models.RoleUser, models.RoleAdmin), h.Reviews.DeleteReview)
	}

	usersGroup := api.Group("/users")
	{
		usersGroup.POST("/signup", h.Auth.Signup)
		usersGroup.POST("/login", h.Auth.Login)
		usersGroup.POST("/forgot-password", h.Auth.ForgotPassword)
		usersGroup.PATCH("/reset-password/:token", h.Auth.ResetPassword)

		usersGroup.Use(protect)
		usersGroup.PATCH("/update-my-password", h.Auth.UpdatePassword)
		usersGroup.GET("/me", h.Users.GetMe)
		usersGroup.PATCH("/update-me", h.Users.UpdateMe)
		usersGroup.DELETE("/delete-me", h.Users.DeleteMe)

		usersGroup.GET("", adminOnly, h.Users.GetAllUsers)
		usersGroup.POST("", adminOnly, h.Users.CreateUser)
		usersGroup.GET("/:id", adminOnly, h.Users.GetUser)
		usersGroup.PATCH("/:id", adminOnly, h.Users.UpdateUser)
		usersGroup.DELETE("/:id", adminOnly, h.Users.DeleteUser)
	}

	bookings := api.Group("/bookings")
	bookings.Use(protect)
	{
		bookings.GET("/checkout-session/:tourId", h.Bookings.GetCheckoutSession)
		bookings.GET("/my-bookings", h.Bookings.GetMyBookings)

		bookings.Use(staffOnly)
		bookings.GET("", h.Bookings.GetAllBookings)
		bookings.GET("/:id", h.Bookings.GetBooking)
		bookings.POST("", h.Bookings.CreateBooking)
		bookings.PATCH("/:id", h.Bookings.UpdateBooking)
		bookings.DELETE("/:id", h.Bookings.DeleteBooking)
	}
}

// rewriteTourParam copies the tour id captured as :id into the :tourId slot
// the review handlers read.
func rewriteTourParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param("id"); id != "" {
			c.Params = append(c.Params, gin.Param{Key: "tourId", Value: id})
		}
		c.Next()
	}
}
