package handlers

import (
	"net/http"

	"tourify/middleware"
	"tourify/models"
	reviewService "tourify/services/review"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// ReviewHandler serves the review endpoints, both top-level and nested
// under a tour.
type ReviewHandler struct {
	factory *Factory[models.Review, models.ReviewUpdate]
	svc     *reviewService.Service
}

// NewReviewHandler wires the review factory for reads and the review
// service for writes.
func NewReviewHandler(svc *reviewService.Service) *ReviewHandler {
	factory := &Factory[models.Review, models.ReviewUpdate]{
		Coll: svc.Reviews,
		Name: "review",
		Scope: func(c *gin.Context) bson.M {
			return reviewService.ScopeForTour(c.Param("tourId"))
		},
	}
	return &ReviewHandler{factory: factory, svc: svc}
}

func (h *ReviewHandler) GetAllReviews(c *gin.Context) { h.factory.GetAll(c) }
func (h *ReviewHandler) GetReview(c *gin.Context)     { h.factory.GetOne(c) }

// CreateReview persists a review for the authenticated user. On the nested
// route the tour comes from the path; either way the user is always the
// principal, never the payload.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var rev models.Review
	if err := c.ShouldBindJSON(&rev); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}

	if tourID := c.Param("tourId"); tourID != "" {
		rev.Tour = tourID
	}
	if principal := middleware.CurrentUser(c); principal != nil {
		rev.User = principal.ID
	}

	created, err := h.svc.Create(c.Request.Context(), &rev)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": created})
}

// UpdateReview patches a review owned by the principal (admins may patch
// any) and triggers the rating recompute.
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	var upd models.ReviewUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		utils.Fail(c, utils.BadRequest(err.Error()))
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), &upd, middleware.CurrentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": updated})
}

// DeleteReview removes a review and triggers the rating recompute.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReviewHandler) fail(c *gin.Context, err error) {
	h.factory.fail(c, err)
}
