package review

import (
	"context"

	"tourify/database/repository"
	"tourify/models"
	"tourify/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// Service owns review mutations. Reads go through the generic CRUD factory;
// writes live here because every one of them must trigger the rating
// aggregator for the owning tour.
type Service struct {
	Reviews    repository.Collection[models.Review]
	Aggregator *Aggregator
}

// NewService wires the review service.
func NewService(reviews repository.Collection[models.Review], aggregator *Aggregator) *Service {
	return &Service{Reviews: reviews, Aggregator: aggregator}
}

// Create persists a review and recomputes the tour aggregate. A second
// review by the same user on the same tour is rejected as a conflict.
func (s *Service) Create(ctx context.Context, rev *models.Review) (*models.Review, error) {
	if rev.Tour == "" {
		return nil, utils.BadRequest("Review must belong to a tour")
	}
	if rev.User == "" {
		return nil, utils.BadRequest("Review must belong to a user")
	}

	if err := s.Reviews.Create(ctx, rev); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, utils.Conflict("You have already reviewed this tour")
		}
		return nil, err
	}

	s.Aggregator.RecomputeLogged(ctx, rev.Tour)
	return rev, nil
}

// Update applies a partial patch to a review owned by the principal (or by
// anyone, for admins) and recomputes the tour aggregate. The prior state is
// read first so the owning tour id is known regardless of the patch.
func (s *Service) Update(ctx context.Context, id string, upd *models.ReviewUpdate, principal *models.User) (*models.Review, error) {
	prior, err := s.Reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(prior, principal); err != nil {
		return nil, err
	}

	patch, err := repository.Patch(upd)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, utils.BadRequest("No updatable fields provided")
	}

	updated, err := s.Reviews.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.Aggregator.RecomputeLogged(ctx, prior.Tour)
	return updated, nil
}

// Delete removes a review owned by the principal (or by anyone, for admins)
// and recomputes the tour aggregate from the prior state's tour reference.
func (s *Service) Delete(ctx context.Context, id string, principal *models.User) error {
	prior, err := s.Reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(prior, principal); err != nil {
		return err
	}

	if err := s.Reviews.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.Aggregator.RecomputeLogged(ctx, prior.Tour)
	return nil
}

// authorize allows the review's owner and admins.
func (s *Service) authorize(rev *models.Review, principal *models.User) error {
	if principal == nil {
		return utils.Unauthorized("You are not logged in! Please log in to get access.")
	}
	if principal.Role != models.RoleAdmin && rev.User != principal.ID {
		return utils.Forbidden("You do not have permission to perform this action")
	}
	return nil
}

// ScopeForTour is the preset filter for reviews nested under a tour route.
func ScopeForTour(tourID string) bson.M {
	if tourID == "" {
		return bson.M{}
	}
	return bson.M{"tour": tourID}
}
