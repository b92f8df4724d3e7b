package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/dbx"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/reviews"
	"github.com/google/uuid"
)

const (
	MsgInvalidReviewID  = "Invalid review ID"
	MsgReviewNotFound   = "Review not found"
	MsgForeignReviewPut = "You can only update your own review"
	MsgForeignReviewDel = "You can only delete your own review"
)

// ReviewService lets users change or remove the reviews they wrote.
type ReviewService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewReviewService(db *sql.DB, m repomanager.RepositoryManager) *ReviewService {
	return &ReviewService{db: db, repomanager: m}
}

// Update changes the rating and/or comment of the review. Nil arguments keep
// the stored value. The row stays locked between the ownership check and the
// write.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID string, rating *int, comment *string) (*models.Review, error) {
	if _, err := uuid.Parse(reviewID); err != nil {
		return nil, common.NewError(common.ErrorValidation, MsgInvalidReviewID)
	}

	var updated *models.Review
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Reviews(tx)

		review, err := lockOwnReview(ctx, repo, userID, reviewID, MsgForeignReviewPut)
		if err != nil {
			return err
		}

		if rating != nil {
			review.Rating = *rating
		}
		if comment != nil {
			review.Comment = *comment
		}

		updated, err = repo.Update(ctx, review)
		return err
	})
	if err != nil {
		return nil, wrapUnlessKnown("error updating review", err)
	}
	return updated, nil
}

// Delete removes the review if userID wrote it.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	if _, err := uuid.Parse(reviewID); err != nil {
		return common.NewError(common.ErrorValidation, MsgInvalidReviewID)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Reviews(tx)

		if _, err := lockOwnReview(ctx, repo, userID, reviewID, MsgForeignReviewDel); err != nil {
			return err
		}
		return repo.Delete(ctx, reviewID)
	})
	if err != nil {
		return wrapUnlessKnown("error deleting review", err)
	}
	return nil
}

func lockOwnReview(ctx context.Context, repo reviews.Repository, userID, reviewID, forbidden string) (*models.Review, error) {
	review, err := repo.GetByIDForUpdate(ctx, reviewID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, MsgReviewNotFound)
		}
		return nil, err
	}
	if review.UserID != userID {
		return nil, common.NewError(common.ErrorForbidden, forbidden)
	}
	return review, nil
}

// wrapUnlessKnown passes *common.Error through and prefixes anything else.
func wrapUnlessKnown(prefix string, err error) error {
	var e *common.Error
	if errors.As(err, &e) {
		return err
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
