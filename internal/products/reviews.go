package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

const (
	minRating        = 1
	maxRating        = 5
	maxCommentLength = 2000
)

// CreateReview records the caller's rating and refreshes the product's
// average in the same transaction.
func (s *service) CreateReview(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, fieldError("rating", "rating must be between 1 and 5")
	}
	comment := trimmed(input.Comment)
	if comment != nil && len(*comment) > maxCommentLength {
		return nil, fieldError("comment", "comment must be at most 2000 characters")
	}

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   comment,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if _, err := r.FindForUpdate(ctx, productID); err != nil {
			return repo.NotFoundOr(err, ErrProductNotFound, "load product")
		}
		if err := r.CreateReview(ctx, review); err != nil {
			// (product_id, user_id) is the only unique key besides the generated id.
			if db.IsUniqueViolation(err, "") {
				return ErrAlreadyReviewed.WithCause(err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		return recomputeRating(ctx, r, productID)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"review_id":  review.ID.String(),
		"rating":     review.Rating,
	}), "products.reviewed")
	dto := NewReviewDTO(review)
	return &dto, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[ReviewDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return pagination.Page[ReviewDTO]{}, repo.NotFoundOr(err, ErrProductNotFound, "load product")
	}
	page, err := s.repo.ListReviews(ctx, productID, params)
	if err != nil {
		return pagination.Page[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return pagination.Map(page, NewReviewDTO), nil
}

// DeleteReview lets the author or an admin withdraw a review.
func (s *service) DeleteReview(ctx context.Context, userID uuid.UUID, role enums.ActorRole, reviewID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		review, err := r.FindReview(ctx, reviewID)
		if err != nil {
			return repo.NotFoundOr(err, ErrReviewNotFound, "load review")
		}
		if role != enums.ActorRoleAdmin && review.UserID != userID {
			return ErrNotReviewAuthor
		}
		if _, err := r.FindForUpdate(ctx, review.ProductID); err != nil {
			return repo.NotFoundOr(err, ErrProductNotFound, "load product")
		}
		n, err := r.DeleteReview(ctx, reviewID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		if n == 0 {
			return ErrReviewNotFound
		}
		return recomputeRating(ctx, r, review.ProductID)
	})
}

// recomputeRating stores the mean of the product's ratings rounded to two
// places, or zero once the last review is gone. Callers hold the product lock.
func recomputeRating(ctx context.Context, r Repository, productID uuid.UUID) error {
	ratings, err := r.Ratings(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	if err := r.SetRating(ctx, productID, averageRating(ratings)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product rating")
	}
	return nil
}

func averageRating(ratings []int) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, rating := range ratings {
		sum += rating
	}
	return decimal.NewFromInt(int64(sum)).DivRound(decimal.NewFromInt(int64(len(ratings))), 2)
}
