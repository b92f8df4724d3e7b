package reviews

import (
	"context"

	"github.com/dmitrijs2005/bookreviews/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	GetByID(ctx context.Context, id string) (*models.Review, error)
	// GetByIDForUpdate is GetByID that also locks the row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Review, error)
	ExistsForUser(ctx context.Context, bookID, userID string) (bool, error)
	ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*models.Review, error)
	CountByBook(ctx context.Context, bookID string) (int, error)
	// AverageRating returns nil when the book has no reviews.
	AverageRating(ctx context.Context, bookID string) (*float64, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, id string) error
}
