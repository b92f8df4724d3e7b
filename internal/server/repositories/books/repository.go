package books

import (
	"context"

	"github.com/dmitrijs2005/bookreviews/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	List(ctx context.Context, filter models.BookFilter, limit, offset int) ([]*models.Book, error)
	Count(ctx context.Context, filter models.BookFilter) (int, error)
	Search(ctx context.Context, pattern string) ([]*models.Book, error)
	SetCoverKey(ctx context.Context, id, key string) error
}
