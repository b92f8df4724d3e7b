package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	MsgInvalidBookID   = "Invalid book ID"
	MsgBookNotFound    = "Book not found"
	MsgQueryRequired   = "Query is required"
	MsgAlreadyReviewed = "You have already reviewed this book"
)

// BookPage is one page of the book listing.
type BookPage struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	TotalBooks int            `json:"totalBooks"`
	Books      []*models.Book `json:"books"`
}

// ReviewPage is one page of a book's reviews.
type ReviewPage struct {
	Page         int                       `json:"page"`
	TotalPages   int                       `json:"totalPages"`
	TotalReviews int                       `json:"totalReviews"`
	Data         []models.ReviewWithAuthor `json:"data"`
}

// BookDetails is a book together with its rating and a page of reviews.
// AverageRating is nil when the book has not been reviewed.
type BookDetails struct {
	Book          *models.Book `json:"book"`
	AverageRating *float64     `json:"averageRating"`
	Reviews       ReviewPage   `json:"reviews"`
}

type SearchResult struct {
	TotalResults int            `json:"totalResults"`
	Results      []*models.Book `json:"results"`
}

type BookService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewBookService(db *sql.DB, m repomanager.RepositoryManager) *BookService {
	return &BookService{db: db, repomanager: m}
}

// Create stores a book owned by userID. Fields are taken as given.
func (s *BookService) Create(ctx context.Context, userID string, book *models.Book) (*models.Book, error) {
	book.CreatedBy = userID
	b, err := s.repomanager.Books(s.db).Create(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("error creating book: %w", err)
	}
	return b, nil
}

// List returns the requested page of books, newest first. A page or limit
// below 1 falls back to the first page of DefaultBooksPerPage books.
func (s *BookService) List(ctx context.Context, filter models.BookFilter, page, limit int) (*BookPage, error) {
	page, limit = normalizePage(page, limit, DefaultBooksPerPage)
	repo := s.repomanager.Books(s.db)

	books, err := repo.List(ctx, filter, limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("error listing books: %w", err)
	}
	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error counting books: %w", err)
	}

	return &BookPage{
		Page:       page,
		TotalPages: totalPages(total, limit),
		TotalBooks: total,
		Books:      books,
	}, nil
}

// GetByID loads a book, its average rating and one page of its reviews with
// the reviewer's username attached.
func (s *BookService) GetByID(ctx context.Context, id string, page, limit int) (*BookDetails, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	page, limit = normalizePage(page, limit, DefaultReviewsPerPage)
	reviewRepo := s.repomanager.Reviews(s.db)

	reviews, err := reviewRepo.ListByBook(ctx, book.ID, limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("error listing reviews: %w", err)
	}
	total, err := reviewRepo.CountByBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("error counting reviews: %w", err)
	}
	avg, err := reviewRepo.AverageRating(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("error computing rating: %w", err)
	}

	data, err := s.withAuthors(ctx, reviews)
	if err != nil {
		return nil, err
	}

	return &BookDetails{
		Book:          book,
		AverageRating: avg,
		Reviews: ReviewPage{
			Page:         page,
			TotalPages:   totalPages(total, limit),
			TotalReviews: total,
			Data:         data,
		},
	}, nil
}

// Search matches every whitespace-separated term of query, in order, against
// title or author. Terms are matched literally.
func (s *BookService) Search(ctx context.Context, query string) (*SearchResult, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, common.NewError(common.ErrorValidation, MsgQueryRequired)
	}

	books, err := s.repomanager.Books(s.db).Search(ctx, SearchPattern(terms))
	if err != nil {
		return nil, fmt.Errorf("error searching books: %w", err)
	}
	if len(books) == 0 {
		return nil, common.NewError(common.ErrorNotFound, fmt.Sprintf(`No books found matching "%s"`, query))
	}

	return &SearchResult{TotalResults: len(books), Results: books}, nil
}

// SearchPattern joins the quoted terms with ".*".
func SearchPattern(terms []string) string {
	return strings.Join(lo.Map(terms, func(t string, _ int) string { return regexp.QuoteMeta(t) }), ".*")
}

// AddReview records userID's review of the book. Each user may review a
// book once.
func (s *BookService) AddReview(ctx context.Context, userID, bookID string, rating int, comment string) (*models.Review, error) {
	book, err := s.findBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Reviews(s.db)

	exists, err := repo.ExistsForUser(ctx, book.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking review: %w", err)
	}
	if exists {
		return nil, common.NewError(common.ErrorAlreadyExists, MsgAlreadyReviewed)
	}

	review, err := repo.Create(ctx, &models.Review{UserID: userID, BookID: book.ID, Rating: rating, Comment: comment})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewError(common.ErrorAlreadyExists, MsgAlreadyReviewed)
		}
		return nil, fmt.Errorf("error creating review: %w", err)
	}
	return review, nil
}

func (s *BookService) findBook(ctx context.Context, id string) (*models.Book, error) {
	return findBook(ctx, s.repomanager.Books(s.db), id)
}

type bookGetter interface {
	GetByID(ctx context.Context, id string) (*models.Book, error)
}

func findBook(ctx context.Context, repo bookGetter, id string) (*models.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.NewError(common.ErrorValidation, MsgInvalidBookID)
	}
	book, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, MsgBookNotFound)
		}
		return nil, fmt.Errorf("error loading book: %w", err)
	}
	return book, nil
}

// withAuthors attaches {id, username} of each reviewer using one batch
// lookup. Reviewers that no longer exist keep their id with an empty name.
func (s *BookService) withAuthors(ctx context.Context, reviews []*models.Review) ([]models.ReviewWithAuthor, error) {
	ids := lo.Uniq(lo.Map(reviews, func(r *models.Review, _ int) string { return r.UserID }))

	users, err := s.repomanager.Users(s.db).GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading reviewers: %w", err)
	}
	byID := lo.KeyBy(users, func(u *models.User) string { return u.ID })

	return lo.Map(reviews, func(r *models.Review, _ int) models.ReviewWithAuthor {
		author := models.ReviewAuthor{ID: r.UserID}
		if u, ok := byID[r.UserID]; ok {
			author.Username = u.Username
		}
		return models.ReviewWithAuthor{
			ID:        r.ID,
			User:      author,
			BookID:    r.BookID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
	}), nil
}
