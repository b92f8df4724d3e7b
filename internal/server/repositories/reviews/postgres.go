// Package reviews provides the PostgreSQL-backed review repository.
package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/dbx"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
)

var reviewColumns = []string{"id", "user_id", "book_id", "rating", "comment", "created_at", "updated_at"}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts review. A second review of the same book by the same user
// violates reviews_book_user_key and yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	query :=
		`INSERT INTO reviews (user_id, book_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		review.UserID, review.BookID, review.Rating, review.Comment).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return review, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	return r.get(ctx, dbx.Builder.Select(reviewColumns...).From("reviews").Where(sq.Eq{"id": id}))
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Review, error) {
	return r.get(ctx, dbx.Builder.Select(reviewColumns...).From("reviews").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *PostgresRepository) ExistsForUser(ctx context.Context, bookID, userID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE book_id = $1 AND user_id = $2)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, bookID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ListByBook returns one page of the book's reviews, newest first.
func (r *PostgresRepository) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*models.Review, error) {
	query, args, err := dbx.Builder.Select(reviewColumns...).From("reviews").
		Where(sq.Eq{"book_id": bookID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Review{}
	for rows.Next() {
		review := &models.Review{}
		if err := rows.Scan(scanTargets(review)...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountByBook(ctx context.Context, bookID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE book_id = $1`, bookID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) AverageRating(ctx context.Context, bookID string) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT AVG(rating)::float8 FROM reviews WHERE book_id = $1`, bookID).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// Update stores the rating and comment of review and refreshes updated_at.
func (r *PostgresRepository) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	query :=
		`UPDATE reviews SET rating = $2, comment = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, review.ID, review.Rating, review.Comment).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return review, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) get(ctx context.Context, q sq.SelectBuilder) (*models.Review, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	review := &models.Review{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(scanTargets(review)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return review, nil
}

func scanTargets(r *models.Review) []any {
	return []any{&r.ID, &r.UserID, &r.BookID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt}
}
