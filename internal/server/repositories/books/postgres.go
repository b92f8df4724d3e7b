// Package books provides the PostgreSQL-backed book repository.
package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/dbx"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
)

var bookColumns = []string{"id", "title", "author", "genre", "description", "created_by", "cover_key", "created_at"}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresRepository implements book storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	query :=
		`INSERT INTO books (title, author, genre, description, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		book.Title, book.Author, book.Genre, book.Description, book.CreatedBy).Scan(&book.ID, &book.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return book, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	query, args, err := dbx.Builder.Select(bookColumns...).From("books").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	book := &models.Book{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(scanTargets(book)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return book, nil
}

// List returns one page of books matching filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter models.BookFilter, limit, offset int) ([]*models.Book, error) {
	q := applyFilter(dbx.Builder.Select(bookColumns...).From("books"), filter).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.collect(ctx, q)
}

func (r *PostgresRepository) Count(ctx context.Context, filter models.BookFilter) (int, error) {
	query, args, err := applyFilter(dbx.Builder.Select("COUNT(*)").From("books"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Search returns books whose title or author matches the POSIX regular
// expression pattern case-insensitively, newest first.
func (r *PostgresRepository) Search(ctx context.Context, pattern string) ([]*models.Book, error) {
	q := dbx.Builder.Select(bookColumns...).From("books").
		Where(sq.Or{sq.Expr("title ~* ?", pattern), sq.Expr("author ~* ?", pattern)}).
		OrderBy("created_at DESC")

	return r.collect(ctx, q)
}

func (r *PostgresRepository) SetCoverKey(ctx context.Context, id, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE books SET cover_key = $2 WHERE id = $1`, id, key)
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

func (r *PostgresRepository) collect(ctx context.Context, q sq.SelectBuilder) ([]*models.Book, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Book{}
	for rows.Next() {
		book := &models.Book{}
		if err := rows.Scan(scanTargets(book)...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// applyFilter adds a case-insensitive substring condition per non-empty field.
func applyFilter(q sq.SelectBuilder, filter models.BookFilter) sq.SelectBuilder {
	if filter.Author != "" {
		q = q.Where(sq.ILike{"author": containsPattern(filter.Author)})
	}
	if filter.Genre != "" {
		q = q.Where(sq.ILike{"genre": containsPattern(filter.Genre)})
	}
	return q
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanTargets(b *models.Book) []any {
	return []any{&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description, &b.CreatedBy, &b.CoverKey, &b.CreatedAt}
}
