// Package seed resets the database and loads a small demo catalogue:
// three users sharing one password, five books and eight reviews.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bookreviews/internal/dbx"
	"github.com/dmitrijs2005/bookreviews/internal/logging"
	"github.com/dmitrijs2005/bookreviews/internal/server/auth"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/repomanager"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type demoBook struct {
	title, author, genre, description string
	creator                           int
}

type demoReview struct {
	user, book int
	rating     int
	comment    string
}

var demoUsers = []struct{ username, email string }{
	{"alice", "alice@example.com"},
	{"bob", "bob@example.com"},
	{"charlie", "charlie@example.com"},
}

var demoBooks = []demoBook{
	{"The Great Gatsby", "F. Scott Fitzgerald", "Classic", "A story of the Roaring Twenties.", 0},
	{"1984", "George Orwell", "Dystopian", "A depiction of a totalitarian future.", 1},
	{"To Kill a Mockingbird", "Harper Lee", "Fiction", "A young girl confronts racism in the Deep South.", 1},
	{"Sapiens: A Brief History of Humankind", "Yuval Noah Harari", "Non-fiction", "A narrative of human history and evolution.", 2},
	{"The Alchemist", "Paulo Coelho", "Adventure", "A journey of finding one’s personal legend.", 2},
}

var demoReviews = []demoReview{
	{0, 1, 5, "A haunting and powerful novel."},
	{1, 0, 4, "Timeless classic with vivid imagery."},
	{2, 0, 5, "Loved the symbolism and writing style."},
	{0, 2, 4, "Deeply moving and thought-provoking."},
	{1, 3, 5, "An insightful look into human history."},
	{2, 4, 3, "Simple story but a strong message."},
	{1, 4, 4, "Inspirational and poetic."},
	{0, 3, 4, "Very informative and well-written."},
}

const truncateSQL = `TRUNCATE TABLE reviews, books, users`

// Run wipes all users, books and reviews and inserts the demo data in a
// single transaction.
func Run(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, truncateSQL); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
		logger.Info(ctx, "Cleared existing data")

		userIDs := make([]string, 0, len(demoUsers))
		for _, u := range demoUsers {
			created, err := m.Users(tx).Create(ctx, &models.User{Username: u.username, Email: u.email, PasswordHash: hash})
			if err != nil {
				return fmt.Errorf("user %s: %w", u.username, err)
			}
			userIDs = append(userIDs, created.ID)
		}
		logger.Info(ctx, "Users seeded", "count", len(userIDs))

		bookIDs := make([]string, 0, len(demoBooks))
		for _, b := range demoBooks {
			created, err := m.Books(tx).Create(ctx, &models.Book{
				Title:       b.title,
				Author:      b.author,
				Genre:       b.genre,
				Description: b.description,
				CreatedBy:   userIDs[b.creator],
			})
			if err != nil {
				return fmt.Errorf("book %q: %w", b.title, err)
			}
			bookIDs = append(bookIDs, created.ID)
		}
		logger.Info(ctx, "Books seeded", "count", len(bookIDs))

		for _, rv := range demoReviews {
			_, err := m.Reviews(tx).Create(ctx, &models.Review{
				UserID:  userIDs[rv.user],
				BookID:  bookIDs[rv.book],
				Rating:  rv.rating,
				Comment: rv.comment,
			})
			if err != nil {
				return fmt.Errorf("review: %w", err)
			}
		}
		logger.Info(ctx, "Reviews seeded", "count", len(demoReviews))

		return nil
	})
}
