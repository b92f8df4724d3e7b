package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/dbx"
	"github.com/dmitrijs2005/bookreviews/internal/server/config"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	booksrepo "github.com/dmitrijs2005/bookreviews/internal/server/repositories/books"
	reviewsrepo "github.com/dmitrijs2005/bookreviews/internal/server/repositories/reviews"
	usersrepo "github.com/dmitrijs2005/bookreviews/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		S3Region:                    "us-east-1",
		S3RootUser:                  "minioadmin",
		S3RootPassword:              "minioadmin",
		S3BaseEndpoint:              "http://127.0.0.1:9000",
		S3Bucket:                    "covers",
	}
}

// store is a tiny in-memory backing for the fake repositories.
type store struct {
	users   map[string]*models.User
	books   map[string]*models.Book
	reviews map[string]*models.Review
	clock   time.Time

	// injected failures, keyed by method name
	errs map[string]error
	// calls records method names in order
	calls []string
}

func newStore() *store {
	return &store{
		users:   map[string]*models.User{},
		books:   map[string]*models.Book{},
		reviews: map[string]*models.Review{},
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		errs:    map[string]error{},
	}
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *store) hit(name string) error {
	s.calls = append(s.calls, name)
	return s.errs[name]
}

func (s *store) addUser(username, email string) *models.User {
	u := &models.User{ID: uuid.NewString(), Username: username, Email: email, CreatedAt: s.tick()}
	s.users[u.ID] = u
	return u
}

func (s *store) addBook(title, author, createdBy string) *models.Book {
	b := &models.Book{ID: uuid.NewString(), Title: title, Author: author, CreatedBy: createdBy, CreatedAt: s.tick()}
	s.books[b.ID] = b
	return b
}

func (s *store) addReview(userID, bookID string, rating int) *models.Review {
	now := s.tick()
	r := &models.Review{ID: uuid.NewString(), UserID: userID, BookID: bookID, Rating: rating, CreatedAt: now, UpdatedAt: now}
	s.reviews[r.ID] = r
	return r
}

type fakeUsers struct{ s *store }

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if err := f.s.hit("users.Create"); err != nil {
		return nil, err
	}
	for _, x := range f.s.users {
		if x.Username == u.Username || x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = f.s.tick()
	cp := *u
	f.s.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsers) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if err := f.s.hit("users.Exists"); err != nil {
		return false, err
	}
	for _, x := range f.s.users {
		if x.Username == username || x.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := f.s.hit("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, x := range f.s.users {
		if x.Email == email {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := f.s.hit("users.GetByID"); err != nil {
		return nil, err
	}
	if x, ok := f.s.users[id]; ok {
		cp := *x
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if err := f.s.hit("users.GetByIDs"); err != nil {
		return nil, err
	}
	var out []*models.User
	for _, id := range ids {
		if x, ok := f.s.users[id]; ok {
			out = append(out, x)
		}
	}
	return out, nil
}

type fakeBooks struct{ s *store }

func (f *fakeBooks) Create(ctx context.Context, b *models.Book) (*models.Book, error) {
	if err := f.s.hit("books.Create"); err != nil {
		return nil, err
	}
	b.ID = uuid.NewString()
	b.CreatedAt = f.s.tick()
	cp := *b
	f.s.books[b.ID] = &cp
	return b, nil
}

func (f *fakeBooks) GetByID(ctx context.Context, id string) (*models.Book, error) {
	if err := f.s.hit("books.GetByID"); err != nil {
		return nil, err
	}
	if b, ok := f.s.books[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeBooks) filtered(filter models.BookFilter) []*models.Book {
	out := []*models.Book{}
	for _, b := range f.s.books {
		if filter.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(filter.Author)) {
			continue
		}
		if filter.Genre != "" && !strings.Contains(strings.ToLower(b.Genre), strings.ToLower(filter.Genre)) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeBooks) List(ctx context.Context, filter models.BookFilter, limit, offset int) ([]*models.Book, error) {
	if err := f.s.hit("books.List"); err != nil {
		return nil, err
	}
	all := f.filtered(filter)
	if offset >= len(all) {
		return []*models.Book{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (f *fakeBooks) Count(ctx context.Context, filter models.BookFilter) (int, error) {
	if err := f.s.hit("books.Count"); err != nil {
		return 0, err
	}
	return len(f.filtered(filter)), nil
}

// Search records the pattern and matches on the lowercased title only;
// regex semantics are covered by repository tests.
func (f *fakeBooks) Search(ctx context.Context, pattern string) ([]*models.Book, error) {
	if err := f.s.hit("books.Search:" + pattern); err != nil {
		return nil, err
	}
	out := []*models.Book{}
	for _, b := range f.filtered(models.BookFilter{}) {
		if strings.Contains(strings.ToLower(b.Title), strings.ToLower(strings.ReplaceAll(pattern, ".*", " "))) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBooks) SetCoverKey(ctx context.Context, id, key string) error {
	if err := f.s.hit("books.SetCoverKey"); err != nil {
		return err
	}
	b, ok := f.s.books[id]
	if !ok {
		return common.ErrorNotFound
	}
	b.CoverKey = key
	return nil
}

type fakeReviews struct{ s *store }

func (f *fakeReviews) Create(ctx context.Context, r *models.Review) (*models.Review, error) {
	if err := f.s.hit("reviews.Create"); err != nil {
		return nil, err
	}
	for _, x := range f.s.reviews {
		if x.BookID == r.BookID && x.UserID == r.UserID {
			return nil, common.ErrorAlreadyExists
		}
	}
	now := f.s.tick()
	r.ID, r.CreatedAt, r.UpdatedAt = uuid.NewString(), now, now
	cp := *r
	f.s.reviews[r.ID] = &cp
	return r, nil
}

func (f *fakeReviews) GetByID(ctx context.Context, id string) (*models.Review, error) {
	if err := f.s.hit("reviews.GetByID"); err != nil {
		return nil, err
	}
	return f.get(id)
}

func (f *fakeReviews) GetByIDForUpdate(ctx context.Context, id string) (*models.Review, error) {
	if err := f.s.hit("reviews.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return f.get(id)
}

func (f *fakeReviews) get(id string) (*models.Review, error) {
	if r, ok := f.s.reviews[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeReviews) ExistsForUser(ctx context.Context, bookID, userID string) (bool, error) {
	if err := f.s.hit("reviews.ExistsForUser"); err != nil {
		return false, err
	}
	for _, x := range f.s.reviews {
		if x.BookID == bookID && x.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviews) byBook(bookID string) []*models.Review {
	out := []*models.Review{}
	for _, r := range f.s.reviews {
		if r.BookID == bookID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeReviews) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*models.Review, error) {
	if err := f.s.hit("reviews.ListByBook"); err != nil {
		return nil, err
	}
	all := f.byBook(bookID)
	if offset >= len(all) {
		return []*models.Review{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (f *fakeReviews) CountByBook(ctx context.Context, bookID string) (int, error) {
	if err := f.s.hit("reviews.CountByBook"); err != nil {
		return 0, err
	}
	return len(f.byBook(bookID)), nil
}

func (f *fakeReviews) AverageRating(ctx context.Context, bookID string) (*float64, error) {
	if err := f.s.hit("reviews.AverageRating"); err != nil {
		return nil, err
	}
	all := f.byBook(bookID)
	if len(all) == 0 {
		return nil, nil
	}
	sum := 0
	for _, r := range all {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(all))
	return &avg, nil
}

func (f *fakeReviews) Update(ctx context.Context, r *models.Review) (*models.Review, error) {
	if err := f.s.hit("reviews.Update"); err != nil {
		return nil, err
	}
	x, ok := f.s.reviews[r.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	r.UpdatedAt = f.s.tick()
	x.Rating, x.Comment, x.UpdatedAt = r.Rating, r.Comment, r.UpdatedAt
	return r, nil
}

func (f *fakeReviews) Delete(ctx context.Context, id string) error {
	if err := f.s.hit("reviews.Delete"); err != nil {
		return err
	}
	if _, ok := f.s.reviews[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.reviews, id)
	return nil
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return &fakeUsers{m.s} }
func (m *fakeRepoManager) Books(dbx.DBTX) booksrepo.Repository          { return &fakeBooks{m.s} }
func (m *fakeRepoManager) Reviews(dbx.DBTX) reviewsrepo.Repository      { return &fakeReviews{m.s} }
