package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/logging"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	"github.com/dmitrijs2005/bookreviews/internal/server/services"
	"github.com/stretchr/testify/require"
)

const goodToken = "good-token"

var alice = &models.User{ID: "11111111-1111-1111-1111-111111111111", Username: "alice", Email: "alice@example.com"}

type fakeUsers struct {
	signup func(username, email, password string) (*services.AuthResult, error)
	login  func(email, password string) (*services.AuthResult, error)
}

func (f *fakeUsers) Signup(_ context.Context, username, email, password string) (*services.AuthResult, error) {
	return f.signup(username, email, password)
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	return f.login(email, password)
}

// Authenticate accepts only goodToken; "ghost" mimics a deleted user.
func (f *fakeUsers) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case goodToken:
		return alice, nil
	case "ghost":
		return nil, common.NewError(common.ErrorUnauthorized, services.MsgUserNotFound)
	}
	return nil, common.NewError(common.ErrorUnauthorized, services.MsgInvalidToken)
}

type fakeBooks struct {
	create    func(userID string, b *models.Book) (*models.Book, error)
	list      func(filter models.BookFilter, page, limit int) (*services.BookPage, error)
	get       func(id string, page, limit int) (*services.BookDetails, error)
	search    func(query string) (*services.SearchResult, error)
	addReview func(userID, bookID string, rating int, comment string) (*models.Review, error)
}

func (f *fakeBooks) Create(_ context.Context, userID string, b *models.Book) (*models.Book, error) {
	return f.create(userID, b)
}

func (f *fakeBooks) List(_ context.Context, filter models.BookFilter, page, limit int) (*services.BookPage, error) {
	return f.list(filter, page, limit)
}

func (f *fakeBooks) GetByID(_ context.Context, id string, page, limit int) (*services.BookDetails, error) {
	return f.get(id, page, limit)
}

func (f *fakeBooks) Search(_ context.Context, query string) (*services.SearchResult, error) {
	return f.search(query)
}

func (f *fakeBooks) AddReview(_ context.Context, userID, bookID string, rating int, comment string) (*models.Review, error) {
	return f.addReview(userID, bookID, rating, comment)
}

type fakeReviews struct {
	update func(userID, reviewID string, rating *int, comment *string) (*models.Review, error)
	del    func(userID, reviewID string) error
}

func (f *fakeReviews) Update(_ context.Context, userID, reviewID string, rating *int, comment *string) (*models.Review, error) {
	return f.update(userID, reviewID, rating, comment)
}

func (f *fakeReviews) Delete(_ context.Context, userID, reviewID string) error {
	return f.del(userID, reviewID)
}

type fakeCovers struct {
	upload   func(userID, bookID string) (*services.CoverUpload, error)
	download func(bookID string) (string, error)
}

func (f *fakeCovers) CreateUploadURL(_ context.Context, userID, bookID string) (*services.CoverUpload, error) {
	return f.upload(userID, bookID)
}

func (f *fakeCovers) DownloadURL(_ context.Context, bookID string) (string, error) {
	return f.download(bookID)
}

type fixture struct {
	users   *fakeUsers
	books   *fakeBooks
	reviews *fakeReviews
	covers  *fakeCovers
	server  *HTTPServer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{users: &fakeUsers{}, books: &fakeBooks{}, reviews: &fakeReviews{}, covers: &fakeCovers{}}
	f.server = NewHTTPServer("127.0.0.1:0", logging.Nop{}, f.users, f.books, f.reviews, f.covers, time.Second)
	return f
}

type response struct {
	status int
	body   map[string]any
	raw    string
}

func (f *fixture) do(t *testing.T, method, path, token, body string) response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	res := response{status: rec.Code, raw: rec.Body.String()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.body), rec.Body.String())
	}
	return res
}
