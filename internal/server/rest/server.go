// Package rest exposes the book review services over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookreviews/internal/logging"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	"github.com/dmitrijs2005/bookreviews/internal/server/services"
	"github.com/gorilla/mux"
)

type userSvc interface {
	Signup(ctx context.Context, username, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type bookSvc interface {
	Create(ctx context.Context, userID string, book *models.Book) (*models.Book, error)
	List(ctx context.Context, filter models.BookFilter, page, limit int) (*services.BookPage, error)
	GetByID(ctx context.Context, id string, page, limit int) (*services.BookDetails, error)
	Search(ctx context.Context, query string) (*services.SearchResult, error)
	AddReview(ctx context.Context, userID, bookID string, rating int, comment string) (*models.Review, error)
}

type reviewSvc interface {
	Update(ctx context.Context, userID, reviewID string, rating *int, comment *string) (*models.Review, error)
	Delete(ctx context.Context, userID, reviewID string) error
}

type coverSvc interface {
	CreateUploadURL(ctx context.Context, userID, bookID string) (*services.CoverUpload, error)
	DownloadURL(ctx context.Context, bookID string) (string, error)
}

type HTTPServer struct {
	address         string
	users           userSvc
	books           bookSvc
	reviews         reviewSvc
	covers          coverSvc
	metrics         *Metrics
	logger          logging.Logger
	shutdownTimeout time.Duration
	router          *mux.Router
}

func NewHTTPServer(a string, l logging.Logger, us userSvc, bs bookSvc, rs reviewSvc, cs coverSvc, shutdownTimeout time.Duration) *HTTPServer {
	s := &HTTPServer{
		address:         a,
		logger:          l.With("module", "http_server"),
		users:           us,
		books:           bs,
		reviews:         rs,
		covers:          cs,
		metrics:         NewMetrics(),
		shutdownTimeout: shutdownTimeout,
	}
	s.router = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.metricsMiddleware, s.loggingMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	authR := api.PathPrefix("/auth").Subrouter()
	authR.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	authR.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	protect := s.authMiddleware

	// search must be registered before {id}
	api.HandleFunc("/books/search", s.handleSearchBooks).Methods(http.MethodGet)
	api.HandleFunc("/books", s.handleListBooks).Methods(http.MethodGet)
	api.Handle("/books", protect(http.HandlerFunc(s.handleCreateBook))).Methods(http.MethodPost)
	api.HandleFunc("/books/{id}", s.handleGetBook).Methods(http.MethodGet)
	api.Handle("/books/{id}/reviews", protect(http.HandlerFunc(s.handleAddReview))).Methods(http.MethodPost)
	api.Handle("/books/{id}/cover", protect(http.HandlerFunc(s.handleCreateCoverUpload))).Methods(http.MethodPost)
	api.HandleFunc("/books/{id}/cover", s.handleGetCover).Methods(http.MethodGet)

	api.Handle("/reviews/{id}", protect(http.HandlerFunc(s.handleUpdateReview))).Methods(http.MethodPut)
	api.Handle("/reviews/{id}", protect(http.HandlerFunc(s.handleDeleteReview))).Methods(http.MethodDelete)

	// mux skips middleware for these, so wrap them explicitly
	notFound := s.recoverMiddleware(s.metricsMiddleware(s.loggingMiddleware(http.HandlerFunc(s.handleNotFound))))
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most shutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
