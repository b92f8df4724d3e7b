package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	"github.com/dmitrijs2005/bookreviews/internal/server/models"
	"github.com/gorilla/mux"
)

const (
	msgServerError     = "Server Error"
	msgCreateBookError = "Error creating book"
	msgListBooksError  = "Error fetching books"
	msgGetBookError    = "Error fetching book details"
	msgAddReviewError  = "Error adding review"
	msgSearchError     = "Error searching books"
	msgUpdateError     = "Error updating review"
	msgDeleteError     = "Error deleting review"
	msgCoverError      = "Error handling book cover"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
}

type addReviewRequest struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

// updateReviewRequest keeps absent fields nil so they are left unchanged.
type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type reviewResponse struct {
	Message string         `json:"message"`
	Review  *models.Review `json:"review"`
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Book Review API is running..."))
}

func (s *HTTPServer) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Route not found")
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err, msgServerError)
		return
	}

	res, err := s.users.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err, msgServerError)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", res.Username)
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err, msgServerError)
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err, msgServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req createBookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err, msgCreateBookError)
		return
	}

	book, err := s.books.Create(r.Context(), user.ID, &models.Book{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err, msgCreateBookError)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (s *HTTPServer) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.BookFilter{Author: q.Get("author"), Genre: q.Get("genre")}

	page, err := s.books.List(r.Context(), filter, intQuery(r, "page"), intQuery(r, "limit"))
	if err != nil {
		s.writeError(w, r, err, msgListBooksError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *HTTPServer) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	res, err := s.books.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, r, err, msgSearchError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleGetBook(w http.ResponseWriter, r *http.Request) {
	details, err := s.books.GetByID(r.Context(), mux.Vars(r)["id"], intQuery(r, "page"), intQuery(r, "limit"))
	if err != nil {
		s.writeError(w, r, err, msgGetBookError)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *HTTPServer) handleAddReview(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req addReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err, msgAddReviewError)
		return
	}
	if req.Rating == nil {
		s.writeError(w, r, common.NewError(common.ErrorValidation, "Rating must be an integer"), msgAddReviewError)
		return
	}

	review, err := s.books.AddReview(r.Context(), user.ID, mux.Vars(r)["id"], *req.Rating, req.Comment)
	if err != nil {
		s.writeError(w, r, err, msgAddReviewError)
		return
	}
	writeJSON(w, http.StatusCreated, reviewResponse{Message: "Review added", Review: review})
}

func (s *HTTPServer) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req updateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err, msgUpdateError)
		return
	}

	review, err := s.reviews.Update(r.Context(), user.ID, mux.Vars(r)["id"], req.Rating, req.Comment)
	if err != nil {
		s.writeError(w, r, err, msgUpdateError)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Message: "Review updated", Review: review})
}

func (s *HTTPServer) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	if err := s.reviews.Delete(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err, msgDeleteError)
		return
	}
	writeMessage(w, http.StatusOK, "Review deleted successfully")
}

func (s *HTTPServer) handleCreateCoverUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	up, err := s.covers.CreateUploadURL(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err, msgCoverError)
		return
	}
	writeJSON(w, http.StatusCreated, up)
}

func (s *HTTPServer) handleGetCover(w http.ResponseWriter, r *http.Request) {
	url, err := s.covers.DownloadURL(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err, msgCoverError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// intQuery returns the integer query parameter key, or 0 when it is absent
// or malformed; services treat 0 as "use the default".
func intQuery(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
