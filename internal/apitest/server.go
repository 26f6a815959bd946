// Package apitest runs an in-memory book-review API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PageSize is the number of books served per page.
const PageSize = 10

// ListShape controls how list endpoints wrap their payload.
type ListShape string

const (
	ShapeArray ListShape = "array"
	ShapeItems ListShape = "items"
	ShapeBooks ListShape = "books"
)

type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IconURL  string `json:"iconUrl,omitempty"`
	password string
}

type Book struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Review     string `json:"review,omitempty"`
	Reviewer   string `json:"reviewer"`
	ReviewerID string `json:"reviewerId,omitempty"`
}

type bookBody struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Detail string `json:"detail"`
	Review string `json:"review"`
}

// Server is a fake of the remote service backed by in-memory state.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]*User // by email
	tokens    map[string]string
	books     []*Book
	viewLogs  []string
	uploads   map[string][]byte
	requests  []Request
	nextID    int
	shape     ListShape
	failPaths map[string]int
}

func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:     make(map[string]*User),
		tokens:    make(map[string]string),
		uploads:   make(map[string][]byte),
		shape:     ShapeArray,
		failPaths: make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root a client should be configured with.
func (s *Server) BaseURL() string { return s.URL + "/api" }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Get("/icons/*", s.icon)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signin", s.signIn)
		r.Post("/users", s.createUser)
		r.Get("/public/books", s.listPublic)
		r.Get("/books/{id}", s.getBook)
		r.Post("/logs", s.viewLog)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/users", s.currentUser)
			r.Put("/users", s.updateUser)
			r.Post("/uploads", s.upload)
			r.Get("/books", s.listPrivate)
			r.Post("/books", s.createBook)
			r.Put("/books/{id}", s.updateBook)
			r.Delete("/books/{id}", s.deleteBook)
		})
	})
	return r
}

// AddUser registers an account and returns a token for it.
func (s *Server) AddUser(name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password)
}

func (s *Server) addUserLocked(name, email, password string) string {
	s.nextID++
	u := &User{ID: "u" + strconv.Itoa(s.nextID), Name: name, Email: email, password: password}
	s.users[email] = u
	token := fmt.Sprintf("token-%s-%d", u.ID, s.nextID)
	s.tokens[token] = email
	return token
}

// AddBooks seeds n books reviewed by reviewerEmail (or an anonymous reviewer).
func (s *Server) AddBooks(n int, reviewerEmail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reviewer, reviewerID := "someone", ""
	if u, ok := s.users[reviewerEmail]; ok {
		reviewer, reviewerID = u.Name, u.ID
	}
	for i := 0; i < n; i++ {
		s.nextID++
		s.books = append(s.books, &Book{
			ID:         "b" + strconv.Itoa(s.nextID),
			Title:      fmt.Sprintf("Book %d", len(s.books)+1),
			Reviewer:   reviewer,
			ReviewerID: reviewerID,
		})
	}
}

func (s *Server) SetListShape(shape ListShape) {
	s.mu.Lock()
	s.shape = shape
	s.mu.Unlock()
}

// FailNext makes the next request for "METHOD /api/path" answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	s.failPaths[method+" "+path] = status
	s.mu.Unlock()
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) Books() []Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, *b)
	}
	return out
}

func (s *Server) User(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (s *Server) ViewLogs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.viewLogs...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		status, ok := s.failPaths[key]
		delete(s.failPaths, key)
		s.mu.Unlock()
		if ok {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.userFor(r) == nil {
			writeError(w, http.StatusUnauthorized, "認証エラーです")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) userFor(r *http.Request) *User {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[token]
	if !ok {
		return nil
	}
	return s.users[email]
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[body.Email]
	if !ok || u.password != body.Password {
		writeError(w, http.StatusUnauthorized, "メールアドレスまたはパスワードが違います")
		return
	}
	s.nextID++
	token := fmt.Sprintf("token-%s-%d", u.ID, s.nextID)
	s.tokens[token] = u.Email
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" || body.Email == "" {
		writeError(w, http.StatusBadRequest, "入力内容に誤りがあります")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[body.Email]; exists {
		writeError(w, http.StatusConflict, "このメールアドレスは既に登録されています")
		return
	}
	token := s.addUserLocked(body.Name, body.Email, body.Password)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	u := s.userFor(r)
	s.mu.Lock()
	out := *u
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "名前は必須です")
		return
	}
	u := s.userFor(r)
	s.mu.Lock()
	u.Name = body.Name
	for _, b := range s.books {
		if b.ReviewerID == u.ID {
			b.Reviewer = body.Name
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"name": body.Name})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("icon")
	if err != nil {
		writeError(w, http.StatusBadRequest, "icon is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read icon")
		return
	}

	u := s.userFor(r)
	s.mu.Lock()
	iconURL := fmt.Sprintf("%s/icons/%s/%s", s.URL, u.ID, header.Filename)
	s.uploads[iconURL] = data
	u.IconURL = iconURL
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"iconUrl": iconURL})
}

func (s *Server) icon(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.uploads[s.URL+r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}

func (s *Server) listPublic(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, nil)
}

func (s *Server) listPrivate(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, s.userFor(r))
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, viewer *User) {
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	page := make([]map[string]any, 0, PageSize)
	for i := offset; i < len(s.books) && i < offset+PageSize; i++ {
		b := s.books[i]
		item := map[string]any{
			"id":       b.ID,
			"title":    b.Title,
			"url":      b.URL,
			"detail":   b.Detail,
			"review":   b.Review,
			"reviewer": b.Reviewer,
		}
		if viewer != nil {
			item["isMine"] = b.ReviewerID == viewer.ID
		}
		page = append(page, item)
	}
	shape := s.shape
	s.mu.Unlock()

	switch shape {
	case ShapeItems:
		writeJSON(w, http.StatusOK, map[string]any{"items": page})
	case ShapeBooks:
		writeJSON(w, http.StatusOK, map[string]any{"books": page})
	default:
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) findLocked(id string) (int, *Book) {
	for i, b := range s.books {
		if b.ID == id {
			return i, b
		}
	}
	return -1, nil
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, b := s.findLocked(chi.URLParam(r, "id"))
	var out Book
	if b != nil {
		out = *b
	}
	s.mu.Unlock()
	if b == nil {
		writeError(w, http.StatusNotFound, "書籍が見つかりません")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var body bookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Title) == "" {
		writeError(w, http.StatusBadRequest, "タイトルは必須です")
		return
	}
	u := s.userFor(r)
	s.mu.Lock()
	s.nextID++
	b := &Book{
		ID:         "b" + strconv.Itoa(s.nextID),
		Title:      body.Title,
		URL:        body.URL,
		Detail:     body.Detail,
		Review:     body.Review,
		Reviewer:   u.Name,
		ReviewerID: u.ID,
	}
	s.books = append([]*Book{b}, s.books...)
	out := *b
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	var body bookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Title) == "" {
		writeError(w, http.StatusBadRequest, "タイトルは必須です")
		return
	}
	u := s.userFor(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, b := s.findLocked(chi.URLParam(r, "id"))
	if b == nil {
		writeError(w, http.StatusNotFound, "書籍が見つかりません")
		return
	}
	if b.ReviewerID != u.ID {
		writeError(w, http.StatusForbidden, "編集権限がありません")
		return
	}
	b.Title, b.URL, b.Detail, b.Review = body.Title, body.URL, body.Detail, body.Review
	writeJSON(w, http.StatusOK, *b)
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	u := s.userFor(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, b := s.findLocked(chi.URLParam(r, "id"))
	if b == nil {
		writeError(w, http.StatusNotFound, "書籍が見つかりません")
		return
	}
	if b.ReviewerID != u.ID {
		writeError(w, http.StatusForbidden, "削除権限がありません")
		return
	}
	s.books = append(s.books[:i], s.books[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) viewLog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SelectBookID string `json:"selectBookId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	s.viewLogs = append(s.viewLogs, body.SelectBookID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, messageJP string) {
	writeJSON(w, status, map[string]any{
		"ErrorCode":      status,
		"ErrorMessageJP": messageJP,
		"ErrorMessageEN": http.StatusText(status),
	})
}
