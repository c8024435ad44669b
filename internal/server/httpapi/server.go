// Package httpapi exposes the notes service over HTTP/JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/notes-keeper/internal/errs"
	"github.com/and161185/notes-keeper/internal/model"
	"github.com/and161185/notes-keeper/internal/repository"
	"github.com/and161185/notes-keeper/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	notes    service.NoteService
	users    repository.UserRepository
	validate *validator.Validate
	log      *zap.Logger
}

// New constructs an HTTP server with injected services.
func New(auth service.AuthService, notes service.NoteService, users repository.UserRepository, log *zap.Logger) *Server {
	return &Server{
		auth:     auth,
		notes:    notes,
		users:    users,
		validate: validator.New(),
		log:      log,
	}
}

// Routes builds the router. Register and login are public; everything
// under /notes requires a valid bearer token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.log))
	r.Use(requestLogger(s.log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)

	r.Route("/notes", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/", s.createNote)
		r.Get("/", s.listNotes)
		r.Get("/recent", s.recentNotes)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getNote)
			r.Put("/", s.updateNote)
			r.Delete("/", s.deleteNote)
			r.Post("/star", s.toggleStar)
		})
	})

	return r
}

// --- Auth ---

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	tokens, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(tokens))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	tokens, err := s.auth.Login(r.Context(), req.Username, req.Password, remoteIP(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(tokens))
}

// --- Notes ---

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no auth"})
		return
	}
	var req createNoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	n, err := s.notes.Create(r.Context(), userID, req.Title, req.Content, req.Tags)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no auth"})
		return
	}

	var f model.NoteFilter
	q := r.URL.Query()
	if q.Has("search") {
		v := q.Get("search")
		f.Search = &v
	}
	if q.Has("tag") {
		v := q.Get("tag")
		f.Tag = &v
	}
	if q.Has("starred") {
		v, err := strconv.ParseBool(q.Get("starred"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "starred must be a boolean"})
			return
		}
		f.Starred = &v
	}

	notes, err := s.notes.List(r.Context(), userID, f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

func (s *Server) recentNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no auth"})
		return
	}

	limit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}
	notes, err := s.notes.Recent(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := s.noteIDs(w, r)
	if !ok {
		return
	}
	n, err := s.notes.Get(r.Context(), userID, noteID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := s.noteIDs(w, r)
	if !ok {
		return
	}
	var req updateNoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	n, err := s.notes.Update(r.Context(), userID, noteID, model.NoteUpdate{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := s.noteIDs(w, r)
	if !ok {
		return
	}
	if err := s.notes.Delete(r.Context(), userID, noteID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleStar(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := s.noteIDs(w, r)
	if !ok {
		return
	}
	n, err := s.notes.ToggleStar(r.Context(), userID, noteID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// --- helpers ---

// noteIDs pulls the authenticated user and the {id} path parameter.
func (s *Server) noteIDs(w http.ResponseWriter, r *http.Request) (userID, noteID uuid.UUID, ok bool) {
	userID, ok = userIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no auth"})
		return uuid.Nil, uuid.Nil, false
	}
	noteID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad note id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, noteID, true
}

// decode parses and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

// writeError maps service errors to the HTTP taxonomy.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid input"})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "note not found"})
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "username or email already taken"})
	case errors.Is(err, errs.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many login attempts"})
	default:
		s.log.Error("internal", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
