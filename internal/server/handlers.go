// Package server is the HTTP tier: it parses requests, calls the song
// service, and maps outcomes onto the response envelope and status
// codes. Nothing below this package knows about HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prachisingh/musicapi/internal/service"
	"github.com/prachisingh/musicapi/pkg/apperr"
	"github.com/prachisingh/musicapi/pkg/logger"
)

// SongService is the business surface the HTTP tier depends on.
type SongService interface {
	GetSong(ctx context.Context, title string, page, limit int) (*service.SongResult, error)
	RateSong(ctx context.Context, title string, rating float64) (*service.RatingReceipt, error)
}

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	service SongService
	config  *Config
	log     *logger.Logger
	httpSrv *http.Server
}

// NewServer creates a new server instance.
func NewServer(svc SongService, config *Config) *Server {
	return &Server{
		service: svc,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondFailure writes a client-facing failure envelope.
func (s *Server) respondFailure(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, Response{Success: false, Message: message})
}

// respondServiceError maps a service error onto status code and
// envelope. Infrastructure failures become 500s carrying the technical
// detail in the error field; everything else stays a client-facing
// message.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.log.Errorf("Request failed: %v", err)
		s.respondJSON(w, status, Response{Success: false, Error: err.Error()})
		return
	}
	s.respondFailure(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidParameter),
		errors.Is(err, apperr.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAmbiguousTarget):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondFailure(w, http.StatusNotFound, "Route not found")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "Music API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":   "GET /health",
			"getSong":  "GET /api/song/{title}?page&limit",
			"rateSong": "POST /api/song/{title}/rate",
		},
	})
}

// handleHealth handles GET /health. It never touches the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "Music API is running",
	})
}

// handleSong dispatches /api/song/{title} and /api/song/{title}/rate.
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	rawTitle := strings.TrimPrefix(r.URL.Path, "/api/song/")

	if rest, ok := strings.CutSuffix(rawTitle, "/rate"); ok {
		if r.Method != http.MethodPost {
			s.respondFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.handleRateSong(w, r, decodeTitle(rest))
		return
	}

	if r.Method != http.MethodGet {
		s.respondFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleGetSong(w, r, decodeTitle(rawTitle))
}

// decodeTitle undoes URL path escaping; a malformed escape falls back
// to the raw value so validation can report it.
func decodeTitle(raw string) string {
	title, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return title
}

// handleGetSong handles GET /api/song/{title}?page&limit.
func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request, title string) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		s.respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.GetSong(r.Context(), title, page, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.respondFailure(w, http.StatusNotFound,
				fmt.Sprintf("No songs found matching '%s'", title))
			return
		}
		s.respondServiceError(w, err)
		return
	}

	if result.Exact != nil {
		s.respondJSON(w, http.StatusOK, Response{Success: true, Data: newSongDTO(result.Exact)})
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: newSearchResultDTO(result.Search)})
}

// handleRateSong handles POST /api/song/{title}/rate.
func (s *Server) handleRateSong(w http.ResponseWriter, r *http.Request, title string) {
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondFailure(w, http.StatusBadRequest, "Request body is required")
		return
	}
	if req.Rating == nil {
		s.respondFailure(w, http.StatusBadRequest, "Rating is required")
		return
	}

	receipt, err := s.service.RateSong(r.Context(), title, *req.Rating)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.respondFailure(w, http.StatusNotFound,
				fmt.Sprintf("Song with title '%s' not found", title))
			return
		}
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: RatingDTO{
			ID:      receipt.ID,
			Title:   receipt.Title,
			Rating:  receipt.Rating,
			Message: receipt.Message,
		},
		Message: fmt.Sprintf("Successfully rated '%s' with %.1f stars", receipt.Title, receipt.Rating),
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", key)
	}
	return v, nil
}
