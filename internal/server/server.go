package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/example/flashdeck/internal/ai"
	"github.com/example/flashdeck/internal/engine"
	"github.com/example/flashdeck/pkg/models"
)

// storage is the persistence surface the server needs. *database.Store
// satisfies it; tests substitute an in-memory fake.
type storage interface {
	engine.Gateway

	CreateSet(ctx context.Context, set *models.Set, cards []models.Card) error
	ListSets(ctx context.Context) ([]models.Set, error)
	GetSet(ctx context.Context, id string) (*models.Set, error)
	UpdateSet(ctx context.Context, set *models.Set) error
	DeleteSet(ctx context.Context, id string) error
	GetCards(ctx context.Context, setID string) ([]models.Card, error)
	GetCard(ctx context.Context, id string) (*models.Card, error)
	UpdateCard(ctx context.Context, card *models.Card) error
	ResetCardStats(ctx context.Context, cardID string) error
}

// Generator produces and refines cards through an external AI service.
// The generation protocol itself is opaque to the engine.
type Generator interface {
	GenerateCards(ctx context.Context, text string, count int) ([]ai.Generated, error)
	ImproveCard(ctx context.Context, question, answer string) (ai.Generated, error)
	TranslateCard(ctx context.Context, question, answer, targetLanguage string) (ai.Generated, error)
}

// Server holds the dependencies for the HTTP API
type Server struct {
	store     storage
	recorder  *engine.Recorder
	generator Generator // nil when no API key is configured
	router    *http.ServeMux

	mu       sync.Mutex
	sessions map[string]*engine.Session
}

// New creates and configures a new server. generator may be nil, in
// which case the AI endpoints respond with 503.
func New(store storage, recorder *engine.Recorder, generator Generator) *Server {
	s := &Server{
		store:     store,
		recorder:  recorder,
		generator: generator,
		router:    http.NewServeMux(),
		sessions:  make(map[string]*engine.Session),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server
func (s *Server) routes() {
	s.router.HandleFunc("POST /api/sets", s.handleCreateSet)
	s.router.HandleFunc("GET /api/sets", s.handleListSets)
	s.router.HandleFunc("GET /api/sets/{id}", s.handleGetSet)
	s.router.HandleFunc("PUT /api/sets/{id}", s.handleUpdateSet)
	s.router.HandleFunc("DELETE /api/sets/{id}", s.handleDeleteSet)
	s.router.HandleFunc("GET /api/sets/{id}/cards", s.handleListCards)

	s.router.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)
	s.router.HandleFunc("POST /api/cards/{id}/reset", s.handleResetCardStats)
	s.router.HandleFunc("POST /api/cards/{id}/improve", s.handleImproveCard)
	s.router.HandleFunc("POST /api/cards/{id}/translate", s.handleTranslateCard)

	s.router.HandleFunc("POST /api/generate", s.handleGenerate)
	s.router.HandleFunc("POST /api/import", s.handleImport)

	s.router.HandleFunc("POST /api/study/sessions", s.handleStartSession)
	s.router.HandleFunc("GET /api/study/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("POST /api/study/sessions/{id}/reveal", s.sessionEvent(revealEvent))
	s.router.HandleFunc("POST /api/study/sessions/{id}/answer", s.handleAnswer)
	s.router.HandleFunc("POST /api/study/sessions/{id}/skip", s.sessionEvent(skipEvent))
	s.router.HandleFunc("POST /api/study/sessions/{id}/next", s.sessionEvent(nextEvent))
	s.router.HandleFunc("POST /api/study/sessions/{id}/prev", s.sessionEvent(prevEvent))
	s.router.HandleFunc("POST /api/study/sessions/{id}/reset", s.sessionEvent(resetEvent))
	s.router.HandleFunc("GET /api/study/sessions/{id}/summary", s.handleSummary)
	s.router.HandleFunc("DELETE /api/study/sessions/{id}", s.handleEndSession)
}

// writeJSON marshals v to the response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps engine errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrEmptySet):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrPersistenceUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
