package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/example/flashdeck/internal/engine"
)

// sessionCard is the card as shown to the client: the answer stays
// hidden until the session reveals it.
type sessionCard struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer,omitempty"`
	Hint       string `json:"hint,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// sessionView is the wire representation of a live session
type sessionView struct {
	SessionID     string       `json:"session_id"`
	SetID         string       `json:"set_id"`
	Mode          engine.Mode  `json:"mode"`
	Phase         engine.Phase `json:"phase"`
	Position      int          `json:"position"`
	Total         int          `json:"total"`
	Progress      int          `json:"progress"`
	Streak        int          `json:"streak"`
	Skipped       int          `json:"skipped"`
	PendingWrites int          `json:"pending_writes,omitempty"` // progress-not-saved warning
	Card          *sessionCard `json:"card,omitempty"`
}

func (s *Server) viewOf(session *engine.Session) sessionView {
	view := sessionView{
		SessionID:     session.ID(),
		SetID:         session.Deck().SetID(),
		Mode:          session.Mode(),
		Phase:         session.Phase(),
		Position:      session.Position(),
		Total:         session.Deck().Len(),
		Progress:      session.Progress(),
		Streak:        session.Streak(),
		Skipped:       session.Skipped(),
		PendingWrites: s.recorder.PendingCount(),
	}
	if !session.Completed() {
		if card, err := session.CurrentCard(); err == nil {
			sc := &sessionCard{
				ID:         card.ID,
				Question:   card.Question,
				Hint:       card.Hint,
				Difficulty: card.Difficulty,
			}
			if session.Revealed() {
				sc.Answer = card.Answer
			}
			view.Card = sc
		}
	}
	return view
}

// lookup returns the live session for an id
func (s *Server) lookup(id string) (*engine.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, engine.ErrNotFound)
	}
	return session, nil
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SetID string      `json:"set_id"`
		Mode  engine.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SetID == "" {
		badRequest(w, "set_id is required")
		return
	}
	switch req.Mode {
	case "":
		req.Mode = engine.ModeQuiz
	case engine.ModeQuiz, engine.ModeBrowse:
	default:
		badRequest(w, "mode must be quiz or browse")
		return
	}

	deck, err := engine.LoadDeck(r.Context(), s.store, req.SetID)
	if err != nil {
		writeError(w, err)
		return
	}

	session := engine.NewSession(deck, req.Mode)
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, s.viewOf(session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	view := s.viewOf(session)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, view)
}

// event kinds that mutate a session without a request body
const (
	revealEvent = "reveal"
	skipEvent   = "skip"
	nextEvent   = "next"
	prevEvent   = "prev"
	resetEvent  = "reset"
)

// sessionEvent builds a handler applying one body-less event to the
// session. The session lock serializes events: each transition runs to
// completion before the next is observed.
func (s *Server) sessionEvent(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.lookup(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}

		s.mu.Lock()
		switch kind {
		case revealEvent:
			err = session.Reveal()
		case skipEvent:
			err = session.Skip()
		case nextEvent:
			err = session.GoForward()
		case prevEvent:
			err = session.GoBack()
		case resetEvent:
			old := session.ID()
			session.Reset()
			delete(s.sessions, old)
			s.sessions[session.ID()] = session
		}
		view := s.viewOf(session)
		s.mu.Unlock()

		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	session, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Correct *bool `json:"correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Correct == nil {
		badRequest(w, "correct is required")
		return
	}

	s.mu.Lock()
	outcome, err := session.Answer(*req.Correct)
	completed := session.Completed()
	view := s.viewOf(session)
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}

	// The in-memory transition already happened; a storage failure only
	// queues the outcome, it never rolls the session back.
	s.recorder.Record(r.Context(), outcome)

	if completed {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.recorder.Flush(ctx); err != nil {
				log.Printf("Error reconciling stats after session %s: %v", outcome.SessionID, err)
			}
		}()
	}

	view.PendingWrites = s.recorder.PendingCount()
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	session, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	summary := session.Summary()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, summary)
}

// handleEndSession drops an abandoned or finished session. Outcomes
// already recorded stay durable; trailing unanswered cards simply never
// contribute.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, fmt.Errorf("session %s: %w", id, engine.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
