package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/flashdeck/internal/importer"
	"github.com/example/flashdeck/pkg/models"
)

const maxUploadBytes = 10 << 20

// cardPayload is the wire shape for creating or updating cards
type cardPayload struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Hint       string `json:"hint,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type createSetRequest struct {
	UserID      string        `json:"user_id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Cards       []cardPayload `json:"cards"`
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		badRequest(w, "title is required")
		return
	}

	cards := make([]models.Card, 0, len(req.Cards))
	for _, c := range req.Cards {
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
			badRequest(w, "every card needs a question and an answer")
			return
		}
		cards = append(cards, models.Card{
			Question:   c.Question,
			Answer:     c.Answer,
			Hint:       c.Hint,
			Difficulty: c.Difficulty,
		})
	}

	set := &models.Set{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.store.CreateSet(r.Context(), set, cards); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.store.ListSets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if sets == nil {
		sets = []models.Set{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.GetSet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	set, err := s.store.GetSet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Title) != "" {
		set.Title = req.Title
	}
	set.Description = req.Description

	if err := s.store.UpdateSet(r.Context(), set); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSet(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	setID := r.PathValue("id")
	if _, err := s.store.GetSet(r.Context(), setID); err != nil {
		writeError(w, err)
		return
	}
	cards, err := s.store.GetCards(r.Context(), setID)
	if err != nil {
		writeError(w, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	card, err := s.store.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Question) != "" {
		card.Question = req.Question
	}
	if strings.TrimSpace(req.Answer) != "" {
		card.Answer = req.Answer
	}
	card.Hint = req.Hint
	if req.Difficulty != "" {
		card.Difficulty = req.Difficulty
	}

	if err := s.store.UpdateCard(r.Context(), card); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleResetCardStats(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetCardStats(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	card, err := s.store.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleGenerate creates a new set from free text through the AI
// generator
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI generation is not configured"})
		return
	}

	var req struct {
		UserID   string `json:"user_id,omitempty"`
		Title    string `json:"title"`
		Text     string `json:"text"`
		NumCards int    `json:"num_cards"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}
	if req.NumCards <= 0 {
		req.NumCards = 5
	}

	generated, err := s.generator.GenerateCards(r.Context(), req.Text, req.NumCards)
	if err != nil {
		writeError(w, err)
		return
	}

	cards := make([]models.Card, 0, len(generated))
	for _, g := range generated {
		cards = append(cards, models.Card{Question: g.Question, Answer: g.Answer})
	}

	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled Set"
	}
	set := &models.Set{UserID: req.UserID, Title: title}
	if err := s.store.CreateSet(r.Context(), set, cards); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

// handleImport creates a new set from an uploaded Excel or CSV file of
// ready-made question/answer rows
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "no file provided")
		return
	}
	defer file.Close()

	config := importer.DefaultImportConfig()
	if v := r.FormValue("start_row"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.StartRow = n
		}
	}

	cards, result, err := importer.Import(file, header.Filename, config)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(cards) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "file contained no usable cards",
			"result": result,
		})
		return
	}

	title := r.FormValue("title")
	if strings.TrimSpace(title) == "" {
		title = header.Filename
	}
	set := &models.Set{UserID: r.FormValue("user_id"), Title: title}
	if err := s.store.CreateSet(r.Context(), set, cards); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"set":    set,
		"result": result,
	})
}

func (s *Server) handleImproveCard(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI generation is not configured"})
		return
	}

	card, err := s.store.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	improved, err := s.generator.ImproveCard(r.Context(), card.Question, card.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	card.Question = improved.Question
	card.Answer = improved.Answer

	if err := s.store.UpdateCard(r.Context(), card); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleTranslateCard(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI generation is not configured"})
		return
	}

	var req struct {
		TargetLanguage string `json:"target_language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TargetLanguage) == "" {
		badRequest(w, "target_language is required")
		return
	}

	card, err := s.store.GetCard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	translated, err := s.generator.TranslateCard(r.Context(), card.Question, card.Answer, req.TargetLanguage)
	if err != nil {
		writeError(w, err)
		return
	}
	card.Question = translated.Question
	card.Answer = translated.Answer

	if err := s.store.UpdateCard(r.Context(), card); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}
