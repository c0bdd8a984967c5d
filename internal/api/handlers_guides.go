package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type guideRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

func (s *Server) handleCreateGuide(w http.ResponseWriter, r *http.Request) {
	var req guideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.DocumentIDs) == 0 {
		jsonError(w, "document_ids is required", http.StatusBadRequest)
		return
	}

	job, err := s.orchestrator.Submit(req.DocumentIDs)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/guides/%s", snap.ID),
	})
}

func (s *Server) handleGuideStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	var req guideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	docs := s.docs.GetAll(req.DocumentIDs)
	if len(docs) == 0 {
		jsonError(w, "no known documents among those requested", http.StatusBadRequest)
		return
	}

	cards, err := s.orchestrator.Synthesizer().GenerateFlashcards(r.Context(), docs)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"flashcards": cards})
}
