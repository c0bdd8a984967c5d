package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleGatewayStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": s.gateway.Status(),
		"models": s.gateway.Models(),
	}
	if current, ok := s.gateway.CurrentModel(); ok {
		resp["current_model"] = current
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleGatewayReconnect(w http.ResponseWriter, r *http.Request) {
	connected := s.gateway.Connect(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"connected": connected,
		"status":    s.gateway.Status(),
	})
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil || s.gateway.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"stats": s.gateway.Stats.Snapshot(),
	}
	if current, ok := s.gateway.CurrentModel(); ok {
		resp["model"] = current.Name
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
