package gateway

import (
	"strings"
	"time"
)

// ConnectionStatus describes the gateway's view of the inference service.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// ModelDescriptor describes one model reported by the inference service.
type ModelDescriptor struct {
	Name         string    `json:"name"`
	ID           string    `json:"id"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
	Available    bool      `json:"available"`
}

// modelPreferences is the fixed selection order for the current model.
// Small, fast models first; first match against the available list wins.
var modelPreferences = []string{
	"llama3.2:1b",
	"llama3.2:3b",
	"phi3:mini",
	"gemma2:2b",
	"llama3.2",
	"mistral",
}

// selectModel picks the current model from the available list: first
// preference whose name matches (exact or tag-stripped prefix), otherwise
// the first available model.
func selectModel(models []ModelDescriptor) (ModelDescriptor, bool) {
	for _, pref := range modelPreferences {
		for _, m := range models {
			if !m.Available {
				continue
			}
			if m.Name == pref || strings.HasPrefix(m.Name, pref+":") {
				return m, true
			}
		}
	}
	for _, m := range models {
		if m.Available {
			return m, true
		}
	}
	return ModelDescriptor{}, false
}
