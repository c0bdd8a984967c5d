package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/des-work/Arcano-Desk-sub000/internal/config"
	"github.com/des-work/Arcano-Desk-sub000/internal/document"
	"github.com/des-work/Arcano-Desk-sub000/internal/gateway"
	"github.com/des-work/Arcano-Desk-sub000/internal/synthesis"
)

// newTestServer wires a full server with a gateway that cannot connect, so
// synthesis runs in fallback mode without any network calls.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.NewClient("http://127.0.0.1:1", time.Minute, 16, log)
	synth := synthesis.NewSynthesizer(gw, 16, log)
	docs := document.NewStore()

	orch := synthesis.NewOrchestrator(synthesis.OrchestratorConfig{
		WorkerCount:  1,
		MaxQueueSize: 8,
		JobTTL:       time.Hour,
	}, synth, docs, gw, log)

	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)
	t.Cleanup(func() {
		cancel()
		orch.Stop()
	})

	cfg := config.Config{MaxUploadBytes: 1 << 20}
	return NewServer(orch, gw, docs, log, cfg)
}

func uploadDocument(t *testing.T, srv *Server, filename, content string) string {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var doc document.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("expected a document ID")
	}
	return doc.ID
}

func TestUploadListDelete(t *testing.T) {
	srv := newTestServer(t)

	id := uploadDocument(t, srv, "biology.txt", "# Cell Division\n\nMitosis splits one cell into two.")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed struct {
		Documents []document.Document `json:"documents"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Documents) != 1 || listed.Documents[0].ID != id {
		t.Errorf("unexpected document list: %+v", listed.Documents)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "archive.zip")
	fmt.Fprint(part, "PK...")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGuideLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := uploadDocument(t, srv, "notes.md", "# Photosynthesis\n\nPlants convert light into energy. For example, chloroplasts absorb sunlight.")

	payload, _ := json.Marshal(map[string][]string{"document_ids": {id}})
	req := httptest.NewRequest(http.MethodPost, "/api/guides", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("create guide status = %d, body: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.PollURL != "/api/guides/"+created.JobID {
		t.Errorf("unexpected poll_url %q", created.PollURL)
	}

	deadline := time.Now().Add(5 * time.Second)
	var snap synthesis.JobSnapshot
	for {
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, created.PollURL, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("poll status = %d", rec.Code)
		}
		if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status == synthesis.StatusComplete || snap.Status == synthesis.StatusError {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %q", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if snap.Status != synthesis.StatusComplete {
		t.Fatalf("job ended in %q: %s", snap.Status, snap.Error)
	}
	if snap.Combined == nil {
		t.Fatal("expected combined analysis on completed job")
	}
	if len(snap.Sections) != 1 {
		t.Errorf("expected 1 section for a single document, got %d", len(snap.Sections))
	}
	if len(snap.Combined.StudyNotes) == 0 || len(snap.Combined.Questions) == 0 {
		t.Error("expected fallback study content in combined analysis")
	}
}

func TestCreateGuideValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty ids", `{"document_ids":[]}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
		{"unknown ids", `{"document_ids":["nope"]}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/guides", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGatewayStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gateway/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != string(gateway.StatusDisconnected) {
		t.Errorf("gateway status = %q, want %q", got.Status, gateway.StatusDisconnected)
	}
}
