package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/des-work/Arcano-Desk-sub000/internal/metrics"
)

const (
	probeTimeout     = 5 * time.Second
	modelListTimeout = 10 * time.Second
	generateTimeout  = 30 * time.Second

	defaultTemperature = 0.7
	defaultTopP        = 0.9
)

// ErrNotConnected is returned by Generate when the gateway has no live
// connection; no network attempt is made in that state.
var ErrNotConnected = errors.New("gateway: not connected to inference service")

// Client talks to a local Ollama-compatible inference service: model
// discovery, generation dispatch (streaming and non-streaming), per-request
// timeouts, and a TTL-bounded response cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	cache      *responseCache

	Stats *CallStats

	mu       sync.Mutex
	status   ConnectionStatus
	models   []ModelDescriptor
	current  ModelDescriptor
	hasModel bool
}

func NewClient(baseURL string, cacheTTL time.Duration, cacheSize int, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// No global client timeout: streaming responses outlive short
		// deadlines, so each call carries its own context deadline.
		httpClient: &http.Client{},
		log:        log,
		cache:      newResponseCache(cacheTTL, cacheSize),
		Stats:      NewCallStats(time.Hour),
		status:     StatusDisconnected,
	}
}

// Connect probes the inference endpoint, fetches the model list, and selects
// the current model. Returns true when connected. Failures set the error
// status and leave the client in fallback mode; they are not returned.
func (c *Client) Connect(ctx context.Context) bool {
	c.setStatus(StatusConnecting)

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := c.probe(probeCtx); err != nil {
		c.log.Warn("inference service unreachable", "url", c.baseURL, "error", err)
		c.setStatus(StatusError)
		return false
	}

	listCtx, cancelList := context.WithTimeout(ctx, modelListTimeout)
	defer cancelList()
	models, err := c.listModels(listCtx)
	if err != nil {
		c.log.Warn("model list failed", "error", err)
		c.setStatus(StatusError)
		return false
	}

	current, ok := selectModel(models)
	if !ok {
		c.log.Warn("connected but no models available")
		c.mu.Lock()
		c.models = models
		c.hasModel = false
		c.status = StatusError
		c.mu.Unlock()
		return false
	}

	c.mu.Lock()
	c.models = models
	c.current = current
	c.hasModel = true
	c.status = StatusConnected
	c.mu.Unlock()

	c.log.Info("connected to inference service", "model", current.Name, "models", len(models))
	return true
}

// ConnectWithRetry re-probes with capped exponential backoff until connected
// or the context is done. Used at startup and by the explicit reconnect
// action; generation calls never retry on their own.
func (c *Client) ConnectWithRetry(ctx context.Context, maxAttempts int) bool {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if c.Connect(ctx) {
			return true
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

// IsConnected reports whether the last connect attempt succeeded.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusConnected
}

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Models returns a copy of the discovered model descriptors.
func (c *Client) Models() []ModelDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ModelDescriptor, len(c.models))
	copy(out, c.models)
	return out
}

// CurrentModel returns the selected model, if any.
func (c *Client) CurrentModel() (ModelDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.hasModel
}

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	Category  Category
	Prompt    string
	MaxTokens int
	Stream    bool
}

// Generate dispatches one generation request and returns the trimmed
// response text. The response cache is consulted first; a hit younger than
// the TTL skips the network entirely. Errors are returned raw so the caller
// can decide its own fallback policy.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	c.mu.Lock()
	connected := c.status == StatusConnected && c.hasModel
	model := c.current.Name
	c.mu.Unlock()

	if !connected {
		return "", ErrNotConnected
	}

	key := cacheKey(model, req.Prompt, req.MaxTokens)
	if value, ok := c.cache.Get(key); ok {
		metrics.ResponseCacheTotal.WithLabelValues("hit").Inc()
		return value, nil
	}
	metrics.ResponseCacheTotal.WithLabelValues("miss").Inc()

	start := time.Now()
	text, err := c.generate(ctx, model, req)
	elapsed := time.Since(start)
	c.Stats.Record(elapsed)
	metrics.GenerationRequestDuration.WithLabelValues(model, string(req.Category)).Observe(elapsed.Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(model, string(req.Category), "error").Inc()
		return "", err
	}
	metrics.GenerationRequestsTotal.WithLabelValues(model, string(req.Category), "success").Inc()

	c.cache.Put(key, text)
	return text, nil
}

// GenerateOrFallback fails closed: any failure, including a disconnected
// gateway, yields the category's deterministic fallback text.
func (c *Client) GenerateOrFallback(ctx context.Context, req GenerateRequest) string {
	text, err := c.Generate(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrNotConnected) {
			c.log.Warn("generation failed, using fallback", "category", req.Category, "error", err)
		}
		return FallbackText(req.Category)
	}
	return text
}

// SweepCache evicts expired response cache entries.
func (c *Client) SweepCache() {
	c.cache.Sweep()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) setStatus(s ConnectionStatus) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *Client) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 500 {
		return fmt.Errorf("probe status %d", resp.StatusCode)
	}
	return nil
}

type tagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Model      string    `json:"model"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
	} `json:"models"`
}

func (c *Client) listModels(ctx context.Context) ([]ModelDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	models := make([]ModelDescriptor, 0, len(tags.Models))
	for _, m := range tags.Models {
		id := m.Model
		if id == "" {
			id = m.Name
		}
		models = append(models, ModelDescriptor{
			Name:         m.Name,
			ID:           id,
			SizeBytes:    m.Size,
			LastModified: m.ModifiedAt,
			Available:    true,
		})
	}
	return models, nil
}

type generateOptions struct {
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *Client) generate(ctx context.Context, model string, req GenerateRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		Stream: req.Stream,
		Options: generateOptions{
			Temperature: defaultTemperature,
			TopP:        defaultTopP,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("generate status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var text string
	if req.Stream {
		text, err = readStream(resp.Body)
	} else {
		text, err = readSingle(resp.Body)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", model)
	}
	return text, nil
}

func readSingle(r io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return gen.Response, nil
}

// readStream reassembles a newline-delimited JSON stream, accumulating
// response fragments until a done flag. Malformed lines are skipped.
func readStream(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		sb.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
