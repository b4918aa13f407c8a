// Package catalog plans the product categories for an activity through an
// OpenAI-compatible chat completions API. The planner sits upstream of the
// selection engine: the engine receives its output as-is, one category
// label per selection run.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kitforge/kitforge/pkg/logger"
	"github.com/kitforge/kitforge/pkg/metrics"
)

// Default planner configuration.
const (
	defaultEndpoint      = "https://api.openai.com/v1/chat/completions"
	defaultModel         = "gpt-4o-mini"
	defaultTimeout       = 20 * time.Second
	defaultMaxCategories = 6

	systemPrompt = "You are a shopping planner for activity starter kits. " +
		"Given an activity, list the essential product categories a newcomer " +
		"should buy, most important first. Respond with one short category " +
		"label per line and nothing else."
)

// Planner requests category lists from the completions endpoint.
type Planner struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithEndpoint overrides the completions endpoint.
func WithEndpoint(endpoint string) Option {
	return func(p *Planner) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(p *Planner) {
		if model != "" {
			p.model = model
		}
	}
}

// WithHTTPClient injects the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Planner) {
		if hc != nil {
			p.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger for the planner.
func WithLogger(l logger.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Planner. A missing API key is a configuration failure and
// is surfaced here so the process can refuse to start.
func New(apiKey string, opts ...Option) (*Planner, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMisconfigured
	}
	p := &Planner{
		endpoint:   defaultEndpoint,
		model:      defaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("catalog")
	}
	return p, nil
}

// chat request/response shapes, limited to the fields the planner reads.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Categories returns up to limit product-type labels for an activity.
func (p *Planner) Categories(ctx context.Context, activity string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultMaxCategories
	}
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Activity: %s. List at most %d categories.", activity, limit)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal planner request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new planner request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.RecordPlannerError()
		return nil, fmt.Errorf("%w: %v", ErrPlanRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.RecordPlannerError()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %s: %s", ErrPlanRequest, resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.RecordPlannerError()
		return nil, fmt.Errorf("%w: %v", ErrPlanResponse, err)
	}
	if len(parsed.Choices) == 0 {
		metrics.RecordPlannerError()
		return nil, fmt.Errorf("%w: empty choices", ErrPlanResponse)
	}

	categories := parseCategoryLines(parsed.Choices[0].Message.Content, limit)
	metrics.RecordPlannerLatency(float64(time.Since(start).Milliseconds()))
	p.logger.Debug(ctx, "planned categories",
		logger.String("activity", activity),
		logger.Int("count", len(categories)),
	)
	return categories, nil
}

// parseCategoryLines cleans the model output into distinct labels. Bullets
// and numbering prefixes are stripped; blank and duplicate lines dropped.
func parseCategoryLines(content string, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•")
		line = strings.TrimSpace(strings.TrimLeft(line, "0123456789)."))
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}
