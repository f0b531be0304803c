package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claimwise/platform/pkg/gateway/httpclient"
	"github.com/claimwise/platform/pkg/observability/metrics"
	"google.golang.org/genai"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not configured")

type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// LLM generates a text completion for a prompt.
type LLM interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	client   *genai.Client
	model    string
	attempts int
}

func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, attempts int) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpclient.New(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{client: client, model: model, attempts: attempts}, nil
}

// Model names the Gemini model requests go to.
func (g *GeminiClient) Model() string { return g.model }

func (g *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxOutputTokens
	}

	var text string
	err := httpclient.Retry(ctx, g.attempts, 500*time.Millisecond, func() error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err != nil {
			if retriable(err) {
				return err
			}
			return httpclient.Permanent(err)
		}
		text = resp.Text()
		return nil
	})
	metrics.LLMCall(err)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	return text, nil
}

// retriable treats rate limiting, server errors and network timeouts as
// transient.
func retriable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Code >= http.StatusInternalServerError
	}
	return httpclient.IsRetriable(err)
}
