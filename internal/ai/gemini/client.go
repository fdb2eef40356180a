package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// Sentinel errors for Gemini client failures.
var (
	ErrUnreachable     = errors.New("gemini unreachable")
	ErrTimeout         = errors.New("gemini request timeout")
	ErrInvalidResponse = errors.New("gemini returned invalid response")
)

const (
	generateMethod = "generateContent"
	listPageSize   = 1000
	maxBodyPreview = 512
)

// StatusError is a non-200 answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini status %d: %s", e.Code, e.Body)
}

// Transient reports whether the status is a rate-limit or overload signal.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusServiceUnavailable
}

// Provider implements models.GenerationBackend using the Generative Language REST API.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (p *Provider) Name() string { return "gemini" }

// ListModels walks every page of the models listing.
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelCandidate, error) {
	var out []models.ModelCandidate
	pageToken := ""
	for {
		params := url.Values{"pageSize": {fmt.Sprint(listPageSize)}}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page listModelsResponse
		if err := p.do(ctx, http.MethodGet, p.baseURL+"/models?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}

		for _, m := range page.Models {
			out = append(out, models.ModelCandidate{
				Identifier:         m.Name,
				SupportsGeneration: supports(m.SupportedGenerationMethods, generateMethod),
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return out, nil
}

// GenerateContent sends a single-turn prompt and returns the concatenated text
// of the first candidate.
func (p *Provider) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:%s", p.baseURL, url.PathEscape(strings.TrimPrefix(model, "models/")), generateMethod)

	var resp generateResponse
	if err := p.do(ctx, http.MethodPost, u, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrInvalidResponse, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty text (finish reason %q)", ErrInvalidResponse, resp.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

func (p *Provider) do(ctx context.Context, method, u string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("x-goog-api-key", p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyPreview))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(preview))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding body: %v", ErrInvalidResponse, err)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func supports(methods []string, want string) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}

// --- Gemini wire types ---

type listModelsResponse struct {
	Models        []modelInfo `json:"models"`
	NextPageToken string      `json:"nextPageToken"`
}

type modelInfo struct {
	Name                       string   `json:"name"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Compile-time check that Provider implements GenerationBackend.
var _ models.GenerationBackend = (*Provider)(nil)
