package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/observability"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// SimilarContext is one prior ticket injected into the draft prompt.
type SimilarContext struct {
	Subject    string
	Body       string
	AIResponse string
}

// Client wraps the language-model provider's HTTP API. It performs no
// retries; callers decide retry policy.
type Client struct {
	cfg     config.OpenAIConfig
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient builds a provider client with a per-call timeout.
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout()},
		logger:  logger,
		metrics: metrics,
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Embed returns the fixed-length embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	err := c.post(ctx, "/embeddings", embeddingRequest{
		Model: c.cfg.EmbeddingModel,
		Input: text,
	}, &resp)
	if err != nil {
		c.metrics.RecordProviderCall("embed", callResult(err))
		return nil, err
	}
	if resp.Error != nil {
		c.metrics.RecordProviderCall("embed", "error")
		return nil, apperrors.NewProviderError("embedding request rejected: "+resp.Error.Message, nil)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		c.metrics.RecordProviderCall("embed", "error")
		return nil, apperrors.NewProviderError("embedding response contained no vector", nil)
	}
	c.metrics.RecordProviderCall("embed", "ok")
	c.logger.Debug("embedding generated", zap.Int("dimensions", len(resp.Data[0].Embedding)))
	return resp.Data[0].Embedding, nil
}

// Classify returns a single category label for the message. The provider is
// instructed to answer with only the label; drift is the caller's problem.
func (c *Client) Classify(ctx context.Context, subject, body string) (string, error) {
	prompt := fmt.Sprintf(`Classify the following customer support email into one of these categories:
- Refund: Requests for money back, refunds, returns
- Payment Failure: Failed payments, declined cards, billing issues
- Invoice: Invoice requests, billing questions, payment confirmations
- Technical Issue: Software bugs, login problems, feature requests
- Account: Account management, password resets, profile changes
- General: General inquiries, feedback, other

Email Subject: %s
Email Body: %s

Respond with only the category name (e.g., "Refund", "Payment Failure", etc.).`, subject, body)

	label, err := c.chat(ctx, chatRequest{
		Model: c.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a customer support email classifier. Respond with only the category name."},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.ClassifyTemperature,
		MaxTokens:   c.cfg.MaxClassifyTokens,
	})
	c.metrics.RecordProviderCall("classify", callResult(err))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(label), nil
}

// GenerateReply produces draft reply text for the ticket, conditioned on up
// to a few similar prior tickets. Output is trimmed; length is bounded by the
// request's max_tokens.
func (c *Client) GenerateReply(ctx context.Context, subject, body, category string, similar []SimilarContext) (string, error) {
	var contextBlock strings.Builder
	if len(similar) > 0 {
		contextBlock.WriteString("Here are some similar past tickets and their responses for reference:\n")
		for _, prior := range similar {
			response := prior.AIResponse
			if response == "" {
				response = "No response available"
			}
			fmt.Fprintf(&contextBlock, "\nSimilar Ticket:\nSubject: %s\nBody: %s\nResponse: %s\n", prior.Subject, prior.Body, response)
		}
	}

	prompt := fmt.Sprintf(`You are a professional customer support agent. Generate a helpful, empathetic response to the following customer email.

Customer Email:
Subject: %s
Body: %s
Category: %s

%s
Guidelines:
- Be professional, empathetic, and helpful
- Address the customer's specific concern
- Keep the response concise but comprehensive
- Use a friendly but professional tone
- If you need more information, ask for it politely
- Don't make promises you can't keep
- Do NOT include a subject line or "Re:" prefix
- Start directly with the greeting and response content
- End with a professional signature

Generate a response:`, subject, body, category, contextBlock.String())

	reply, err := c.chat(ctx, chatRequest{
		Model: c.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a professional customer support agent. Generate helpful, empathetic responses. Do not include subject lines or 'Re:' prefixes in your responses. Start directly with the greeting and provide a complete, professional response."},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.DraftTemperature,
		MaxTokens:   c.cfg.MaxDraftTokens,
	})
	c.metrics.RecordProviderCall("generate_reply", callResult(err))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (c *Client) chat(ctx context.Context, request chatRequest) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", request, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", apperrors.NewProviderError("chat completion rejected: "+resp.Error.Message, nil)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewProviderError("chat completion returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewProviderError("failed to encode provider request", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return apperrors.NewProviderError("failed to build provider request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return apperrors.NewProviderTimeout("provider call timed out", err)
		}
		return apperrors.NewProviderError("provider call failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewProviderError("failed to read provider response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewProviderError(
			fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200)), nil)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.NewProviderError("malformed provider response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func callResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperrors.IsCode(err, "PROVIDER_TIMEOUT"):
		return "timeout"
	default:
		return "error"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
