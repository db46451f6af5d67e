package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/utils"
)

// AIOptions tune a single completion call. Zero values mean "endpoint
// default".
type AIOptions struct {
	Temperature float64
	MaxTokens   int
}

// AIClient is the OpenAI-compatible chat-completions client. The endpoint
// is expected to be a LiteLLM proxy, so the model name travels in
// provider/model form.
type AIClient interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string, opts *AIOptions) (string, error)
}

type aiClient struct {
	log         *logger.Logger
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
	baseDelay   time.Duration
}

func NewAIClient(log *logger.Logger) AIClient {
	log = log.With("service", "AIClient")
	return &aiClient{
		log: log,
		httpClient: &http.Client{
			Timeout: time.Duration(utils.GetEnvAsInt("LITELLM_TIMEOUT_SECONDS", 120, log)) * time.Second,
		},
		baseURL:     strings.TrimRight(utils.GetEnv("LITELLM_BASE_URL", "http://localhost:4000/v1", log), "/"),
		apiKey:      utils.GetEnv("LITELLM_API_KEY", "", log),
		model:       utils.GetEnv("LITELLM_MODEL", "gemini/gemini-2.5-flash", log),
		maxAttempts: utils.GetEnvAsInt("LITELLM_MAX_ATTEMPTS", 3, log),
		baseDelay:   time.Second,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// aiHTTPError keeps status and body so classification can inspect both.
type aiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *aiHTTPError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("ai endpoint returned %d: %s", e.StatusCode, body)
}

func classifyAIError(err error) retryClass {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retryFatal
	}
	var httpErr *aiHTTPError
	if errors.As(err, &httpErr) {
		body := strings.ToLower(httpErr.Body)
		if httpErr.StatusCode == http.StatusTooManyRequests &&
			(strings.Contains(body, "quota") || strings.Contains(body, "resource_exhausted") || strings.Contains(body, "exceeded")) {
			return retryQuota
		}
		switch {
		case httpErr.StatusCode == http.StatusRequestTimeout,
			httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode >= 500:
			return retryTransient
		default:
			return retryFatal
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retryTransient
	}
	return retryFatal
}

func (c *aiClient) Chat(ctx context.Context, systemPrompt, userPrompt string, opts *AIOptions) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatCompletionRequest{Model: c.model, Messages: messages}
	if opts != nil {
		reqBody.Temperature = opts.Temperature
		reqBody.MaxTokens = opts.MaxTokens
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	var content string
	err = retryWithBackoff(ctx, c.maxAttempts, c.baseDelay, classifyAIError, func() error {
		out, callErr := c.doChat(ctx, payload)
		if callErr != nil {
			c.log.Warn("Chat completion attempt failed", "error", callErr)
			return callErr
		}
		content = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *aiClient) doChat(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &aiHTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
