// Package openai implements the SpamClassifier interface using the OpenAI
// chat completions API, typically against a fine-tuned classification model.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
	"github.com/mikey/contract-spam-filter/internal/retry"
)

// BackendName identifies this classifier backend in health snapshots.
const BackendName = "openai"

// Classifier is an implementation of the SpamClassifier interface using OpenAI.
type Classifier struct {
	client        *openai.Client
	modelName     string
	systemPrompt  string
	maxTokens     int
	temperature   float32
	maxRetries    int
	healthTimeout time.Duration
	logger        *zap.Logger
}

// NewClassifier creates a new OpenAI classifier.
func NewClassifier(
	apiKey string,
	baseURL string,
	modelName string,
	systemPrompt string,
	maxTokens int,
	temperature float32,
	maxRetries int,
	healthTimeout time.Duration,
	logger *zap.Logger,
) (*Classifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key cannot be empty")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Classifier{
		client:        openai.NewClientWithConfig(cfg),
		modelName:     modelName,
		systemPrompt:  systemPrompt,
		maxTokens:     maxTokens,
		temperature:   temperature,
		maxRetries:    maxRetries,
		healthTimeout: healthTimeout,
		logger:        logger,
	}, nil
}

// Classify implements core.SpamClassifier.
func (c *Classifier) Classify(ctx context.Context, chainID core.ChainID, metadata *core.ContractMetadata) (*core.ClassificationResult, error) {
	contractData, err := core.RenderPromptPayload(chainID, metadata)
	if err != nil {
		return nil, core.NewClassifierError(core.ErrUnavailable, err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: contractData,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := retry.Do(ctx, c.maxRetries, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return openai.ChatCompletionResponse{}, c.mapError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, core.NewClassifierError(core.ErrParseFailure,
			errors.New("empty response from OpenAI"))
	}

	raw := resp.Choices[0].Message.Content
	verdict, ok := core.ParseVerdict(raw)
	if !ok {
		c.logger.Warn("Could not parse spam verdict from model response",
			zap.String("model", c.modelName),
			zap.String("raw_response", raw))
		return nil, core.NewClassifierError(core.ErrParseFailure,
			fmt.Errorf("ambiguous model response %q", raw))
	}

	message := "AI model classified contract as legitimate"
	if verdict {
		message = "AI model classified contract as spam"
	}

	return &core.ClassificationResult{
		IsSpam:       verdict,
		Message:      message,
		ModelUsed:    c.modelName,
		ClassifiedAt: time.Now(),
	}, nil
}

func (c *Classifier) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return core.NewClassifierError(core.ErrUnauthorized, err)
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return core.NewClassifierError(core.ErrRateLimited, err)
		case apiErr.HTTPStatusCode >= 500:
			return core.NewClassifierError(core.ErrUnavailable, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewClassifierError(core.ErrTimeout, err)
	}
	return core.NewClassifierError(core.ErrUnavailable, err)
}

// HealthCheck implements core.SpamClassifier by listing models, which is
// cheap and verifies credentials.
func (c *Classifier) HealthCheck(ctx context.Context) core.ProviderHealth {
	reqCtx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	if _, err := c.client.ListModels(reqCtx); err != nil {
		mapped := c.mapError(err)
		reason := "health check failed"
		if core.IsUnauthorized(mapped) {
			reason = "authentication failed"
		} else if errors.Is(err, context.DeadlineExceeded) {
			reason = "health check timed out"
		}
		return core.ProviderHealth{Name: BackendName, Up: false, Reason: reason}
	}
	return core.ProviderHealth{Name: BackendName, Up: true}
}
