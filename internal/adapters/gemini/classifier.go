// Package gemini implements the SpamClassifier interface using Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mikey/contract-spam-filter/internal/core"
	"github.com/mikey/contract-spam-filter/internal/retry"
)

// BackendName identifies this classifier backend in health snapshots.
const BackendName = "gemini"

// Classifier is an implementation of the SpamClassifier interface using Google Gemini.
type Classifier struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxRetries    int
	healthTimeout time.Duration
	logger        *zap.Logger
}

// NewClassifier creates a new Gemini classifier.
func NewClassifier(
	ctx context.Context,
	apiKey string,
	modelName string,
	systemPrompt string,
	maxTokens int,
	temperature float32,
	maxRetries int,
	healthTimeout time.Duration,
	logger *zap.Logger,
) (*Classifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key cannot be empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &Classifier{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxRetries:    maxRetries,
		healthTimeout: healthTimeout,
		logger:        logger,
	}, nil
}

// Close closes the underlying Gemini client.
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify implements core.SpamClassifier.
func (c *Classifier) Classify(ctx context.Context, chainID core.ChainID, metadata *core.ContractMetadata) (*core.ClassificationResult, error) {
	contractData, err := core.RenderPromptPayload(chainID, metadata)
	if err != nil {
		return nil, core.NewClassifierError(core.ErrUnavailable, err)
	}

	resp, err := retry.Do(ctx, c.maxRetries, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		resp, err := c.model.GenerateContent(ctx, genai.Text(contractData))
		if err != nil {
			return nil, c.mapError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, core.NewClassifierError(core.ErrParseFailure,
			errors.New("empty response from Gemini"))
	}

	raw := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
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
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return core.NewClassifierError(core.ErrUnauthorized, err)
		case apiErr.Code == http.StatusTooManyRequests:
			return core.NewClassifierError(core.ErrRateLimited, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewClassifierError(core.ErrTimeout, err)
	}
	return core.NewClassifierError(core.ErrUnavailable, err)
}

// HealthCheck implements core.SpamClassifier with a minimal token-count
// request, which validates credentials without generating content.
func (c *Classifier) HealthCheck(ctx context.Context) core.ProviderHealth {
	reqCtx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	if _, err := c.model.CountTokens(reqCtx, genai.Text("ping")); err != nil {
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
