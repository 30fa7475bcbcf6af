// Package bedrock implements the SpamClassifier interface using Amazon
// Bedrock hosted models.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
	"github.com/mikey/contract-spam-filter/internal/retry"
)

// BackendName identifies this classifier backend in health snapshots.
const BackendName = "bedrock"

// Classifier is an implementation of the SpamClassifier interface using Amazon Bedrock.
type Classifier struct {
	client        *bedrockruntime.Client
	modelID       string
	systemPrompt  string
	maxTokens     int
	temperature   float32
	maxRetries    int
	healthTimeout time.Duration
	logger        *zap.Logger
}

// NewClassifier creates a new Bedrock classifier. AWS credentials are
// resolved from the default chain.
func NewClassifier(
	ctx context.Context,
	region string,
	modelID string,
	systemPrompt string,
	maxTokens int,
	temperature float32,
	maxRetries int,
	healthTimeout time.Duration,
	logger *zap.Logger,
) (*Classifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &Classifier{
		client:        bedrockruntime.NewFromConfig(awsCfg),
		modelID:       modelID,
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

	payload, err := c.buildPayload(contractData)
	if err != nil {
		return nil, core.NewClassifierError(core.ErrUnavailable,
			fmt.Errorf("failed to marshal request payload: %w", err))
	}

	body, err := retry.Do(ctx, c.maxRetries, func(ctx context.Context) ([]byte, error) {
		resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     &c.modelID,
			Body:        payload,
			Accept:      aws.String("application/json"),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return nil, c.mapError(err)
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.extractText(body)
	if err != nil {
		return nil, core.NewClassifierError(core.ErrParseFailure, err)
	}

	verdict, ok := core.ParseVerdict(raw)
	if !ok {
		c.logger.Warn("Could not parse spam verdict from model response",
			zap.String("model", c.modelID),
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
		ModelUsed:    c.modelID,
		ClassifiedAt: time.Now(),
	}, nil
}

// buildPayload constructs the request body for the configured model family.
func (c *Classifier) buildPayload(contractData string) ([]byte, error) {
	if c.isAnthropicModel() {
		return json.Marshal(map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"system":            c.systemPrompt,
			"messages": []map[string]interface{}{
				{"role": "user", "content": contractData},
			},
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
		})
	}
	// Amazon Titan and other text models take a single flattened prompt.
	return json.Marshal(map[string]interface{}{
		"inputText": c.systemPrompt + "\n\n" + contractData,
		"textGenerationConfig": map[string]interface{}{
			"maxTokenCount": c.maxTokens,
			"temperature":   c.temperature,
		},
	})
}

// extractText pulls the model output text out of the response body for the
// configured model family.
func (c *Classifier) extractText(body []byte) (string, error) {
	if c.isAnthropicModel() {
		var claudeResp struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		if len(claudeResp.Content) == 0 {
			return "", errors.New("empty response from Claude model")
		}
		return claudeResp.Content[0].Text, nil
	}

	var titanResp struct {
		Results []struct {
			OutputText string `json:"outputText"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &titanResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
	}
	if len(titanResp.Results) == 0 {
		return "", errors.New("empty response from Titan model")
	}
	return titanResp.Results[0].OutputText, nil
}

func (c *Classifier) mapError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return core.NewClassifierError(core.ErrRateLimited, err)
		case "AccessDeniedException", "UnrecognizedClientException":
			return core.NewClassifierError(core.ErrUnauthorized, err)
		case "ModelTimeoutException":
			return core.NewClassifierError(core.ErrTimeout, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewClassifierError(core.ErrTimeout, err)
	}
	return core.NewClassifierError(core.ErrUnavailable, err)
}

func (c *Classifier) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// HealthCheck implements core.SpamClassifier with a minimal single-token
// invocation, since Bedrock has no dedicated ping endpoint.
func (c *Classifier) HealthCheck(ctx context.Context) core.ProviderHealth {
	reqCtx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	probe := &Classifier{
		client:       c.client,
		modelID:      c.modelID,
		systemPrompt: "Reply with the single word ok.",
		maxTokens:    1,
		temperature:  c.temperature,
	}
	payload, err := probe.buildPayload("ping")
	if err != nil {
		return core.ProviderHealth{Name: BackendName, Up: false, Reason: "health check failed"}
	}

	_, err = c.client.InvokeModel(reqCtx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
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
