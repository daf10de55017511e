package categorizer

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/dvloznov/statement-ledger/internal/logger"
)

// DefaultModelName is the default Gemini model used for categorization.
const DefaultModelName = "gemini-2.5-flash"

// DefaultMaxOutputTokens bounds the size of a single categorization response.
const DefaultMaxOutputTokens = 8192

// ContentGenerator is the slice of the genai client used here.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiCategorizer is the concrete implementation of Categorizer that uses Gemini.
type GeminiCategorizer struct {
	models          ContentGenerator
	modelName       string
	maxOutputTokens int32
}

// NewGeminiCategorizer creates a Gemini-backed categorizer.
// Vertex vs Gemini Dev is controlled via env vars:
//   - GOOGLE_GENAI_USE_VERTEXAI=True  -> Vertex AI
//   - GOOGLE_CLOUD_PROJECT / GOOGLE_CLOUD_LOCATION
//   - GOOGLE_API_KEY for the Gemini Developer API
func NewGeminiCategorizer(ctx context.Context, modelName string, maxOutputTokens int) (*GeminiCategorizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCategorizer: create genai client: %w", err)
	}
	return NewGeminiCategorizerWithGenerator(client.Models, modelName, maxOutputTokens), nil
}

// NewGeminiCategorizerWithGenerator wires a categorizer around an existing generator.
func NewGeminiCategorizerWithGenerator(models ContentGenerator, modelName string, maxOutputTokens int) *GeminiCategorizer {
	if modelName == "" {
		modelName = DefaultModelName
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = DefaultMaxOutputTokens
	}
	return &GeminiCategorizer{
		models:          models,
		modelName:       modelName,
		maxOutputTokens: int32(maxOutputTokens),
	}
}

// Categorize implements Categorizer. It makes exactly one model call.
func (g *GeminiCategorizer) Categorize(ctx context.Context, statementText string, currentYear int) (string, error) {
	log := logger.FromContext(ctx)

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildCategorizationPrompt(statementText, currentYear)},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxOutputTokens,
	}

	log.Info().Str("model", g.modelName).Int("statement_chars", len(statementText)).Msg("Querying categorization model")

	resp, err := g.models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", &GatewayError{Model: g.modelName, Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &GatewayError{Model: g.modelName, Err: errors.New("empty response from model")}
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", &GatewayError{Model: g.modelName, Err: fmt.Errorf("no text in response (finish reason %q)", resp.Candidates[0].FinishReason)}
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		log.Warn().Str("model", g.modelName).Msg("Categorization response hit the output token limit")
		return rawText, ErrResponseTruncated
	}

	return rawText, nil
}

var _ Categorizer = (*GeminiCategorizer)(nil)
