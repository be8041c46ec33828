package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/core"
)

// Enricher implements ai.Enricher using an OpenAI-compatible chat API.
type Enricher struct {
	client llms.Model
	logger *slog.Logger
}

// newEnricher is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEnricher(config *ai.Config) (*Enricher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EnrichmentHost),
		openai.WithToken("none"),
		openai.WithModel(config.EnrichmentModel),
	)
	if err != nil {
		return nil, err
	}

	return &Enricher{
		client: client,
		logger: slog.Default().With("component", "openai-enricher"),
	}, nil
}

// NewEnricher creates a new enricher using the provided configuration.
//
// Returns ai.Enricher interface to enforce abstraction.
func NewEnricher(config *ai.Config) (ai.Enricher, error) {
	return newEnricher(config)
}

// EnrichWine asks the model for descriptive metadata about an identified
// wine. Fields the model does not know come back empty and stay empty.
func (e *Enricher) EnrichWine(ctx context.Context, producer, wineName string, year int) (*ai.WineEnrichment, error) {
	question := fmt.Sprintf("Producer: %s\nWine: %s", producer, wineName)
	if year != 0 {
		question += fmt.Sprintf("\nVintage: %d", year)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(enrichmentSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(question),
			},
		},
	}

	response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		e.logger.Error("failed to generate content", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		return nil, fmt.Errorf("%w: model returned no choices", core.ErrMalformedResponse)
	}

	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)
	responseText = repairJSON(responseText)

	var enrichment ai.WineEnrichment
	if err := json.Unmarshal([]byte(responseText), &enrichment); err != nil {
		e.logger.Warn("error parsing enrichment response", "response", responseText, "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}

	e.logger.Debug("enriched wine",
		"producer", producer,
		"wine", wineName,
		"type", enrichment.Type,
		"color", enrichment.Color)

	return &enrichment, nil
}
