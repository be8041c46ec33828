// Copyright 2025 Vinolog Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


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

// LabelExtractor implements ai.LabelExtractor using an OpenAI-compatible
// vision chat API.
type LabelExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// newLabelExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newLabelExtractor(config *ai.Config) (*LabelExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ExtractionHost),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractionModel),
	)
	if err != nil {
		return nil, err
	}

	return &LabelExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewLabelExtractor creates a new label extractor using the provided
// configuration.
//
// Returns ai.LabelExtractor interface to enforce abstraction.
func NewLabelExtractor(config *ai.Config) (ai.LabelExtractor, error) {
	return newLabelExtractor(config)
}

// ExtractLabel reads a wine label photograph and returns the structured
// fields printed on it. The model gets a single attempt; a response that
// cannot be parsed or fails field validation is reported as
// core.ErrMalformedResponse so the job-level retry policy decides what
// happens next.
func (e *LabelExtractor) ExtractLabel(ctx context.Context, imageURL, ocrText string) (*ai.ExtractedLabel, error) {
	userParts := []llms.ContentPart{
		llms.ImageURLPart(imageURL),
	}
	if ocrText != "" {
		userParts = append(userParts, llms.TextPart("OCR text captured from this label:\n"+ocrText))
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(extractionSystemPrompt()),
			},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: userParts,
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

	// Strip markdown code fences if present
	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	// Try to repair common JSON issues
	responseText = repairJSON(responseText)

	var label ai.ExtractedLabel
	if err := json.Unmarshal([]byte(responseText), &label); err != nil {
		e.logger.Warn("error parsing extraction response", "response", responseText, "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}

	if err := validateLabel(&label); err != nil {
		e.logger.Warn("extraction response failed validation", "response", responseText, "err", err)
		return nil, err
	}

	e.logger.Debug("extracted label",
		"winery", label.WineryName,
		"wine", label.WineName,
		"year", label.Year,
		"confidence", label.Confidence)

	return &label, nil
}

// validateLabel enforces the extraction contract: both names present, a
// plausible year, and a confidence inside [0, 1].
func validateLabel(label *ai.ExtractedLabel) error {
	label.WineryName = strings.TrimSpace(label.WineryName)
	label.WineName = strings.TrimSpace(label.WineName)

	if label.WineryName == "" {
		return fmt.Errorf("%w: missing winery_name", core.ErrMalformedResponse)
	}
	if label.WineName == "" {
		return fmt.Errorf("%w: missing wine_name", core.ErrMalformedResponse)
	}
	if label.Year != 0 && (label.Year < 1800 || label.Year > 2100) {
		return fmt.Errorf("%w: implausible year %d", core.ErrMalformedResponse, label.Year)
	}
	if label.Confidence < 0 || label.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", core.ErrMalformedResponse, label.Confidence)
	}
	return nil
}
