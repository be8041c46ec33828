package mock

import (
	"context"

	"github.com/vinolog/vinolog/ai"
)

// LabelExtractor is a test double for ai.LabelExtractor.
// It allows custom behavior injection via function fields.
type LabelExtractor struct {
	// ExtractLabelFunc is called by ExtractLabel if set.
	// If nil, a fixed plausible label is returned.
	ExtractLabelFunc func(ctx context.Context, imageURL, ocrText string) (*ai.ExtractedLabel, error)

	callCount int
}

// NewLabelExtractor creates a mock label extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewLabelExtractor() *LabelExtractor {
	return &LabelExtractor{}
}

// ExtractLabel returns a fixed label unless ExtractLabelFunc is set.
func (m *LabelExtractor) ExtractLabel(ctx context.Context, imageURL, ocrText string) (*ai.ExtractedLabel, error) {
	m.callCount++

	if m.ExtractLabelFunc != nil {
		return m.ExtractLabelFunc(ctx, imageURL, ocrText)
	}

	return &ai.ExtractedLabel{
		WineryName: "Villa Oliveira",
		WineName:   "Reserva",
		Year:       2017,
		Region:     "Dão",
		Country:    "Portugal",
		Confidence: 0.95,
	}, nil
}

// CallCount returns the number of times ExtractLabel was called.
func (m *LabelExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *LabelExtractor) Reset() {
	m.callCount = 0
	m.ExtractLabelFunc = nil
}

// Enricher is a test double for ai.Enricher.
type Enricher struct {
	// EnrichWineFunc is called by EnrichWine if set.
	// If nil, a fixed enrichment is returned.
	EnrichWineFunc func(ctx context.Context, producer, wineName string, year int) (*ai.WineEnrichment, error)

	callCount int
}

// NewEnricher creates a mock enricher with default behavior.
func NewEnricher() *Enricher {
	return &Enricher{}
}

// EnrichWine returns a fixed enrichment unless EnrichWineFunc is set.
func (m *Enricher) EnrichWine(ctx context.Context, producer, wineName string, year int) (*ai.WineEnrichment, error) {
	m.callCount++

	if m.EnrichWineFunc != nil {
		return m.EnrichWineFunc(ctx, producer, wineName, year)
	}

	return &ai.WineEnrichment{
		Type:         "still",
		Color:        "red",
		Style:        "full-bodied",
		FoodPairings: []string{"roast lamb", "aged cheese"},
		Varietals:    []string{"Touriga Nacional"},
	}, nil
}

// CallCount returns the number of times EnrichWine was called.
func (m *Enricher) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *Enricher) Reset() {
	m.callCount = 0
	m.EnrichWineFunc = nil
}
