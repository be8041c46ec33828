// Package mock provides test double implementations of the AI service
// interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ImageEmbedder,
// ai.LabelExtractor, ai.Enricher and ai.Provider for use in unit tests. The
// mocks allow tests to run without external AI services and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewProvider()
//	label, err := provider.LabelExtractor().ExtractLabel(ctx, url, "")
//
//	// Custom behavior injection
//	embedder := mock.NewEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
//   - Embedder and ImageEmbedder return unit-length vectors derived from a
//     hash of the input, so identical inputs always embed identically
//   - LabelExtractor and Enricher return a fixed plausible wine
package mock
