package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageEmbedder generates vector embeddings from label photographs.
// Implementations must be thread-safe for concurrent use.
type ImageEmbedder interface {
	// EmbedImage generates a vector embedding for the image at the given URL.
	EmbedImage(ctx context.Context, imageURL string) ([]float32, error)
}

// LabelExtractor reads a wine label photograph and extracts the structured
// fields printed on it. Implementations must be thread-safe for concurrent use.
type LabelExtractor interface {
	// ExtractLabel analyzes a label image, optionally aided by OCR text
	// captured alongside the upload, and returns the extracted fields.
	// A response that cannot be parsed into the expected shape is reported
	// as a malformed-response error, not silently dropped.
	ExtractLabel(ctx context.Context, imageURL, ocrText string) (*ExtractedLabel, error)
}

// Enricher looks up descriptive metadata for an already-identified wine.
// Implementations must be thread-safe for concurrent use.
type Enricher interface {
	// EnrichWine returns style metadata for the named wine. Fields the
	// service does not know are left empty.
	EnrichWine(ctx context.Context, producer, wineName string, year int) (*WineEnrichment, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management. A provider creates and manages the label extractor,
// embedders and enricher, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ImageEmbedder returns the label-photograph embedding service.
	ImageEmbedder() ImageEmbedder

	// LabelExtractor returns the label extraction service.
	LabelExtractor() LabelExtractor

	// Enricher returns the wine enrichment service.
	Enricher() Enricher

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
