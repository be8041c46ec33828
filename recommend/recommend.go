// Package recommend surfaces wines visually similar to a scanned label.
// Results split into two bands: duplicates, where the label is close
// enough to count as the same bottle, and suggestions, shown to the user
// as "you might like this" with a match percentage.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/match"
	"github.com/vinolog/vinolog/storage"
	"github.com/vinolog/vinolog/vecindex"
)

// queryHeadroom is how many extra index candidates a query fetches before
// filtering down to wine-scoped entries.
const queryHeadroom = 4

// Recommendation is one visually similar wine.
type Recommendation struct {
	WineId       core.ID
	ProducerName string
	WineName     string
	Similarity   float32
	MatchPercent int
	// Duplicate reports the label is close enough to be the same bottle.
	Duplicate bool
}

// Service answers visual similarity queries over the visual index.
type Service struct {
	visual     vecindex.VisualIndex
	thresholds match.Thresholds
	logger     *slog.Logger
}

// NewService creates a recommendation service.
func NewService(visual vecindex.VisualIndex, thresholds match.Thresholds) *Service {
	return &Service{
		visual:     visual,
		thresholds: thresholds,
		logger:     slog.Default().With("component", "recommend"),
	}
}

// SimilarToScan finds wines whose canonical label resembles the given
// scan's, strongest first. Wines below the recommendation floor are
// dropped. Returns ErrIndexUnavailable when vector search is down.
func (s *Service) SimilarToScan(ctx context.Context, scanID core.ID, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	scanEmb, err := s.visual.Get(ctx, core.ScanEmbeddingKey(scanID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("scan %d has no visual embedding: %w", scanID, err)
		}
		return nil, err
	}

	return s.similar(ctx, scanEmb.Vector, scanEmb.Meta.WineId, limit)
}

// SimilarToWine finds wines resembling the given wine's canonical label.
func (s *Service) SimilarToWine(ctx context.Context, wineID core.ID, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	wineEmb, err := s.visual.Get(ctx, core.WineEmbeddingKey(wineID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("wine %d has no visual embedding: %w", wineID, err)
		}
		return nil, err
	}

	return s.similar(ctx, wineEmb.Vector, wineID, limit)
}

// similar queries the index and bands the wine-scoped results, excluding
// the wine the query came from.
func (s *Service) similar(ctx context.Context, vector []float32, excludeWine core.ID, limit int) ([]Recommendation, error) {
	matches, err := s.visual.Query(ctx, vector, limit+queryHeadroom)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	for _, m := range matches {
		if len(recs) >= limit {
			break
		}
		if !strings.HasPrefix(m.Key, "wine:") {
			continue
		}
		if excludeWine != 0 && m.Meta.WineId == excludeWine {
			continue
		}

		decision := s.thresholds.DecideVisual(m.Similarity)
		if decision == match.VisualNoMatch {
			continue
		}
		recs = append(recs, Recommendation{
			WineId:       m.Meta.WineId,
			ProducerName: m.Meta.ProducerName,
			WineName:     m.Meta.WineName,
			Similarity:   m.Similarity,
			MatchPercent: match.MatchPercent(m.Similarity),
			Duplicate:    decision == match.VisualDuplicate,
		})
	}
	return recs, nil
}
