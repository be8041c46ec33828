package recommend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/match"
	badgerstore "github.com/vinolog/vinolog/storage/badger"
	"github.com/vinolog/vinolog/vecindex"
)

// vectorAt builds a unit vector whose dot product with baseVector() is
// exactly the given similarity.
func vectorAt(similarity float64) []float32 {
	v := make([]float32, core.VisualEmbeddingDim)
	v[0] = float32(similarity)
	v[1] = float32(math.Sqrt(1 - similarity*similarity))
	return v
}

func baseVector() []float32 {
	v := make([]float32, core.VisualEmbeddingDim)
	v[0] = 1
	return v
}

func newTestService(t *testing.T) (*Service, *vecindex.BadgerVisualIndex) {
	t.Helper()
	stores, err := badgerstore.NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	t.Cleanup(func() { stores.Close() })

	visual := vecindex.NewBadgerVisualIndex(stores.Backend)
	return NewService(visual, match.DefaultThresholds()), visual
}

func putWine(t *testing.T, visual *vecindex.BadgerVisualIndex, wineID core.ID, name string, similarity float64) {
	t.Helper()
	err := visual.Put(context.Background(), &core.VisualEmbedding{
		Key:    core.WineEmbeddingKey(wineID),
		Vector: vectorAt(similarity),
		Meta:   core.VisualMeta{WineId: wineID, ProducerName: "Villa Oliveira", WineName: name},
	})
	if err != nil {
		t.Fatalf("Put wine %d failed: %v", wineID, err)
	}
}

func TestSimilarToScanBandsResults(t *testing.T) {
	service, visual := newTestService(t)
	ctx := context.Background()

	err := visual.Put(ctx, &core.VisualEmbedding{
		Key:    core.ScanEmbeddingKey(1),
		Vector: baseVector(),
		Meta:   core.VisualMeta{ScanId: 1},
	})
	if err != nil {
		t.Fatalf("Put scan failed: %v", err)
	}

	putWine(t, visual, 10, "Duplicate", 0.95)
	putWine(t, visual, 11, "Suggestion", 0.70)
	putWine(t, visual, 12, "Unrelated", 0.30)

	recs, err := service.SimilarToScan(ctx, 1, 10)
	if err != nil {
		t.Fatalf("SimilarToScan failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d: %+v", len(recs), recs)
	}

	if recs[0].WineId != 10 || !recs[0].Duplicate {
		t.Errorf("Expected wine 10 as duplicate first, got %+v", recs[0])
	}
	if recs[0].MatchPercent != 95 {
		t.Errorf("Expected 95%% match, got %d", recs[0].MatchPercent)
	}
	if recs[1].WineId != 11 || recs[1].Duplicate {
		t.Errorf("Expected wine 11 as suggestion, got %+v", recs[1])
	}
	if recs[1].MatchPercent != 70 {
		t.Errorf("Expected 70%% match, got %d", recs[1].MatchPercent)
	}
}

func TestSimilarToScanIgnoresOtherScans(t *testing.T) {
	service, visual := newTestService(t)
	ctx := context.Background()

	err := visual.Put(ctx, &core.VisualEmbedding{
		Key:    core.ScanEmbeddingKey(1),
		Vector: baseVector(),
		Meta:   core.VisualMeta{ScanId: 1},
	})
	if err != nil {
		t.Fatalf("Put scan failed: %v", err)
	}
	// Another user's near-identical scan must not surface, only wines do.
	err = visual.Put(ctx, &core.VisualEmbedding{
		Key:    core.ScanEmbeddingKey(2),
		Vector: vectorAt(0.99),
		Meta:   core.VisualMeta{ScanId: 2},
	})
	if err != nil {
		t.Fatalf("Put second scan failed: %v", err)
	}

	recs, err := service.SimilarToScan(ctx, 1, 10)
	if err != nil {
		t.Fatalf("SimilarToScan failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %+v", recs)
	}
}

func TestSimilarToWineExcludesItself(t *testing.T) {
	service, visual := newTestService(t)
	ctx := context.Background()

	putWine(t, visual, 10, "Reserva", 1.0)
	putWine(t, visual, 11, "Colheita", 0.80)

	recs, err := service.SimilarToWine(ctx, 10, 10)
	if err != nil {
		t.Fatalf("SimilarToWine failed: %v", err)
	}
	if len(recs) != 1 || recs[0].WineId != 11 {
		t.Fatalf("Expected only wine 11, got %+v", recs)
	}
}

func TestSimilarToScanMissingEmbedding(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.SimilarToScan(context.Background(), 404, 5)
	if err == nil {
		t.Fatal("Expected error for missing scan embedding")
	}
}

func TestSimilarToScanIndexUnavailable(t *testing.T) {
	service := NewService(vecindex.UnavailableVisualIndex{}, match.DefaultThresholds())

	_, err := service.SimilarToScan(context.Background(), 1, 5)
	if !errors.Is(err, vecindex.ErrIndexUnavailable) {
		t.Errorf("Expected ErrIndexUnavailable, got %v", err)
	}
}
