package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/vinolog/vinolog/ai/mock"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
	badgerstore "github.com/vinolog/vinolog/storage/badger"
	"github.com/vinolog/vinolog/vecindex"
)

type embeddingEnv struct {
	stores        *badgerstore.Stores
	identity      *vecindex.BadgerIdentityIndex
	visual        *vecindex.BadgerVisualIndex
	imageEmbedder *mock.ImageEmbedder
	worker        *EmbeddingWorker
}

func newEmbeddingEnv(t *testing.T) *embeddingEnv {
	t.Helper()
	stores, err := badgerstore.NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	t.Cleanup(func() { stores.Close() })

	identity := vecindex.NewBadgerIdentityIndex(stores.Backend)
	visual := vecindex.NewBadgerVisualIndex(stores.Backend)
	imageEmbedder := mock.NewImageEmbedder()

	worker, err := NewEmbeddingWorker(
		stores.Embeddings, stores.Catalog,
		mock.NewEmbedder(), imageEmbedder,
		identity, visual,
		"all-minilm", "1",
		Config{},
	)
	if err != nil {
		t.Fatalf("NewEmbeddingWorker failed: %v", err)
	}

	return &embeddingEnv{
		stores:        stores,
		identity:      identity,
		visual:        visual,
		imageEmbedder: imageEmbedder,
		worker:        worker,
	}
}

func seedWine(t *testing.T, env *embeddingEnv) *core.Wine {
	t.Helper()
	ctx := context.Background()
	producer, _, err := env.stores.Catalog.UpsertProducer(ctx, "Villa Oliveira", "Dão")
	if err != nil {
		t.Fatalf("UpsertProducer failed: %v", err)
	}
	wine, err := env.stores.Catalog.CreateWine(ctx, &core.Wine{Name: "Reserva", ProducerId: producer.Id})
	if err != nil {
		t.Fatalf("CreateWine failed: %v", err)
	}
	return wine
}

func TestEmbeddingWorkerIdentityJob(t *testing.T) {
	env := newEmbeddingEnv(t)
	ctx := context.Background()
	wine := seedWine(t, env)

	text, completeness := core.ComposeIdentity("Villa Oliveira", "Reserva", "Dão", "Portugal", []string{"Touriga Nacional"})
	job, err := env.stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:         core.EmbeddingKindIdentity,
		WineId:       wine.Id,
		InputText:    text,
		Completeness: completeness,
	})
	if err != nil {
		t.Fatalf("EnqueueEmbedding failed: %v", err)
	}

	if _, err := env.worker.ProcessOnce(ctx); err != nil {
		t.Fatalf("ProcessOnce failed: %v", err)
	}

	stored, err := env.stores.Embeddings.GetEmbeddingJob(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetEmbeddingJob failed: %v", err)
	}
	if stored.Status != core.JobStatusCompleted {
		t.Fatalf("Expected completed job, got %v: %s", stored.Status, stored.ErrorMessage)
	}

	emb, err := env.identity.Get(ctx, wine.Id)
	if err != nil {
		t.Fatalf("Identity Get failed: %v", err)
	}
	if emb.SourceText != text {
		t.Errorf("Expected source text %q, got %q", text, emb.SourceText)
	}
	if emb.Model != "all-minilm" || emb.Version != "1" {
		t.Errorf("Expected model recorded, got %q v%q", emb.Model, emb.Version)
	}
	if emb.Completeness != completeness {
		t.Errorf("Expected completeness %f, got %f", completeness, emb.Completeness)
	}
}

func TestEmbeddingWorkerVisualJobWritesScanAndCanonicalKeys(t *testing.T) {
	env := newEmbeddingEnv(t)
	ctx := context.Background()
	wine := seedWine(t, env)

	_, err := env.stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:          core.EmbeddingKindVisual,
		WineId:        wine.Id,
		ScanId:        42,
		InputImageURL: "https://img.example/label-42.jpg",
	})
	if err != nil {
		t.Fatalf("EnqueueEmbedding failed: %v", err)
	}

	if _, err := env.worker.ProcessOnce(ctx); err != nil {
		t.Fatalf("ProcessOnce failed: %v", err)
	}

	scanEmb, err := env.visual.Get(ctx, core.ScanEmbeddingKey(42))
	if err != nil {
		t.Fatalf("Visual Get scan key failed: %v", err)
	}
	if scanEmb.Meta.WineId != wine.Id || scanEmb.Meta.ScanId != 42 {
		t.Errorf("Unexpected scan meta: %+v", scanEmb.Meta)
	}
	if scanEmb.Meta.ProducerName != "Villa Oliveira" || scanEmb.Meta.WineName != "Reserva" {
		t.Errorf("Expected catalog names on meta, got %+v", scanEmb.Meta)
	}

	wineEmb, err := env.visual.Get(ctx, core.WineEmbeddingKey(wine.Id))
	if err != nil {
		t.Fatalf("Visual Get wine key failed: %v", err)
	}
	if wineEmb.Meta.WineId != wine.Id {
		t.Errorf("Unexpected canonical meta: %+v", wineEmb.Meta)
	}
}

func TestEmbeddingWorkerNormalizesVisualVectors(t *testing.T) {
	env := newEmbeddingEnv(t)
	ctx := context.Background()
	wine := seedWine(t, env)

	// An image service under no obligation to return unit vectors.
	env.imageEmbedder.EmbedImageFunc = func(ctx context.Context, imageURL string) ([]float32, error) {
		vector := mock.DeterministicVector(imageURL, core.VisualEmbeddingDim)
		for i := range vector {
			vector[i] *= 2
		}
		return vector, nil
	}

	_, err := env.stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:          core.EmbeddingKindVisual,
		WineId:        wine.Id,
		ScanId:        11,
		InputImageURL: "https://img.example/label-11.jpg",
	})
	if err != nil {
		t.Fatalf("EnqueueEmbedding failed: %v", err)
	}
	if _, err := env.worker.ProcessOnce(ctx); err != nil {
		t.Fatalf("ProcessOnce failed: %v", err)
	}

	stored, err := env.visual.Get(ctx, core.ScanEmbeddingKey(11))
	if err != nil {
		t.Fatalf("Visual Get failed: %v", err)
	}
	var sumSquares float64
	for _, v := range stored.Vector {
		sumSquares += float64(v) * float64(v)
	}
	if magnitude := math.Sqrt(sumSquares); math.Abs(magnitude-1) > 1e-5 {
		t.Errorf("Expected unit vector, got magnitude %f", magnitude)
	}

	matches, err := env.visual.Query(ctx, stored.Vector, 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if sim := matches[0].Similarity; sim < 0.999 || sim > 1.001 {
		t.Errorf("Expected self-similarity ~1.0, got %f", sim)
	}
}

func TestEmbeddingWorkerVisualJobWithoutScanKeysByWine(t *testing.T) {
	env := newEmbeddingEnv(t)
	ctx := context.Background()
	wine := seedWine(t, env)

	_, err := env.stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:          core.EmbeddingKindVisual,
		WineId:        wine.Id,
		InputImageURL: "https://img.example/bottle-shot.jpg",
	})
	if err != nil {
		t.Fatalf("EnqueueEmbedding failed: %v", err)
	}
	if _, err := env.worker.ProcessOnce(ctx); err != nil {
		t.Fatalf("ProcessOnce failed: %v", err)
	}

	wineEmb, err := env.visual.Get(ctx, core.WineEmbeddingKey(wine.Id))
	if err != nil {
		t.Fatalf("Visual Get wine key failed: %v", err)
	}
	if wineEmb.Meta.WineId != wine.Id || wineEmb.Meta.ScanId != 0 {
		t.Errorf("Unexpected meta: %+v", wineEmb.Meta)
	}

	if _, err := env.visual.Get(ctx, core.ScanEmbeddingKey(0)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no scan-scoped entry, got %v", err)
	}
}

func TestEmbeddingWorkerKeepsFirstCanonicalImage(t *testing.T) {
	env := newEmbeddingEnv(t)
	ctx := context.Background()
	wine := seedWine(t, env)

	for _, scanID := range []core.ID{1, 2} {
		_, err := env.stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
			Kind:          core.EmbeddingKindVisual,
			WineId:        wine.Id,
			ScanId:        scanID,
			InputImageURL: fmt.Sprintf("https://img.example/label-%d.jpg", scanID),
		})
		if err != nil {
			t.Fatalf("EnqueueEmbedding failed: %v", err)
		}
		if _, err := env.worker.ProcessOnce(ctx); err != nil {
			t.Fatalf("ProcessOnce failed: %v", err)
		}
	}

	wineEmb, err := env.visual.Get(ctx, core.WineEmbeddingKey(wine.Id))
	if err != nil {
		t.Fatalf("Visual Get wine key failed: %v", err)
	}
	if wineEmb.Meta.ScanId != 1 {
		t.Errorf("Expected first scan to stay canonical, got scan %d", wineEmb.Meta.ScanId)
	}
}

func TestEmbeddingWorkerSkipsVanishedImage(t *testing.T) {
	env := newEmbeddingEnv(t)
	ctx := context.Background()
	wine := seedWine(t, env)

	env.imageEmbedder.EmbedImageFunc = func(ctx context.Context, imageURL string) ([]float32, error) {
		return nil, fmt.Errorf("fetching image: %w", core.ErrResourceVanished)
	}

	job, err := env.stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:          core.EmbeddingKindVisual,
		WineId:        wine.Id,
		ScanId:        7,
		InputImageURL: "https://img.example/deleted.jpg",
	})
	if err != nil {
		t.Fatalf("EnqueueEmbedding failed: %v", err)
	}

	if _, err := env.worker.ProcessOnce(ctx); err != nil {
		t.Fatalf("ProcessOnce failed: %v", err)
	}

	stored, err := env.stores.Embeddings.GetEmbeddingJob(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetEmbeddingJob failed: %v", err)
	}
	if stored.Status != core.JobStatusFailed {
		t.Errorf("Expected failed status, got %v", stored.Status)
	}
	if stored.RetryCount != 0 {
		t.Errorf("Vanished images must not burn retries, got %d", stored.RetryCount)
	}

	if _, err := env.visual.Get(ctx, core.ScanEmbeddingKey(7)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no embedding stored, got %v", err)
	}
}
