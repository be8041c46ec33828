package resolve

import (
	"context"
	"testing"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/ai/mock"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/match"
	badgerstore "github.com/vinolog/vinolog/storage/badger"
	"github.com/vinolog/vinolog/vecindex"
)

type testEnv struct {
	stores   *badgerstore.Stores
	identity *vecindex.BadgerIdentityIndex
	embedder *mock.Embedder
	resolver *Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stores, err := badgerstore.NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	t.Cleanup(func() { stores.Close() })

	identity := vecindex.NewBadgerIdentityIndex(stores.Backend)
	embedder := mock.NewEmbedder()
	resolver := NewResolver(stores.Catalog, identity, embedder, match.DefaultThresholds())
	return &testEnv{stores: stores, identity: identity, embedder: embedder, resolver: resolver}
}

func villaOliveiraLabel() *ai.ExtractedLabel {
	return &ai.ExtractedLabel{
		WineryName: "Villa Oliveira",
		WineName:   "Reserva",
		Varietal:   "Touriga Nacional",
		Year:       2017,
		Region:     "Dão",
		Country:    "Portugal",
		Confidence: 0.95,
	}
}

func TestResolveCreatesFullChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.resolver.Resolve(ctx, villaOliveiraLabel())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Producer == nil || res.Producer.Name != "Villa Oliveira" {
		t.Fatalf("Expected producer created, got %+v", res.Producer)
	}
	if res.Wine == nil || res.Wine.Name != "Reserva" {
		t.Fatalf("Expected wine created, got %+v", res.Wine)
	}
	if !res.WineCreated {
		t.Error("Expected WineCreated")
	}
	if res.Vintage == nil || res.Vintage.Year != 2017 {
		t.Fatalf("Expected 2017 vintage, got %+v", res.Vintage)
	}
	if res.MergedByIdentity || res.DegradedToText {
		t.Errorf("Unexpected flags: %+v", res)
	}

	varietals, err := env.stores.Catalog.ListVarietals(ctx, res.Vintage.Id)
	if err != nil {
		t.Fatalf("ListVarietals failed: %v", err)
	}
	if len(varietals) != 1 || varietals[0].Name != "Touriga Nacional" {
		t.Errorf("Expected varietal recorded, got %v", varietals)
	}
}

func TestResolveReusesWineByName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.resolver.Resolve(ctx, villaOliveiraLabel())
	if err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}

	// A rescan with a noisier name still lands on the same rows.
	label := villaOliveiraLabel()
	label.WineryName = "VILLA OLIVEIRA LDA"
	label.WineName = "reserva"
	second, err := env.resolver.Resolve(ctx, label)
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}

	if second.Producer.Id != first.Producer.Id {
		t.Errorf("Expected producer %d, got %d", first.Producer.Id, second.Producer.Id)
	}
	if second.Wine.Id != first.Wine.Id {
		t.Errorf("Expected wine %d, got %d", first.Wine.Id, second.Wine.Id)
	}
	if second.WineCreated {
		t.Error("Expected no new wine")
	}
	if second.Vintage.Id != first.Vintage.Id {
		t.Errorf("Expected vintage %d, got %d", first.Vintage.Id, second.Vintage.Id)
	}
}

func TestResolveMergesByIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	producer, _, err := env.stores.Catalog.UpsertProducer(ctx, "Villa Oliveira", "Dão")
	if err != nil {
		t.Fatalf("UpsertProducer failed: %v", err)
	}
	wine, err := env.stores.Catalog.CreateWine(ctx, &core.Wine{Name: "Grande Colheita", ProducerId: producer.Id})
	if err != nil {
		t.Fatalf("CreateWine failed: %v", err)
	}

	// The label's name shares nothing with the stored one, so only the
	// identity index can connect them. Seed it with the exact vector the
	// resolver will compute for this label.
	label := villaOliveiraLabel()
	label.WineName = "GC"
	text, completeness := core.ComposeIdentity(label.WineryName, label.WineName, label.Region, label.Country, []string{label.Varietal})
	if completeness != 1.0 {
		t.Fatalf("Expected full completeness, got %f", completeness)
	}
	vector, err := env.embedder.EmbedText(ctx, text)
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	err = env.identity.Put(ctx, &core.IdentityEmbedding{
		WineId:       wine.Id,
		Vector:       vecindex.Normalize(vector),
		SourceText:   text,
		Model:        "all-minilm",
		Version:      "1",
		Completeness: 1.0,
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	res, err := env.resolver.Resolve(ctx, label)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.MergedByIdentity {
		t.Fatal("Expected identity merge")
	}
	if res.Wine.Id != wine.Id {
		t.Errorf("Expected wine %d, got %d", wine.Id, res.Wine.Id)
	}
	if res.WineCreated {
		t.Error("Expected no new wine")
	}
}

func TestResolveRejectsSparseIdentityMerge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	producer, _, err := env.stores.Catalog.UpsertProducer(ctx, "Villa Oliveira", "")
	if err != nil {
		t.Fatalf("UpsertProducer failed: %v", err)
	}
	wine, err := env.stores.Catalog.CreateWine(ctx, &core.Wine{Name: "Grande Colheita", ProducerId: producer.Id})
	if err != nil {
		t.Fatalf("CreateWine failed: %v", err)
	}

	label := villaOliveiraLabel()
	label.WineName = "GC"
	text, _ := core.ComposeIdentity(label.WineryName, label.WineName, label.Region, label.Country, []string{label.Varietal})
	vector, err := env.embedder.EmbedText(ctx, text)
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	// Perfect similarity but the stored identity was too sparse to trust.
	err = env.identity.Put(ctx, &core.IdentityEmbedding{
		WineId:       wine.Id,
		Vector:       vecindex.Normalize(vector),
		SourceText:   text,
		Completeness: 0.25,
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	res, err := env.resolver.Resolve(ctx, label)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.MergedByIdentity {
		t.Error("Sparse identity must not auto-merge")
	}
	if !res.WineCreated {
		t.Error("Expected a new wine instead")
	}
}

func TestResolveDegradesWhenIndexUnavailable(t *testing.T) {
	stores, err := badgerstore.NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	t.Cleanup(func() { stores.Close() })

	resolver := NewResolver(stores.Catalog, vecindex.UnavailableIdentityIndex{}, mock.NewEmbedder(), match.DefaultThresholds())

	res, err := resolver.Resolve(context.Background(), villaOliveiraLabel())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.DegradedToText {
		t.Error("Expected text-only degradation flag")
	}
	if !res.WineCreated {
		t.Error("Expected wine still created")
	}
}

func TestResolveNonVintage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	label := &ai.ExtractedLabel{
		WineryName: "Maison Caillou",
		WineName:   "Brut",
		Year:       0,
		Confidence: 0.9,
	}

	first, err := env.resolver.Resolve(ctx, label)
	if err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}
	if !first.Wine.IsNonVintage {
		t.Error("Expected wine flagged non-vintage")
	}
	if !first.Vintage.NonVintage() {
		t.Error("Expected non-vintage row")
	}

	second, err := env.resolver.Resolve(ctx, label)
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}
	if second.Vintage.Id == first.Vintage.Id {
		t.Error("Each non-vintage scan gets its own vintage row")
	}
}

func TestResolveRequiresNames(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.resolver.Resolve(context.Background(), &ai.ExtractedLabel{WineName: "Reserva"}); err == nil {
		t.Error("Expected error for missing winery name")
	}
	if _, err := env.resolver.Resolve(context.Background(), &ai.ExtractedLabel{WineryName: "Villa Oliveira"}); err == nil {
		t.Error("Expected error for missing wine name")
	}
}
