package vinolog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinolog/vinolog/ai/mock"
	"github.com/vinolog/vinolog/enrich"
	"github.com/vinolog/vinolog/pipeline"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.ScanQueue())
		assert.NotNil(t, db.EmbeddingQueue())
		assert.NotNil(t, db.EnrichmentQueue())
		assert.NotNil(t, db.Catalog())
		assert.NotNil(t, db.IdentityIndex())
		assert.NotNil(t, db.VisualIndex())
		assert.NotNil(t, db.Provider())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file where the data directory should be
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("in-memory with injected provider", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithProvider(mock.NewProvider()))
		require.NoError(t, err)
		defer db.Close()

		assert.NotNil(t, db.Provider())
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase("", WithInMemory(), WithProvider(mock.NewProvider()))
	require.NoError(t, err)
	defer db.Close()

	t.Run("can create resolver", func(t *testing.T) {
		assert.NotNil(t, db.NewResolver())
	})

	t.Run("can create scan worker", func(t *testing.T) {
		worker, err := db.NewScanWorker()
		require.NoError(t, err)
		require.NotNil(t, worker)
		worker.Release()
	})

	t.Run("can create embedding worker", func(t *testing.T) {
		worker, err := db.NewEmbeddingWorker(pipeline.Config{})
		require.NoError(t, err)
		assert.NotNil(t, worker)
	})

	t.Run("can create enrichment worker", func(t *testing.T) {
		worker, err := db.NewEnrichmentWorker(enrich.Config{})
		require.NoError(t, err)
		assert.NotNil(t, worker)
	})

	t.Run("can create enrichment scanner", func(t *testing.T) {
		scanner, err := db.NewEnrichmentScanner(0)
		require.NoError(t, err)
		assert.NotNil(t, scanner)
	})

	t.Run("can create recommendation service", func(t *testing.T) {
		assert.NotNil(t, db.NewRecommendationService())
	})
}
