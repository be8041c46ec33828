package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
	"github.com/vinolog/vinolog/vecindex"
)

// EmbeddingWorker drains the embedding queue. Identity jobs embed the
// wine's composed identity text and update the identity index; visual jobs
// embed the label photograph and update the visual index under the scan
// key, promoting the first image per wine to the canonical wine key.
type EmbeddingWorker struct {
	queue         storage.EmbeddingQueue
	catalog       storage.Catalog
	embedder      ai.Embedder
	imageEmbedder ai.ImageEmbedder
	identity      vecindex.IdentityIndex
	visual        vecindex.VisualIndex
	model         string
	modelVersion  string
	config        Config
	logger        *slog.Logger
}

// NewEmbeddingWorker creates an embedding worker. The model name and
// version are recorded on every identity embedding it writes.
func NewEmbeddingWorker(
	queue storage.EmbeddingQueue,
	catalog storage.Catalog,
	embedder ai.Embedder,
	imageEmbedder ai.ImageEmbedder,
	identity vecindex.IdentityIndex,
	visual vecindex.VisualIndex,
	model, modelVersion string,
	config Config,
) (*EmbeddingWorker, error) {
	if queue == nil {
		return nil, ErrEmbeddingQueueRequired
	}
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if embedder == nil || imageEmbedder == nil {
		return nil, ErrProviderRequired
	}

	defaults := DefaultConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}

	return &EmbeddingWorker{
		queue:         queue,
		catalog:       catalog,
		embedder:      embedder,
		imageEmbedder: imageEmbedder,
		identity:      identity,
		visual:        visual,
		model:         model,
		modelVersion:  modelVersion,
		config:        config,
		logger:        slog.Default().With("component", "embedding_worker"),
	}, nil
}

// Run polls the queue until the context is cancelled.
func (w *EmbeddingWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info("embedding worker started", "batch_size", w.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("embedding worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				w.logger.Error("error processing batch", "err", err)
			}
		}
	}
}

// ProcessOnce claims one batch and processes it serially, returning how
// many jobs were claimed. Embedding hosts serialize requests anyway, so
// per-job concurrency buys nothing here.
func (w *EmbeddingWorker) ProcessOnce(ctx context.Context) (int, error) {
	jobs, err := w.queue.ClaimEmbeddings(ctx, w.config.BatchSize)
	if err != nil {
		return 0, err
	}

	for _, job := range jobs {
		w.processJob(ctx, job)
	}
	return len(jobs), nil
}

func (w *EmbeddingWorker) processJob(ctx context.Context, job *core.EmbeddingJob) {
	logger := w.logger.With("job_id", job.Id, "kind", job.Kind.String())

	var err error
	switch job.Kind {
	case core.EmbeddingKindIdentity:
		err = w.processIdentity(ctx, job)
	case core.EmbeddingKindVisual:
		err = w.processVisual(ctx, job)
	default:
		err = fmt.Errorf("%w: %w", core.ErrValidation, core.ErrInvalidEmbeddingKind)
	}

	if err == nil {
		if cerr := w.queue.CompleteEmbedding(ctx, job.Id); cerr != nil {
			logger.Error("error completing embedding job", "err", cerr)
		}
		return
	}

	message := truncateCause(err.Error(), maxCauseLen)
	switch Classify(err) {
	case OutcomeSkip:
		logger.Info("skipping embedding job, resource vanished", "err", err)
		if ferr := w.queue.MarkEmbeddingFailed(ctx, job.Id, message); ferr != nil {
			logger.Error("error failing embedding job", "err", ferr)
		}
	case OutcomeFail:
		logger.Warn("embedding job failed permanently", "err", err)
		if ferr := w.queue.MarkEmbeddingFailed(ctx, job.Id, message); ferr != nil {
			logger.Error("error failing embedding job", "err", ferr)
		}
	default:
		requeued, rerr := w.queue.MarkEmbeddingRetry(ctx, job.Id, message, w.config.MaxRetries)
		if rerr != nil {
			logger.Error("error re-queueing embedding job", "err", rerr)
			return
		}
		if requeued {
			logger.Warn("embedding job re-queued", "err", err)
		} else {
			logger.Warn("embedding job failed, retries exhausted", "err", err)
		}
	}
}

func (w *EmbeddingWorker) processIdentity(ctx context.Context, job *core.EmbeddingJob) error {
	vector, err := w.embedder.EmbedText(ctx, job.InputText)
	if err != nil {
		return fmt.Errorf("embedding identity text: %w", err)
	}

	return w.identity.Put(ctx, &core.IdentityEmbedding{
		WineId:       job.WineId,
		Vector:       vecindex.Normalize(vector),
		SourceText:   job.InputText,
		Model:        w.model,
		Version:      w.modelVersion,
		Completeness: job.Completeness,
	})
}

func (w *EmbeddingWorker) processVisual(ctx context.Context, job *core.EmbeddingJob) error {
	if job.ScanId == 0 && job.WineId == 0 {
		return fmt.Errorf("%w: visual embedding job has neither scan nor wine", core.ErrValidation)
	}

	vector, err := w.imageEmbedder.EmbedImage(ctx, job.InputImageURL)
	if err != nil {
		return fmt.Errorf("embedding label image: %w", err)
	}

	meta := core.VisualMeta{
		WineId:    job.WineId,
		VintageId: job.VintageId,
		ScanId:    job.ScanId,
	}
	if job.WineId != 0 {
		if wine, err := w.catalog.GetWine(ctx, job.WineId); err == nil {
			meta.WineName = wine.Name
			if producer, perr := w.catalog.GetProducer(ctx, wine.ProducerId); perr == nil {
				meta.ProducerName = producer.Name
			}
		}
	}

	// Scope to the originating scan when there is one, else straight to
	// the wine. Normalizing here keeps dot products cosine regardless of
	// what the image service returns.
	key := core.ScanEmbeddingKey(job.ScanId)
	if job.ScanId == 0 {
		key = core.WineEmbeddingKey(job.WineId)
	}

	emb := &core.VisualEmbedding{
		Key:    key,
		Vector: vecindex.Normalize(vector),
		Meta:   meta,
	}
	if err := w.visual.Put(ctx, emb); err != nil {
		return err
	}

	// The first scan of a wine doubles as its canonical label image.
	if job.ScanId != 0 && job.WineId != 0 {
		wineKey := core.WineEmbeddingKey(job.WineId)
		_, err := w.visual.Get(ctx, wineKey)
		if errors.Is(err, storage.ErrNotFound) {
			canonical := *emb
			canonical.Key = wineKey
			if perr := w.visual.Put(ctx, &canonical); perr != nil {
				return perr
			}
		} else if err != nil && !errors.Is(err, vecindex.ErrIndexUnavailable) {
			return err
		}
	}
	return nil
}
