// Package pipeline provides the workers that drain the scan and embedding
// queues.
//
// The Worker type handles scan jobs end to end: label extraction via the
// vision model, entity resolution against the catalog, and enqueueing the
// embedding and enrichment follow-up jobs. The EmbeddingWorker consumes
// those follow-ups and keeps the identity and visual indexes current.
//
// Failures are classified before settling: transient and malformed-response
// errors re-queue the job against its retry budget, validation errors fail
// it immediately, and vanished source images fail it without charging the
// budget. Scan processing runs concurrently on a worker pool; embedding
// jobs run serially since the model host is the bottleneck.
package pipeline
