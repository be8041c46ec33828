package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
)

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	t.Cleanup(func() { stores.Close() })
	return stores
}

func testScanJob(userID core.ID, imageURL string) *core.ScanJob {
	return &core.ScanJob{
		UserId:   userID,
		ImageURL: imageURL,
	}
}

func TestEnqueueScan(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	job, created, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, "https://img.example/label-1.jpg"))
	if err != nil {
		t.Fatalf("EnqueueScan failed: %v", err)
	}
	if !created {
		t.Error("Expected created to be true")
	}
	if job.Id == 0 {
		t.Error("Expected a nonzero job ID")
	}
	if job.Status != core.JobStatusPending {
		t.Errorf("Expected pending status, got %v", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestEnqueueScanRejectsEmptyImageURL(t *testing.T) {
	stores := newTestStores(t)

	_, _, err := stores.Scans.EnqueueScan(context.Background(), testScanJob(1, ""))
	if !errors.Is(err, core.ErrEmptyImageURL) {
		t.Errorf("Expected ErrEmptyImageURL, got %v", err)
	}
}

func TestEnqueueScanIdempotent(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	key := core.IdempotencyKey(1, "Villa Oliveira", "Reserva", 2017, "scan")

	first := testScanJob(1, "https://img.example/label-1.jpg")
	first.IdempotencyKey = key
	job1, created, err := stores.Scans.EnqueueScan(ctx, first)
	if err != nil {
		t.Fatalf("First enqueue failed: %v", err)
	}
	if !created {
		t.Fatal("Expected first enqueue to create")
	}

	second := testScanJob(1, "https://img.example/label-1-retake.jpg")
	second.IdempotencyKey = key
	job2, created, err := stores.Scans.EnqueueScan(ctx, second)
	if err != nil {
		t.Fatalf("Second enqueue failed: %v", err)
	}
	if created {
		t.Error("Expected second enqueue to dedupe")
	}
	if job2.Id != job1.Id {
		t.Errorf("Expected job %d, got %d", job1.Id, job2.Id)
	}
}

func TestEnqueueScanNewJobAfterTerminal(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	key := core.IdempotencyKey(1, "Villa Oliveira", "Reserva", 2017, "scan")

	first := testScanJob(1, "https://img.example/label-1.jpg")
	first.IdempotencyKey = key
	job1, _, err := stores.Scans.EnqueueScan(ctx, first)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if _, err := stores.Scans.ClaimScans(ctx, 1); err != nil {
		t.Fatalf("ClaimScans failed: %v", err)
	}
	if err := stores.Scans.CompleteScan(ctx, job1.Id, core.ProcessedData{}); err != nil {
		t.Fatalf("CompleteScan failed: %v", err)
	}

	second := testScanJob(1, "https://img.example/label-1.jpg")
	second.IdempotencyKey = key
	job2, created, err := stores.Scans.EnqueueScan(ctx, second)
	if err != nil {
		t.Fatalf("Re-enqueue failed: %v", err)
	}
	if !created {
		t.Error("Expected a fresh job once the old one is terminal")
	}
	if job2.Id == job1.Id {
		t.Error("Expected a new job ID")
	}
}

func TestClaimScansOldestFirst(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	var ids []core.ID
	for i := 0; i < 3; i++ {
		job, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, fmt.Sprintf("https://img.example/label-%d.jpg", i)))
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		ids = append(ids, job.Id)
	}

	claimed, err := stores.Scans.ClaimScans(ctx, 2)
	if err != nil {
		t.Fatalf("ClaimScans failed: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("Expected 2 claimed jobs, got %d", len(claimed))
	}
	if claimed[0].Id != ids[0] || claimed[1].Id != ids[1] {
		t.Errorf("Expected oldest jobs %v, got %d and %d", ids[:2], claimed[0].Id, claimed[1].Id)
	}
	for _, job := range claimed {
		if job.Status != core.JobStatusProcessing {
			t.Errorf("Job %d: expected processing status, got %v", job.Id, job.Status)
		}
	}

	rest, err := stores.Scans.ClaimScans(ctx, 10)
	if err != nil {
		t.Fatalf("Second claim failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Id != ids[2] {
		t.Errorf("Expected only job %d to remain, got %v", ids[2], rest)
	}
}

func TestClaimScansConcurrentExclusive(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	const jobCount = 20
	for i := 0; i < jobCount; i++ {
		if _, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, fmt.Sprintf("https://img.example/label-%d.jpg", i))); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	var mu sync.Mutex
	seen := make(map[core.ID]int)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				claimed, err := stores.Scans.ClaimScans(ctx, 5)
				if err != nil {
					t.Errorf("ClaimScans failed: %v", err)
					return
				}
				mu.Lock()
				for _, job := range claimed {
					seen[job.Id]++
				}
				done := len(seen) == jobCount
				mu.Unlock()
				if done {
					return
				}
				if len(claimed) == 0 {
					mu.Lock()
					done = len(seen) == jobCount
					mu.Unlock()
					if done {
						return
					}
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()

	if len(seen) != jobCount {
		t.Fatalf("Expected %d distinct claims, got %d", jobCount, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("Job %d claimed %d times", id, count)
		}
	}
}

func TestCompleteScan(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	job, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, "https://img.example/label-1.jpg"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := stores.Scans.ClaimScans(ctx, 1); err != nil {
		t.Fatalf("ClaimScans failed: %v", err)
	}

	data := core.ProcessedData{
		ProducerId:   7,
		WineId:       9,
		VintageId:    11,
		ProducerName: "Villa Oliveira",
		WineName:     "Reserva",
		Year:         2017,
		Confidence:   0.95,
	}
	if err := stores.Scans.CompleteScan(ctx, job.Id, data); err != nil {
		t.Fatalf("CompleteScan failed: %v", err)
	}

	stored, err := stores.Scans.GetScan(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if stored.Status != core.JobStatusCompleted {
		t.Errorf("Expected completed status, got %v", stored.Status)
	}
	if stored.Processed != data {
		t.Errorf("Expected processed data %+v, got %+v", data, stored.Processed)
	}
	if stored.ProcessedAt.IsZero() {
		t.Error("Expected ProcessedAt to be set")
	}
}

func TestCompleteScanRequiresProcessing(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	job, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, "https://img.example/label-1.jpg"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	err = stores.Scans.CompleteScan(ctx, job.Id, core.ProcessedData{})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for pending job, got %v", err)
	}
}

func TestMarkScanRetryExhaustsBudget(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	const maxRetries = 3

	job, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, "https://img.example/label-1.jpg"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if _, err := stores.Scans.ClaimScans(ctx, 1); err != nil {
			t.Fatalf("ClaimScans failed: %v", err)
		}
		requeued, err := stores.Scans.MarkScanRetry(ctx, job.Id, "model timeout", maxRetries)
		if err != nil {
			t.Fatalf("MarkScanRetry failed: %v", err)
		}
		if !requeued {
			t.Fatalf("Attempt %d: expected requeue", attempt)
		}
	}

	if _, err := stores.Scans.ClaimScans(ctx, 1); err != nil {
		t.Fatalf("ClaimScans failed: %v", err)
	}
	requeued, err := stores.Scans.MarkScanRetry(ctx, job.Id, "model timeout", maxRetries)
	if err != nil {
		t.Fatalf("Final MarkScanRetry failed: %v", err)
	}
	if requeued {
		t.Error("Expected job to fail once retries exhausted")
	}

	stored, err := stores.Scans.GetScan(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if stored.Status != core.JobStatusFailed {
		t.Errorf("Expected failed status, got %v", stored.Status)
	}
	if stored.RetryCount != maxRetries {
		t.Errorf("Expected retry count %d, got %d", maxRetries, stored.RetryCount)
	}
	if stored.ErrorMessage != "model timeout" {
		t.Errorf("Expected error message kept, got %q", stored.ErrorMessage)
	}
}

func TestMarkScanFailed(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	job, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, "https://img.example/label-1.jpg"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := stores.Scans.ClaimScans(ctx, 1); err != nil {
		t.Fatalf("ClaimScans failed: %v", err)
	}

	if err := stores.Scans.MarkScanFailed(ctx, job.Id, "image not a wine label"); err != nil {
		t.Fatalf("MarkScanFailed failed: %v", err)
	}

	stored, err := stores.Scans.GetScan(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if stored.Status != core.JobStatusFailed {
		t.Errorf("Expected failed status, got %v", stored.Status)
	}
	if stored.RetryCount != 0 {
		t.Errorf("Expected retry count untouched, got %d", stored.RetryCount)
	}
}

func TestCountScansByStatus(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, fmt.Sprintf("https://img.example/label-%d.jpg", i))); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	claimed, err := stores.Scans.ClaimScans(ctx, 1)
	if err != nil {
		t.Fatalf("ClaimScans failed: %v", err)
	}
	if err := stores.Scans.CompleteScan(ctx, claimed[0].Id, core.ProcessedData{}); err != nil {
		t.Fatalf("CompleteScan failed: %v", err)
	}

	counts, err := stores.Scans.CountScansByStatus(ctx)
	if err != nil {
		t.Fatalf("CountScansByStatus failed: %v", err)
	}
	if counts[core.JobStatusPending] != 2 {
		t.Errorf("Expected 2 pending, got %d", counts[core.JobStatusPending])
	}
	if counts[core.JobStatusCompleted] != 1 {
		t.Errorf("Expected 1 completed, got %d", counts[core.JobStatusCompleted])
	}
	if counts[core.JobStatusProcessing] != 0 {
		t.Errorf("Expected 0 processing, got %d", counts[core.JobStatusProcessing])
	}
}

func TestReclaimStuck(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	job, _, err := stores.Scans.EnqueueScan(ctx, testScanJob(1, "https://img.example/label-1.jpg"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := stores.Scans.ClaimScans(ctx, 1); err != nil {
		t.Fatalf("ClaimScans failed: %v", err)
	}

	// A freshly claimed job is not stuck against an hour-long threshold.
	reclaimed, err := stores.Scans.ReclaimStuck(ctx, time.Hour)
	if err != nil {
		t.Fatalf("ReclaimStuck failed: %v", err)
	}
	if reclaimed != 0 {
		t.Errorf("Expected 0 reclaimed, got %d", reclaimed)
	}

	time.Sleep(10 * time.Millisecond)
	reclaimed, err = stores.Scans.ReclaimStuck(ctx, time.Millisecond)
	if err != nil {
		t.Fatalf("ReclaimStuck failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("Expected 1 reclaimed, got %d", reclaimed)
	}

	stored, err := stores.Scans.GetScan(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if stored.Status != core.JobStatusPending {
		t.Errorf("Expected pending after reclaim, got %v", stored.Status)
	}
}

func TestGetScanNotFound(t *testing.T) {
	stores := newTestStores(t)

	_, err := stores.Scans.GetScan(context.Background(), 9999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
