package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IdempotencyKey builds a deterministic key for one logical unit of work.
// Jobs carrying the same key are collapsed at enqueue time while one of them
// is still live. year is 0 for non-vintage wines; purpose distinguishes
// scan, enrichment and embedding work for the same catalog rows.
func IdempotencyKey(userID ID, producer, wineName string, year int, purpose string) string {
	canon := fmt.Sprintf("%d|%s|%s|%d|%s",
		userID,
		strings.ToLower(strings.TrimSpace(producer)),
		strings.ToLower(strings.TrimSpace(wineName)),
		year,
		purpose)
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(canon))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// JobStatus identifies the lifecycle state of a queued job.
type JobStatus int

const (
	// JobStatusPending means the job is waiting to be claimed.
	JobStatusPending JobStatus = iota + 1
	// JobStatusProcessing means a worker holds exclusive ownership.
	JobStatusProcessing
	// JobStatusCompleted is terminal success.
	JobStatusCompleted
	// JobStatusFailed is terminal failure after retry exhaustion.
	JobStatusFailed
)

// String returns the lowercase name of the status.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusProcessing:
		return "processing"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// EmbeddingKind distinguishes the two embedding spaces.
type EmbeddingKind int

const (
	// EmbeddingKindIdentity is the textual identity embedding (384-dim).
	EmbeddingKindIdentity EmbeddingKind = iota + 1
	// EmbeddingKindVisual is the label-photograph embedding (768-dim).
	EmbeddingKindVisual
)

// String returns the lowercase name of the kind.
func (k EmbeddingKind) String() string {
	switch k {
	case EmbeddingKindIdentity:
		return "identity"
	case EmbeddingKindVisual:
		return "visual"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Dimensions of the two embedding spaces.
const (
	IdentityEmbeddingDim = 384
	VisualEmbeddingDim   = 768
)

// ScanJob is a queued label-scan unit of work. One row per uploaded image.
type ScanJob struct {
	Id             ID
	UserId         ID
	ImageURL       string
	OCRText        string // optional OCR text supplied with the upload
	Status         JobStatus
	RetryCount     int
	Processed      ProcessedData // populated on completion
	ErrorMessage   string        // last failure cause, kept across retries
	IdempotencyKey string
	CreatedAt      time.Time
	ProcessedAt    time.Time // zero until the job reaches a terminal state
}

// ProcessedData carries the resolved identifiers and extracted fields a
// completed scan exposes to downstream consumers.
type ProcessedData struct {
	ProducerId   ID
	WineId       ID
	VintageId    ID
	ProducerName string
	WineName     string
	Year         int // 0 means non-vintage
	Region       string
	Country      string
	Varietal     string
	Confidence   float32
}

// Producer is a wine producer (winery).
type Producer struct {
	Id         ID
	Name       string
	Region     string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Wine is a named wine under a producer. Enrichment fields start empty and
// are write-once: a non-empty value is never overwritten.
type Wine struct {
	Id           ID
	Name         string
	ProducerId   ID
	IsNonVintage bool
	Type         string
	Color        string
	Style        string
	FoodPairings []string
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// NeedsEnrichment reports whether any enrichment field is still unset.
func (w *Wine) NeedsEnrichment() bool {
	return w.Type == "" || w.Color == "" || w.Style == "" || len(w.FoodPairings) == 0
}

// Vintage is a (wine, year) pairing. Year 0 marks a non-vintage bottle;
// such vintages are always fresh rows and never deduplicated by year.
type Vintage struct {
	Id         ID
	WineId     ID
	Year       int
	InsertedAt time.Time
}

// NonVintage reports whether the vintage has no year.
func (v *Vintage) NonVintage() bool {
	return v.Year == 0
}

// Varietal is a grape variety detected for a vintage.
type Varietal struct {
	Id         ID
	VintageId  ID
	Name       string
	InsertedAt time.Time
}

// IdentityEmbedding is the textual identity vector of a wine.
// At most one exists per (wine, model, version).
type IdentityEmbedding struct {
	WineId       ID
	Vector       []float32 // 384-dim, unit length
	SourceText   string
	Model        string
	Version      string
	Completeness float32 // 0..1, gates auto-merge
	CreatedAt    time.Time
}

// VisualEmbedding is the label-photograph vector, keyed by scan when the
// originating scan is known, otherwise by wine.
type VisualEmbedding struct {
	Key       string
	Vector    []float32 // 768-dim
	Meta      VisualMeta
	CreatedAt time.Time
}

// VisualMeta is the metadata stored alongside a visual embedding.
type VisualMeta struct {
	WineId       ID
	VintageId    ID
	ScanId       ID
	ProducerName string
	WineName     string
}

// ScanEmbeddingKey returns the visual-embedding key for a scan-scoped vector.
func ScanEmbeddingKey(scanID ID) string {
	return fmt.Sprintf("scan:%d", scanID)
}

// WineEmbeddingKey returns the visual-embedding key for a wine-scoped vector.
func WineEmbeddingKey(wineID ID) string {
	return fmt.Sprintf("wine:%d", wineID)
}

// EnrichmentJob backfills missing wine metadata on an already-resolved wine.
type EnrichmentJob struct {
	Id             ID
	WineId         ID
	VintageId      ID
	UserId         ID
	Status         JobStatus
	Priority       int
	RetryCount     int
	ErrorMessage   string
	IdempotencyKey string
	CreatedAt      time.Time
}

// EmbeddingJob generates one embedding, identity or visual, for a resolved
// wine. Exactly one of InputText and InputImageURL is set, matching Kind.
type EmbeddingJob struct {
	Id            ID
	Kind          EmbeddingKind
	WineId        ID
	VintageId     ID
	ScanId        ID
	InputText     string
	InputImageURL string
	Completeness  float32 // identity jobs: completeness of the source text
	Status        JobStatus
	RetryCount    int
	ErrorMessage  string
	CreatedAt     time.Time
}
