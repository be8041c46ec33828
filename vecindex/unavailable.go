package vecindex

import (
	"context"

	"github.com/vinolog/vinolog/core"
)

// UnavailableIdentityIndex rejects every call with ErrIndexUnavailable.
// Used when vector search is disabled so callers exercise their text-only
// fallback paths.
type UnavailableIdentityIndex struct{}

var _ IdentityIndex = UnavailableIdentityIndex{}

func (UnavailableIdentityIndex) Put(ctx context.Context, emb *core.IdentityEmbedding) error {
	return ErrIndexUnavailable
}

func (UnavailableIdentityIndex) Query(ctx context.Context, vector []float32, limit int) ([]IdentityMatch, error) {
	return nil, ErrIndexUnavailable
}

func (UnavailableIdentityIndex) Get(ctx context.Context, wineID core.ID) (*core.IdentityEmbedding, error) {
	return nil, ErrIndexUnavailable
}

func (UnavailableIdentityIndex) Delete(ctx context.Context, wineID core.ID) error {
	return ErrIndexUnavailable
}

func (UnavailableIdentityIndex) Close() error { return nil }

// UnavailableVisualIndex rejects every call with ErrIndexUnavailable.
type UnavailableVisualIndex struct{}

var _ VisualIndex = UnavailableVisualIndex{}

func (UnavailableVisualIndex) Put(ctx context.Context, emb *core.VisualEmbedding) error {
	return ErrIndexUnavailable
}

func (UnavailableVisualIndex) Query(ctx context.Context, vector []float32, limit int) ([]VisualMatch, error) {
	return nil, ErrIndexUnavailable
}

func (UnavailableVisualIndex) Get(ctx context.Context, key string) (*core.VisualEmbedding, error) {
	return nil, ErrIndexUnavailable
}

func (UnavailableVisualIndex) Delete(ctx context.Context, key string) error {
	return ErrIndexUnavailable
}

func (UnavailableVisualIndex) Close() error { return nil }
