// Copyright 2025 Vinolog Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resolve turns extracted label fields into catalog rows. A label
// resolves producer first, then wine, then vintage. Wine resolution tries
// name containment before consulting the identity index, and falls back to
// text-only matching when the index cannot be reached.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/match"
	"github.com/vinolog/vinolog/storage"
	"github.com/vinolog/vinolog/vecindex"
)

// identityCandidateLimit bounds how many index candidates one resolution
// considers.
const identityCandidateLimit = 5

// Resolution reports how a label mapped onto the catalog.
type Resolution struct {
	Producer *core.Producer
	Wine     *core.Wine
	Vintage  *core.Vintage

	// WineCreated reports whether a new wine row was written.
	WineCreated bool
	// MergedByIdentity reports that the identity index matched the label
	// to an existing wine the name lookup missed.
	MergedByIdentity bool
	// DegradedToText reports that the identity index was unreachable and
	// resolution ran on name matching alone.
	DegradedToText bool
}

// Resolver maps extracted labels onto producers, wines and vintages.
type Resolver struct {
	catalog    storage.Catalog
	identity   vecindex.IdentityIndex
	embedder   ai.Embedder
	thresholds match.Thresholds
	logger     *slog.Logger
}

// NewResolver creates a resolver over the given catalog and identity index.
func NewResolver(catalog storage.Catalog, identity vecindex.IdentityIndex, embedder ai.Embedder, thresholds match.Thresholds) *Resolver {
	return &Resolver{
		catalog:    catalog,
		identity:   identity,
		embedder:   embedder,
		thresholds: thresholds,
		logger:     slog.Default().With("component", "resolver"),
	}
}

// Resolve maps one extracted label onto the catalog, creating rows as
// needed. The producer and wine names must be present on the label.
func (r *Resolver) Resolve(ctx context.Context, label *ai.ExtractedLabel) (*Resolution, error) {
	if label == nil {
		return nil, fmt.Errorf("%w: label required", core.ErrValidation)
	}
	if strings.TrimSpace(label.WineryName) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyProducerName)
	}
	if strings.TrimSpace(label.WineName) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyWineName)
	}

	producer, _, err := r.catalog.UpsertProducer(ctx, label.WineryName, label.Region)
	if err != nil {
		return nil, fmt.Errorf("resolving producer: %w", err)
	}

	resolution := &Resolution{Producer: producer}

	wine, err := r.catalog.FindWineMatching(ctx, producer.Id, label.WineName)
	switch {
	case err == nil:
		resolution.Wine = wine
	case errors.Is(err, storage.ErrNotFound):
		wine, err = r.resolveByIdentity(ctx, producer, label, resolution)
		if err != nil {
			return nil, err
		}
		resolution.Wine = wine
	default:
		return nil, fmt.Errorf("matching wine: %w", err)
	}

	vintage, _, err := r.catalog.GetOrCreateVintage(ctx, resolution.Wine.Id, label.Year)
	if err != nil {
		return nil, fmt.Errorf("resolving vintage: %w", err)
	}
	resolution.Vintage = vintage

	if label.Varietal != "" {
		if _, err := r.catalog.AddVarietals(ctx, vintage.Id, label.Varietal); err != nil {
			return nil, fmt.Errorf("recording varietal: %w", err)
		}
	}

	return resolution, nil
}

// resolveByIdentity consults the identity index for a wine the name lookup
// missed, creating a new row when no candidate clears the merge bar.
func (r *Resolver) resolveByIdentity(ctx context.Context, producer *core.Producer, label *ai.ExtractedLabel, resolution *Resolution) (*core.Wine, error) {
	merged, degraded := r.consultIndex(ctx, producer, label)
	if degraded {
		resolution.DegradedToText = true
	}
	if merged != nil {
		resolution.MergedByIdentity = true
		return merged, nil
	}

	wine, err := r.catalog.CreateWine(ctx, &core.Wine{
		Name:         strings.TrimSpace(label.WineName),
		ProducerId:   producer.Id,
		IsNonVintage: label.Year == 0,
	})
	if err != nil {
		return nil, fmt.Errorf("creating wine: %w", err)
	}
	resolution.WineCreated = true
	return wine, nil
}

// consultIndex returns the wine an identity candidate merges into, or nil.
// degraded reports that the index or embedder could not be reached.
func (r *Resolver) consultIndex(ctx context.Context, producer *core.Producer, label *ai.ExtractedLabel) (*core.Wine, bool) {
	var varietals []string
	if label.Varietal != "" {
		varietals = []string{label.Varietal}
	}
	text, _ := core.ComposeIdentity(label.WineryName, label.WineName, label.Region, label.Country, varietals)

	vector, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		r.logger.Warn("identity embedding failed, using text-only matching", "error", err)
		return nil, true
	}

	matches, err := r.identity.Query(ctx, vecindex.Normalize(vector), identityCandidateLimit)
	if err != nil {
		if errors.Is(err, vecindex.ErrIndexUnavailable) {
			r.logger.Warn("identity index unavailable, using text-only matching")
		} else {
			r.logger.Warn("identity query failed, using text-only matching", "error", err)
		}
		return nil, true
	}

	for _, candidate := range matches {
		if r.thresholds.DecideIdentity(candidate.Similarity, candidate.Completeness) != match.IdentityAutoMerge {
			continue
		}
		wine, err := r.catalog.GetWine(ctx, candidate.WineId)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			r.logger.Warn("identity candidate lookup failed", "wine_id", candidate.WineId, "error", err)
			continue
		}
		// Merging across producers would conflate different houses with
		// similar branding.
		if wine.ProducerId != producer.Id {
			continue
		}
		r.logger.Info("merged wine by identity",
			"wine_id", wine.Id,
			"similarity", candidate.Similarity,
			"completeness", candidate.Completeness)
		return wine, false
	}
	return nil, false
}
