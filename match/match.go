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

// Package match holds the similarity thresholds and decision rules that
// turn raw vector similarities into merge, duplicate and recommendation
// outcomes.
package match

// Thresholds groups the similarity cutoffs used across the pipeline.
type Thresholds struct {
	// IdentityAutoMerge is the minimum identity similarity for merging a
	// scanned wine into an existing catalog entry without review.
	IdentityAutoMerge float32

	// MinCompleteness gates auto-merge: a candidate whose identity text
	// was too sparse never merges automatically, however similar.
	MinCompleteness float32

	// VisualDuplicate is the minimum visual similarity for treating two
	// label images as the same bottle.
	VisualDuplicate float32

	// RecommendFloor is the minimum visual similarity for surfacing a
	// wine as "you might like this".
	RecommendFloor float32
}

// DefaultThresholds returns the production cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		IdentityAutoMerge: 0.90,
		MinCompleteness:   0.5,
		VisualDuplicate:   0.92,
		RecommendFloor:    0.60,
	}
}

// IdentityDecision classifies an identity index candidate.
type IdentityDecision int

const (
	// IdentityNoMatch means the candidate is unrelated.
	IdentityNoMatch IdentityDecision = iota
	// IdentityAutoMerge means the candidate is the same wine.
	IdentityAutoMerge
)

// DecideIdentity applies the auto-merge rule to one candidate.
func (t Thresholds) DecideIdentity(similarity, completeness float32) IdentityDecision {
	if similarity >= t.IdentityAutoMerge && completeness >= t.MinCompleteness {
		return IdentityAutoMerge
	}
	return IdentityNoMatch
}

// VisualDecision classifies a visual index candidate.
type VisualDecision int

const (
	// VisualNoMatch means the labels are unrelated.
	VisualNoMatch VisualDecision = iota
	// VisualRecommend means the labels are similar enough to suggest.
	VisualRecommend
	// VisualDuplicate means the labels show the same bottle.
	VisualDuplicate
)

// DecideVisual classifies a visual similarity score.
func (t Thresholds) DecideVisual(similarity float32) VisualDecision {
	switch {
	case similarity >= t.VisualDuplicate:
		return VisualDuplicate
	case similarity >= t.RecommendFloor:
		return VisualRecommend
	default:
		return VisualNoMatch
	}
}

// MatchPercent converts a similarity score to a 0-100 display value.
// Scores below zero clamp to 0.
func MatchPercent(similarity float32) int {
	if similarity <= 0 {
		return 0
	}
	if similarity >= 1 {
		return 100
	}
	return int(similarity*100 + 0.5)
}
