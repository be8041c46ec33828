package core

import "strings"

// Identity segments are weighted equally; the score is the fraction of
// populated, non-placeholder segments.
const identitySegmentWeight = 0.25

// placeholderSegments are extractor outputs that carry no identity signal.
var placeholderSegments = map[string]bool{
	"unknown": true,
	"n/a":     true,
	"none":    true,
	"null":    true,
}

// ComposeIdentity builds the canonical identity string for a wine and its
// completeness score. The string has the fixed shape
//
//	"{producer} | {wine} | {region},{country} | {varietals}"
//
// with empty segments left blank so the same wine always produces the same
// text. Completeness adds 0.25 for each populated, non-placeholder segment
// (producer, wine name, region-or-country, varietals), capped at 1.0.
func ComposeIdentity(producer, wineName, region, country string, varietals []string) (string, float32) {
	producer = strings.TrimSpace(producer)
	wineName = strings.TrimSpace(wineName)
	region = strings.TrimSpace(region)
	country = strings.TrimSpace(country)

	place := region
	if country != "" {
		if place != "" {
			place += "," + country
		} else {
			place = country
		}
	}

	clean := make([]string, 0, len(varietals))
	for _, v := range varietals {
		v = strings.TrimSpace(v)
		if v != "" && !placeholder(v) {
			clean = append(clean, v)
		}
	}
	grapes := strings.Join(clean, ",")

	var completeness float32
	if producer != "" && !placeholder(producer) {
		completeness += identitySegmentWeight
	}
	if wineName != "" && !placeholder(wineName) {
		completeness += identitySegmentWeight
	}
	if (region != "" && !placeholder(region)) || (country != "" && !placeholder(country)) {
		completeness += identitySegmentWeight
	}
	if grapes != "" {
		completeness += identitySegmentWeight
	}
	if completeness > 1.0 {
		completeness = 1.0
	}

	text := producer + " | " + wineName + " | " + place + " | " + grapes
	return text, completeness
}

func placeholder(s string) bool {
	return placeholderSegments[strings.ToLower(strings.TrimSpace(s))]
}
