package ai

// ExtractedLabel is the structured reading of a wine label photograph.
// WineryName and WineName are required; the rest is best-effort and empty
// (or zero) when the label does not show it.
type ExtractedLabel struct {
	// WineryName is the producer as printed on the label.
	WineryName string `json:"winery_name"`

	// WineName is the cuvée or bottling name.
	WineName string `json:"wine_name"`

	// Varietal is the grape variety if the label names one.
	Varietal string `json:"varietal,omitempty"`

	// Year is the vintage year, 0 when the bottle is non-vintage or the
	// year is not visible.
	Year int `json:"year,omitempty"`

	// Region is the appellation or growing region.
	Region string `json:"region,omitempty"`

	// Country is the country of origin.
	Country string `json:"country,omitempty"`

	// Confidence is the model's own estimate, 0..1, of how reliable the
	// reading is.
	Confidence float32 `json:"confidence"`
}

// WineEnrichment is descriptive metadata for an identified wine, used to
// backfill catalog rows. Empty fields mean the service had no answer.
type WineEnrichment struct {
	// Type is the broad category: "still", "sparkling", "fortified", "dessert".
	Type string `json:"type,omitempty"`

	// Color is "red", "white", "rosé" or "orange".
	Color string `json:"color,omitempty"`

	// Style is a short tasting-style descriptor, e.g. "full-bodied".
	Style string `json:"style,omitempty"`

	// FoodPairings lists dishes the wine goes with.
	FoodPairings []string `json:"food_pairings,omitempty"`

	// Varietals lists grape varieties in the blend.
	Varietals []string `json:"varietals,omitempty"`
}
