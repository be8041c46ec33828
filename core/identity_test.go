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


package core

import "testing"

func TestComposeIdentityFull(t *testing.T) {
	text, completeness := ComposeIdentity(
		"Villa Oliveira", "Reserva", "Dão", "Portugal",
		[]string{"Touriga Nacional", "Tinta Roriz"},
	)

	want := "Villa Oliveira | Reserva | Dão,Portugal | Touriga Nacional,Tinta Roriz"
	if text != want {
		t.Errorf("identity text = %q, want %q", text, want)
	}
	if completeness != 1.0 {
		t.Errorf("completeness = %v, want 1.0", completeness)
	}
}

func TestComposeIdentityPartial(t *testing.T) {
	cases := []struct {
		name         string
		producer     string
		wine         string
		region       string
		country      string
		varietals    []string
		completeness float32
	}{
		{"producer only", "Villa Oliveira", "", "", "", nil, 0.25},
		{"producer and wine", "Villa Oliveira", "Reserva", "", "", nil, 0.5},
		{"region without country", "Villa Oliveira", "Reserva", "Dão", "", nil, 0.75},
		{"country without region", "Villa Oliveira", "Reserva", "", "Portugal", nil, 0.75},
		{"nothing", "", "", "", "", nil, 0},
		{"varietals only", "", "", "", "", []string{"Syrah"}, 0.25},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, got := ComposeIdentity(c.producer, c.wine, c.region, c.country, c.varietals)
			if got != c.completeness {
				t.Errorf("completeness = %v, want %v", got, c.completeness)
			}
		})
	}
}

func TestComposeIdentityPlaceholders(t *testing.T) {
	// Placeholder extractor outputs carry no identity signal and must not
	// inflate the completeness score.
	_, completeness := ComposeIdentity("Unknown", "N/A", "none", "NULL", []string{"unknown"})
	if completeness != 0 {
		t.Errorf("completeness = %v, want 0 for all-placeholder input", completeness)
	}

	// A real country next to a placeholder region still credits the place
	// segment.
	_, completeness = ComposeIdentity("Villa Oliveira", "Reserva", "unknown", "Portugal", nil)
	if completeness != 0.75 {
		t.Errorf("completeness = %v, want 0.75", completeness)
	}
}

func TestComposeIdentityDeterministic(t *testing.T) {
	a, _ := ComposeIdentity(" Villa Oliveira ", "Reserva", "Dão", "Portugal", []string{"Baga"})
	b, _ := ComposeIdentity("Villa Oliveira", "Reserva", "Dão", "Portugal", []string{"Baga"})
	if a != b {
		t.Errorf("whitespace changed identity text: %q vs %q", a, b)
	}
}
