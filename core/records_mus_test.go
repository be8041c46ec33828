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

import (
	"reflect"
	"testing"
	"time"
)

func TestScanJobRoundTrip(t *testing.T) {
	job := ScanJob{
		Id:         101,
		UserId:     7,
		ImageURL:   "https://img.example.com/label.jpg",
		OCRText:    "VILLA OLIVEIRA RESERVA 2017",
		Status:     JobStatusCompleted,
		RetryCount: 2,
		Processed: ProcessedData{
			ProducerId:   3,
			WineId:       9,
			VintageId:    14,
			ProducerName: "Villa Oliveira",
			WineName:     "Reserva",
			Year:         2017,
			Region:       "Dão",
			Country:      "Portugal",
			Varietal:     "Touriga Nacional",
			Confidence:   0.93,
		},
		ErrorMessage:   "timeout talking to vision model",
		IdempotencyKey: IdempotencyKey(7, "Villa Oliveira", "Reserva", 2017, "scan"),
		CreatedAt:      time.UnixMicro(time.Now().UnixMicro()).UTC(),
		// ProcessedAt left zero: pending jobs have no terminal timestamp.
	}

	bs := make([]byte, ScanJobMUS.Size(job))
	n := ScanJobMUS.Marshal(job, bs)
	if n != len(bs) {
		t.Fatalf("Marshal wrote %d bytes, Size said %d", n, len(bs))
	}

	got, n, err := ScanJobMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if n != len(bs) {
		t.Errorf("Unmarshal consumed %d of %d bytes", n, len(bs))
	}
	if !reflect.DeepEqual(got, job) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, job)
	}
	if !got.ProcessedAt.IsZero() {
		t.Error("zero ProcessedAt did not survive the round trip")
	}
}

func TestIdentityEmbeddingRoundTrip(t *testing.T) {
	vec := make([]float32, IdentityEmbeddingDim)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}

	emb := IdentityEmbedding{
		WineId:       9,
		Vector:       vec,
		SourceText:   "Villa Oliveira | Reserva | Dão,Portugal | Touriga Nacional",
		Model:        "all-minilm",
		Version:      "v2",
		Completeness: 1.0,
		CreatedAt:    time.UnixMicro(time.Now().UnixMicro()).UTC(),
	}

	bs := make([]byte, IdentityEmbeddingMUS.Size(emb))
	if n := IdentityEmbeddingMUS.Marshal(emb, bs); n != len(bs) {
		t.Fatalf("Marshal wrote %d bytes, Size said %d", n, len(bs))
	}

	got, _, err := IdentityEmbeddingMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(got, emb) {
		t.Error("round trip mismatch")
	}
}

func TestVisualEmbeddingRoundTrip(t *testing.T) {
	emb := VisualEmbedding{
		Key:    ScanEmbeddingKey(101),
		Vector: []float32{0.5, -0.25, 0.125},
		Meta: VisualMeta{
			WineId:       9,
			VintageId:    14,
			ScanId:       101,
			ProducerName: "Villa Oliveira",
			WineName:     "Reserva",
		},
		CreatedAt: time.UnixMicro(time.Now().UnixMicro()).UTC(),
	}

	bs := make([]byte, VisualEmbeddingMUS.Size(emb))
	VisualEmbeddingMUS.Marshal(emb, bs)

	got, _, err := VisualEmbeddingMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(got, emb) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, emb)
	}
}

func TestEmbeddingJobRoundTrip(t *testing.T) {
	job := EmbeddingJob{
		Id:            55,
		Kind:          EmbeddingKindVisual,
		WineId:        9,
		VintageId:     14,
		ScanId:        101,
		InputImageURL: "https://img.example.com/label.jpg",
		Status:        JobStatusPending,
		CreatedAt:     time.UnixMicro(time.Now().UnixMicro()).UTC(),
	}

	bs := make([]byte, EmbeddingJobMUS.Size(job))
	EmbeddingJobMUS.Marshal(job, bs)

	got, _, err := EmbeddingJobMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(got, job) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, job)
	}
}

func TestWineRoundTrip(t *testing.T) {
	wine := Wine{
		Id:           9,
		Name:         "Reserva",
		ProducerId:   3,
		IsNonVintage: false,
		Type:         "still",
		Color:        "red",
		Style:        "full-bodied",
		FoodPairings: []string{"roast lamb", "aged cheese"},
		InsertedAt:   time.UnixMicro(time.Now().UnixMicro()).UTC(),
		UpdatedAt:    time.UnixMicro(time.Now().UnixMicro()).UTC(),
	}

	bs := make([]byte, WineMUS.Size(wine))
	WineMUS.Marshal(wine, bs)

	got, _, err := WineMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(got, wine) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, wine)
	}
}
