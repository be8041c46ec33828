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

package storage

import (
	"github.com/vinolog/vinolog/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalScanJob serializes a ScanJob to bytes.
func MarshalScanJob(job *core.ScanJob) []byte {
	buf := make([]byte, core.ScanJobMUS.Size(*job))
	core.ScanJobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalScanJob deserializes a ScanJob from bytes.
func UnmarshalScanJob(data []byte) (*core.ScanJob, error) {
	job, _, err := core.ScanJobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarshalEmbeddingJob serializes an EmbeddingJob to bytes.
func MarshalEmbeddingJob(job *core.EmbeddingJob) []byte {
	buf := make([]byte, core.EmbeddingJobMUS.Size(*job))
	core.EmbeddingJobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalEmbeddingJob deserializes an EmbeddingJob from bytes.
func UnmarshalEmbeddingJob(data []byte) (*core.EmbeddingJob, error) {
	job, _, err := core.EmbeddingJobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarshalEnrichmentJob serializes an EnrichmentJob to bytes.
func MarshalEnrichmentJob(job *core.EnrichmentJob) []byte {
	buf := make([]byte, core.EnrichmentJobMUS.Size(*job))
	core.EnrichmentJobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalEnrichmentJob deserializes an EnrichmentJob from bytes.
func UnmarshalEnrichmentJob(data []byte) (*core.EnrichmentJob, error) {
	job, _, err := core.EnrichmentJobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarshalProducer serializes a Producer to bytes.
func MarshalProducer(producer *core.Producer) []byte {
	buf := make([]byte, core.ProducerMUS.Size(*producer))
	core.ProducerMUS.Marshal(*producer, buf)
	return buf
}

// UnmarshalProducer deserializes a Producer from bytes.
func UnmarshalProducer(data []byte) (*core.Producer, error) {
	producer, _, err := core.ProducerMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &producer, nil
}

// MarshalWine serializes a Wine to bytes.
func MarshalWine(wine *core.Wine) []byte {
	buf := make([]byte, core.WineMUS.Size(*wine))
	core.WineMUS.Marshal(*wine, buf)
	return buf
}

// UnmarshalWine deserializes a Wine from bytes.
func UnmarshalWine(data []byte) (*core.Wine, error) {
	wine, _, err := core.WineMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &wine, nil
}

// MarshalVintage serializes a Vintage to bytes.
func MarshalVintage(vintage *core.Vintage) []byte {
	buf := make([]byte, core.VintageMUS.Size(*vintage))
	core.VintageMUS.Marshal(*vintage, buf)
	return buf
}

// UnmarshalVintage deserializes a Vintage from bytes.
func UnmarshalVintage(data []byte) (*core.Vintage, error) {
	vintage, _, err := core.VintageMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &vintage, nil
}

// MarshalVarietal serializes a Varietal to bytes.
func MarshalVarietal(varietal *core.Varietal) []byte {
	buf := make([]byte, core.VarietalMUS.Size(*varietal))
	core.VarietalMUS.Marshal(*varietal, buf)
	return buf
}

// UnmarshalVarietal deserializes a Varietal from bytes.
func UnmarshalVarietal(data []byte) (*core.Varietal, error) {
	varietal, _, err := core.VarietalMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &varietal, nil
}
