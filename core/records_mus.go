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

// MUS serializers for every record persisted to storage. Written by hand
// against the mus-go primitives so the float32 vectors and optional
// timestamps get explicit framing. Field order is the struct order; adding
// fields is append-only to keep old databases readable.

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS serializes ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

// Timestamps are stored as UnixMicro with 0 reserved for the zero time, so
// "not yet processed" survives a round trip.

func marshalTime(t time.Time, bs []byte) (n int) {
	if t.IsZero() {
		return varint.Int64.Marshal(0, bs)
	}
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (t time.Time, n int, err error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || us == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeTime(t time.Time) (size int) {
	if t.IsZero() {
		return varint.Int64.Size(0)
	}
	return varint.Int64.Size(t.UnixMicro())
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		bits, m, err := varint.Uint32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func marshalStrings(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]string, length)
	for i := 0; i < length; i++ {
		s, m, err := ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = s
	}
	return v, n, nil
}

func sizeStrings(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func marshalFloat32(f float32, bs []byte) (n int) {
	return varint.Uint32.Marshal(math.Float32bits(f), bs)
}

func unmarshalFloat32(bs []byte) (f float32, n int, err error) {
	bits, n, err := varint.Uint32.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	return math.Float32frombits(bits), n, nil
}

func sizeFloat32(f float32) (size int) {
	return varint.Uint32.Size(math.Float32bits(f))
}

func unmarshalID(bs []byte) (ID, int, error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

// ProcessedDataMUS serializes ProcessedData values.
var ProcessedDataMUS = processedDataMUS{}

type processedDataMUS struct{}

func (processedDataMUS) Marshal(v ProcessedData, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.ProducerId), bs)
	n += varint.Uint64.Marshal(uint64(v.WineId), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.VintageId), bs[n:])
	n += ord.String.Marshal(v.ProducerName, bs[n:])
	n += ord.String.Marshal(v.WineName, bs[n:])
	n += varint.Int.Marshal(v.Year, bs[n:])
	n += ord.String.Marshal(v.Region, bs[n:])
	n += ord.String.Marshal(v.Country, bs[n:])
	n += ord.String.Marshal(v.Varietal, bs[n:])
	n += marshalFloat32(v.Confidence, bs[n:])
	return n
}

func (processedDataMUS) Unmarshal(bs []byte) (v ProcessedData, n int, err error) {
	var m int
	v.ProducerId, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.WineId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.VintageId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ProducerName, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.WineName, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Year, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Region, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Country, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Varietal, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Confidence, m, err = unmarshalFloat32(bs[n:])
	n += m
	return v, n, err
}

func (processedDataMUS) Size(v ProcessedData) (size int) {
	size = varint.Uint64.Size(uint64(v.ProducerId))
	size += varint.Uint64.Size(uint64(v.WineId))
	size += varint.Uint64.Size(uint64(v.VintageId))
	size += ord.String.Size(v.ProducerName)
	size += ord.String.Size(v.WineName)
	size += varint.Int.Size(v.Year)
	size += ord.String.Size(v.Region)
	size += ord.String.Size(v.Country)
	size += ord.String.Size(v.Varietal)
	size += sizeFloat32(v.Confidence)
	return size
}

// ScanJobMUS serializes ScanJob values.
var ScanJobMUS = scanJobMUS{}

type scanJobMUS struct{}

func (scanJobMUS) Marshal(v ScanJob, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += varint.Uint64.Marshal(uint64(v.UserId), bs[n:])
	n += ord.String.Marshal(v.ImageURL, bs[n:])
	n += ord.String.Marshal(v.OCRText, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += varint.Int.Marshal(v.RetryCount, bs[n:])
	n += ProcessedDataMUS.Marshal(v.Processed, bs[n:])
	n += ord.String.Marshal(v.ErrorMessage, bs[n:])
	n += ord.String.Marshal(v.IdempotencyKey, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	n += marshalTime(v.ProcessedAt, bs[n:])
	return n
}

func (scanJobMUS) Unmarshal(bs []byte) (v ScanJob, n int, err error) {
	var m int
	var i int
	v.Id, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.UserId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ImageURL, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.OCRText, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	i, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Status = JobStatus(i)
	v.RetryCount, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Processed, m, err = ProcessedDataMUS.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ErrorMessage, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.IdempotencyKey, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.CreatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ProcessedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (scanJobMUS) Size(v ScanJob) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += varint.Uint64.Size(uint64(v.UserId))
	size += ord.String.Size(v.ImageURL)
	size += ord.String.Size(v.OCRText)
	size += varint.Int.Size(int(v.Status))
	size += varint.Int.Size(v.RetryCount)
	size += ProcessedDataMUS.Size(v.Processed)
	size += ord.String.Size(v.ErrorMessage)
	size += ord.String.Size(v.IdempotencyKey)
	size += sizeTime(v.CreatedAt)
	size += sizeTime(v.ProcessedAt)
	return size
}

// ProducerMUS serializes Producer values.
var ProducerMUS = producerMUS{}

type producerMUS struct{}

func (producerMUS) Marshal(v Producer, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Region, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (producerMUS) Unmarshal(bs []byte) (v Producer, n int, err error) {
	var m int
	v.Id, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.Name, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Region, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InsertedAt, m, err = unmarshalTime(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.UpdatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (producerMUS) Size(v Producer) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.Region)
	size += sizeTime(v.InsertedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

// WineMUS serializes Wine values.
var WineMUS = wineMUS{}

type wineMUS struct{}

func (wineMUS) Marshal(v Wine, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.ProducerId), bs[n:])
	n += ord.Bool.Marshal(v.IsNonVintage, bs[n:])
	n += ord.String.Marshal(v.Type, bs[n:])
	n += ord.String.Marshal(v.Color, bs[n:])
	n += ord.String.Marshal(v.Style, bs[n:])
	n += marshalStrings(v.FoodPairings, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (wineMUS) Unmarshal(bs []byte) (v Wine, n int, err error) {
	var m int
	v.Id, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.Name, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ProducerId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.IsNonVintage, m, err = ord.Bool.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Type, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Color, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Style, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.FoodPairings, m, err = unmarshalStrings(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InsertedAt, m, err = unmarshalTime(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.UpdatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (wineMUS) Size(v Wine) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += ord.String.Size(v.Name)
	size += varint.Uint64.Size(uint64(v.ProducerId))
	size += ord.Bool.Size(v.IsNonVintage)
	size += ord.String.Size(v.Type)
	size += ord.String.Size(v.Color)
	size += ord.String.Size(v.Style)
	size += sizeStrings(v.FoodPairings)
	size += sizeTime(v.InsertedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

// VintageMUS serializes Vintage values.
var VintageMUS = vintageMUS{}

type vintageMUS struct{}

func (vintageMUS) Marshal(v Vintage, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += varint.Uint64.Marshal(uint64(v.WineId), bs[n:])
	n += varint.Int.Marshal(v.Year, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return n
}

func (vintageMUS) Unmarshal(bs []byte) (v Vintage, n int, err error) {
	var m int
	v.Id, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.WineId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Year, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InsertedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (vintageMUS) Size(v Vintage) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += varint.Uint64.Size(uint64(v.WineId))
	size += varint.Int.Size(v.Year)
	size += sizeTime(v.InsertedAt)
	return size
}

// VarietalMUS serializes Varietal values.
var VarietalMUS = varietalMUS{}

type varietalMUS struct{}

func (varietalMUS) Marshal(v Varietal, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += varint.Uint64.Marshal(uint64(v.VintageId), bs[n:])
	n += ord.String.Marshal(v.Name, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return n
}

func (varietalMUS) Unmarshal(bs []byte) (v Varietal, n int, err error) {
	var m int
	v.Id, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.VintageId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Name, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InsertedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (varietalMUS) Size(v Varietal) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += varint.Uint64.Size(uint64(v.VintageId))
	size += ord.String.Size(v.Name)
	size += sizeTime(v.InsertedAt)
	return size
}

// EnrichmentJobMUS serializes EnrichmentJob values.
var EnrichmentJobMUS = enrichmentJobMUS{}

type enrichmentJobMUS struct{}

func (enrichmentJobMUS) Marshal(v EnrichmentJob, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += varint.Uint64.Marshal(uint64(v.WineId), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.VintageId), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.UserId), bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += varint.Int.Marshal(v.Priority, bs[n:])
	n += varint.Int.Marshal(v.RetryCount, bs[n:])
	n += ord.String.Marshal(v.ErrorMessage, bs[n:])
	n += ord.String.Marshal(v.IdempotencyKey, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (enrichmentJobMUS) Unmarshal(bs []byte) (v EnrichmentJob, n int, err error) {
	var m int
	var i int
	v.Id, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.WineId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.VintageId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.UserId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	i, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Status = JobStatus(i)
	v.Priority, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.RetryCount, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ErrorMessage, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.IdempotencyKey, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.CreatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (enrichmentJobMUS) Size(v EnrichmentJob) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += varint.Uint64.Size(uint64(v.WineId))
	size += varint.Uint64.Size(uint64(v.VintageId))
	size += varint.Uint64.Size(uint64(v.UserId))
	size += varint.Int.Size(int(v.Status))
	size += varint.Int.Size(v.Priority)
	size += varint.Int.Size(v.RetryCount)
	size += ord.String.Size(v.ErrorMessage)
	size += ord.String.Size(v.IdempotencyKey)
	size += sizeTime(v.CreatedAt)
	return size
}

// EmbeddingJobMUS serializes EmbeddingJob values.
var EmbeddingJobMUS = embeddingJobMUS{}

type embeddingJobMUS struct{}

func (embeddingJobMUS) Marshal(v EmbeddingJob, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += varint.Int.Marshal(int(v.Kind), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.WineId), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.VintageId), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.ScanId), bs[n:])
	n += ord.String.Marshal(v.InputText, bs[n:])
	n += ord.String.Marshal(v.InputImageURL, bs[n:])
	n += marshalFloat32(v.Completeness, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += varint.Int.Marshal(v.RetryCount, bs[n:])
	n += ord.String.Marshal(v.ErrorMessage, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (embeddingJobMUS) Unmarshal(bs []byte) (v EmbeddingJob, n int, err error) {
	var m int
	var i int
	v.Id, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	i, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Kind = EmbeddingKind(i)
	v.WineId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.VintageId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ScanId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InputText, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InputImageURL, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Completeness, m, err = unmarshalFloat32(bs[n:])
	n += m
	if err != nil {
		return
	}
	i, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Status = JobStatus(i)
	v.RetryCount, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ErrorMessage, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.CreatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (embeddingJobMUS) Size(v EmbeddingJob) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += varint.Int.Size(int(v.Kind))
	size += varint.Uint64.Size(uint64(v.WineId))
	size += varint.Uint64.Size(uint64(v.VintageId))
	size += varint.Uint64.Size(uint64(v.ScanId))
	size += ord.String.Size(v.InputText)
	size += ord.String.Size(v.InputImageURL)
	size += sizeFloat32(v.Completeness)
	size += varint.Int.Size(int(v.Status))
	size += varint.Int.Size(v.RetryCount)
	size += ord.String.Size(v.ErrorMessage)
	size += sizeTime(v.CreatedAt)
	return size
}

// IdentityEmbeddingMUS serializes IdentityEmbedding values.
var IdentityEmbeddingMUS = identityEmbeddingMUS{}

type identityEmbeddingMUS struct{}

func (identityEmbeddingMUS) Marshal(v IdentityEmbedding, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.WineId), bs)
	n += marshalVector(v.Vector, bs[n:])
	n += ord.String.Marshal(v.SourceText, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	n += ord.String.Marshal(v.Version, bs[n:])
	n += marshalFloat32(v.Completeness, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (identityEmbeddingMUS) Unmarshal(bs []byte) (v IdentityEmbedding, n int, err error) {
	var m int
	v.WineId, n, err = unmarshalID(bs)
	if err != nil {
		return
	}
	v.Vector, m, err = unmarshalVector(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.SourceText, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Model, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Version, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Completeness, m, err = unmarshalFloat32(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.CreatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (identityEmbeddingMUS) Size(v IdentityEmbedding) (size int) {
	size = varint.Uint64.Size(uint64(v.WineId))
	size += sizeVector(v.Vector)
	size += ord.String.Size(v.SourceText)
	size += ord.String.Size(v.Model)
	size += ord.String.Size(v.Version)
	size += sizeFloat32(v.Completeness)
	size += sizeTime(v.CreatedAt)
	return size
}

// VisualEmbeddingMUS serializes VisualEmbedding values.
var VisualEmbeddingMUS = visualEmbeddingMUS{}

type visualEmbeddingMUS struct{}

func (visualEmbeddingMUS) Marshal(v VisualEmbedding, bs []byte) (n int) {
	n = ord.String.Marshal(v.Key, bs)
	n += marshalVector(v.Vector, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Meta.WineId), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Meta.VintageId), bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Meta.ScanId), bs[n:])
	n += ord.String.Marshal(v.Meta.ProducerName, bs[n:])
	n += ord.String.Marshal(v.Meta.WineName, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (visualEmbeddingMUS) Unmarshal(bs []byte) (v VisualEmbedding, n int, err error) {
	var m int
	v.Key, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Vector, m, err = unmarshalVector(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Meta.WineId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Meta.VintageId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Meta.ScanId, m, err = unmarshalID(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Meta.ProducerName, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Meta.WineName, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.CreatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return v, n, err
}

func (visualEmbeddingMUS) Size(v VisualEmbedding) (size int) {
	size = ord.String.Size(v.Key)
	size += sizeVector(v.Vector)
	size += varint.Uint64.Size(uint64(v.Meta.WineId))
	size += varint.Uint64.Size(uint64(v.Meta.VintageId))
	size += varint.Uint64.Size(uint64(v.Meta.ScanId))
	size += ord.String.Size(v.Meta.ProducerName)
	size += ord.String.Size(v.Meta.WineName)
	size += sizeTime(v.CreatedAt)
	return size
}
