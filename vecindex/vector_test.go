package vecindex

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Expected [0.6 0.8], got %v", v)
	}

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	if math.Abs(magnitude-1.0) > 1e-6 {
		t.Errorf("Expected unit magnitude, got %f", math.Sqrt(magnitude))
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for i, val := range v {
		if val != 0 {
			t.Errorf("Element %d: expected 0, got %f", i, val)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if v := Normalize(nil); len(v) != 0 {
		t.Errorf("Expected empty result, got %v", v)
	}
}

func TestDotProduct(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	if sim := dotProduct(a, b); sim != 1.0 {
		t.Errorf("Expected similarity 1.0 for identical vectors, got %f", sim)
	}

	c := []float32{0, 1, 0}
	if sim := dotProduct(a, c); sim != 0.0 {
		t.Errorf("Expected similarity 0.0 for orthogonal vectors, got %f", sim)
	}
}

func TestDotProductMismatchedLengths(t *testing.T) {
	a := []float32{1, 1}
	b := []float32{1}
	if sim := dotProduct(a, b); sim != 1.0 {
		t.Errorf("Expected truncation to shorter vector, got %f", sim)
	}
}
