package reembed

import (
	"math"
	"testing"
)

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if len(v) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(v))
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Expected [0.6 0.8], got %v", v)
	}

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	if math.Abs(magnitude-1.0) > 1e-6 {
		t.Errorf("Expected unit length, got magnitude^2 = %v", magnitude)
	}
}

func TestNormalizeVector_ZeroVector(t *testing.T) {
	v := NormalizeVector([]float32{0, 0, 0})
	for i, val := range v {
		if val != 0 {
			t.Errorf("Component %d = %v, want 0", i, val)
		}
	}
}

func TestNormalizeVector_Empty(t *testing.T) {
	if v := NormalizeVector(nil); len(v) != 0 {
		t.Errorf("Expected empty result, got %v", v)
	}
}

func TestNormalizeVector_DoesNotMutateInput(t *testing.T) {
	in := []float32{3, 4}
	_ = NormalizeVector(in)
	if in[0] != 3 || in[1] != 4 {
		t.Errorf("Input was mutated: %v", in)
	}
}
