package geo

import (
	"math"
	"testing"
)

func TestHaversineZero(t *testing.T) {
	if d := HaversineKm(0, 0, 0, 0); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// one degree of longitude at the equator is ~111.19 km
	d := HaversineKm(0, 0, 0, 1)
	if math.Abs(d-111.19) > 0.1 {
		t.Fatalf("expected ~111.19 km, got %f", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineKm(9.5092, -13.7122, 9.6412, -13.5784) // Conakry area
	b := HaversineKm(9.6412, -13.5784, 9.5092, -13.7122)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
	if a <= 0 || a >= 30 {
		t.Fatalf("implausible distance %f", a)
	}
}
