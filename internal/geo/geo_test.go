package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	t.Run("ZeroForIdenticalPoints", func(t *testing.T) {
		d := Distance(51.5074, -0.1278, 51.5074, -0.1278)
		if d != 0 {
			t.Fatalf("expected 0, got %f", d)
		}
	})

	t.Run("Symmetric", func(t *testing.T) {
		a := Distance(51.5074, -0.1278, 48.8566, 2.3522)
		b := Distance(48.8566, 2.3522, 51.5074, -0.1278)
		if math.Abs(a-b) > 1e-6 {
			t.Fatalf("distance not symmetric: %f vs %f", a, b)
		}
	})

	t.Run("KnownDistance", func(t *testing.T) {
		// London to Paris, roughly 344 km great-circle.
		d := Distance(51.5074, -0.1278, 48.8566, 2.3522)
		if d < 330000 || d > 350000 {
			t.Fatalf("London-Paris distance out of expected range: %f", d)
		}
	})

	t.Run("SmallOffsets", func(t *testing.T) {
		// ~0.0001 deg latitude is about 11 meters.
		d := Distance(51.5000, -0.1000, 51.5001, -0.1000)
		if d < 10 || d > 13 {
			t.Fatalf("expected ~11m, got %f", d)
		}
	})

	t.Run("TriangleInequality", func(t *testing.T) {
		ab := Distance(51.5, -0.1, 52.0, 0.0)
		bc := Distance(52.0, 0.0, 52.5, 0.5)
		ac := Distance(51.5, -0.1, 52.5, 0.5)
		if ac > ab+bc+1e-6 {
			t.Fatalf("triangle inequality violated: %f > %f + %f", ac, ab, bc)
		}
	})
}

func TestWithinRadius(t *testing.T) {
	lat, lon := 51.5074, -0.1278
	nearLat, nearLon := 51.5076, -0.1278 // ~22m north

	t.Run("InsideRadius", func(t *testing.T) {
		if !WithinRadius(lat, lon, nearLat, nearLon, 30) {
			t.Fatal("expected point within 30m")
		}
	})

	t.Run("OutsideRadius", func(t *testing.T) {
		if WithinRadius(lat, lon, nearLat, nearLon, 10) {
			t.Fatal("expected point outside 10m")
		}
	})

	t.Run("MonotonicInRadius", func(t *testing.T) {
		d := Distance(lat, lon, nearLat, nearLon)
		for _, r := range []float64{d, d + 1, d + 100, d + 10000} {
			if !WithinRadius(lat, lon, nearLat, nearLon, r) {
				t.Fatalf("expected within radius %f (distance %f)", r, d)
			}
		}
	})
}

func TestValidCoordinates(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		ok       bool
	}{
		{"Valid", 51.5, -0.1, true},
		{"LatUpperBound", 90, 0, true},
		{"LatTooHigh", 90.01, 0, false},
		{"LatTooLow", -90.01, 0, false},
		{"LonUpperBound", 0, 180, true},
		{"LonTooHigh", 0, 180.5, false},
		{"LonTooLow", 0, -180.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidCoordinates(tc.lat, tc.lon); got != tc.ok {
				t.Fatalf("ValidCoordinates(%f, %f) = %v, want %v", tc.lat, tc.lon, got, tc.ok)
			}
			err := CheckCoordinates(tc.lat, tc.lon)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error for invalid coordinates")
			}
		})
	}
}
