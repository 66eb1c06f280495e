// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package soa

import "testing"

func TestHalfToFloatZero(t *testing.T) {
	if got := HalfToFloat(0); got != 0 {
		t.Errorf("HalfToFloat(0) got %f want 0", got)
	}
}

func TestHalfRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 0.5, -0.5, 2.25, 100, -100}
	for _, v := range values {
		h := FloatToHalf(v)
		got := HalfToFloat(h)
		if got != v {
			t.Errorf("FloatToHalf/HalfToFloat(%f) got %f", v, got)
		}
	}
}

func TestLane4Add(t *testing.T) {
	a := Lane4{1, 2, 3, 4}
	b := Lane4{4, 3, 2, 1}
	got := Lane4{}
	got.Add(a, b)
	want := Lane4{5, 5, 5, 5}
	if got != want {
		t.Errorf("Add got %v want %v", got, want)
	}
}

func TestLane4RSqrtEstZero(t *testing.T) {
	a := Lane4{0, 4, -1, 16}
	got := Lane4{}
	got.RSqrtEst(a)
	if got[0] != 0 || got[2] != 0 {
		t.Errorf("RSqrtEst of non-positive lane should be 0, got %v", got)
	}
	if got[1] != 0.5 {
		t.Errorf("RSqrtEst(4) got %f want 0.5", got[1])
	}
}
