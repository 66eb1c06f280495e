// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import "testing"

func TestNewAnimationRejectsNonPositiveDuration(t *testing.T) {
	_, err := NewAnimation("clip", 0, 0, nil, nil, nil)
	if err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestNewAnimationRejectsShortStreams(t *testing.T) {
	_, err := NewAnimation("clip", 1, 1, nil, nil, nil)
	if err == nil {
		t.Error("expected error for missing keys on a one-track animation")
	}
}

func TestNewAnimationAccessors(t *testing.T) {
	translations := []TranslationKey{{Track: 0, Time: 0}, {Track: 0, Time: 1}}
	rotations := []RotationKey{{Track: 0, Time: 0}, {Track: 0, Time: 1}}
	scales := []ScaleKey{{Track: 0, Time: 0}, {Track: 0, Time: 1}}
	a, err := NewAnimation("walk", 2.5, 1, translations, rotations, scales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name() != "walk" {
		t.Errorf("got name %q, want %q", a.Name(), "walk")
	}
	if a.Duration() != 2.5 {
		t.Errorf("got duration %v, want 2.5", a.Duration())
	}
	if a.NumTracks() != 1 {
		t.Errorf("got %d tracks, want 1", a.NumTracks())
	}
	if a.NumSoaTracks() != 1 {
		t.Errorf("got %d soa tracks, want 1", a.NumSoaTracks())
	}
}

func TestAnimationKeyframeCounts(t *testing.T) {
	translations := []TranslationKey{{Track: 0, Time: 0}, {Track: 0, Time: 0.5}, {Track: 0, Time: 1}, {Track: 1, Time: 0}, {Track: 1, Time: 1}}
	rotations := []RotationKey{{Track: 0, Time: 0}, {Track: 0, Time: 1}, {Track: 1, Time: 0}, {Track: 1, Time: 1}}
	scales := []ScaleKey{{Track: 0, Time: 0}, {Track: 0, Time: 1}, {Track: 1, Time: 0}, {Track: 1, Time: 1}}
	a, err := NewAnimation("clip", 1, 2, translations, rotations, scales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.TranslationKeyframeCount(0); got != 3 {
		t.Errorf("got %d translation keys for track 0, want 3", got)
	}
	if got := a.TranslationKeyframeCount(1); got != 2 {
		t.Errorf("got %d translation keys for track 1, want 2", got)
	}
	if got := a.RotationKeyframeCount(0); got != 2 {
		t.Errorf("got %d rotation keys for track 0, want 2", got)
	}
	if got := a.ScaleKeyframeCount(1); got != 2 {
		t.Errorf("got %d scale keys for track 1, want 2", got)
	}
}

func TestNewAnimationZeroTracksNeedsNoKeys(t *testing.T) {
	a, err := NewAnimation("empty", 1, 0, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.NumSoaTracks() != 0 {
		t.Errorf("got %d soa tracks, want 0", a.NumSoaTracks())
	}
}
