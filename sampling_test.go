// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"math"
	"testing"

	"github.com/gazed/skelanim/soa"
)

func halfVec3(x, y, z float64) [3]uint16 {
	return [3]uint16{soa.FloatToHalf(x), soa.FloatToHalf(y), soa.FloatToHalf(z)}
}

// identityRotationKey returns a rotation key decoding to the identity
// quaternion (x=y=z=0, w=1).
func identityRotationKey(track uint16, at float32) RotationKey {
	return RotationKey{Track: track, Time: at, WSign: false, Value: [3]int16{0, 0, 0}}
}

func unitScaleKey(track uint16, at float32) ScaleKey {
	return ScaleKey{Track: track, Time: at, Value: halfVec3(1, 1, 1)}
}

// oneTrackAnimation builds a single-track clip whose translation stream
// holds exactly the two (time, value) pairs given; rotation and scale
// streams are held constant at identity/unit scale throughout.
func oneTrackAnimation(t *testing.T, duration float32, t0 float32, v0 [3]float64, t1 float32, v1 [3]float64) *Animation {
	t.Helper()
	translations := []TranslationKey{
		{Track: 0, Time: t0, Value: halfVec3(v0[0], v0[1], v0[2])},
		{Track: 0, Time: t1, Value: halfVec3(v1[0], v1[1], v1[2])},
	}
	rotations := []RotationKey{identityRotationKey(0, t0), identityRotationKey(0, t1)}
	scales := []ScaleKey{unitScaleKey(0, t0), unitScaleKey(0, t1)}
	a, err := NewAnimation("clip", duration, 1, translations, rotations, scales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func sampleAt(t *testing.T, a *Animation, ctx *SamplingContext, ratio float32) *soa.SoaTransform {
	t.Helper()
	out := []*soa.SoaTransform{{}}
	job := SamplingJob{Animation: a, Context: ctx, Ratio: ratio, Output: out}
	if !job.Run() {
		t.Fatal("SamplingJob.Run returned false for valid inputs")
	}
	return out[0]
}

func almostVec3(a, b [3]float64, eps float64) bool {
	return math.Abs(a[0]-b[0]) < eps && math.Abs(a[1]-b[1]) < eps && math.Abs(a[2]-b[2]) < eps
}

func translationOf(tr *soa.SoaTransform, lane int) [3]float64 {
	return [3]float64{tr.Translation.X[lane], tr.Translation.Y[lane], tr.Translation.Z[lane]}
}

// TestSamplingConstantTranslation covers seed scenario 1: a clip whose
// translation key is constant across its whole span samples to that
// constant value at any ratio.
func TestSamplingConstantTranslation(t *testing.T) {
	want := [3]float64{1, -1, 5}
	a := oneTrackAnimation(t, 46, 0, want, 1, want)
	ctx := NewSamplingContext(a.NumSoaTracks())
	for _, ratio := range []float32{0, 0.3, 0.65, 1} {
		got := translationOf(sampleAt(t, a, ctx, ratio), 0)
		if !almostVec3(got, want, 1e-2) {
			t.Errorf("ratio %v: got %v, want %v", ratio, got, want)
		}
	}
}

// TestSamplingInterpolatesBetweenKeys covers seed scenario 2.
func TestSamplingInterpolatesBetweenKeys(t *testing.T) {
	duration := float32(46)
	a := oneTrackAnimation(t, duration, 0.5, [3]float64{1, 2, 4}, 0.8, [3]float64{2, 4, 8})
	ctx := NewSamplingContext(a.NumSoaTracks())

	if got := translationOf(sampleAt(t, a, ctx, 0), 0); !almostVec3(got, [3]float64{1, 2, 4}, 1e-2) {
		t.Errorf("ratio 0: got %v, want (1,2,4)", got)
	}
	ctx.Invalidate()
	if got := translationOf(sampleAt(t, a, ctx, 1), 0); !almostVec3(got, [3]float64{2, 4, 8}, 1e-2) {
		t.Errorf("ratio 1: got %v, want (2,4,8)", got)
	}
	ctx.Invalidate()
	midRatio := float32(0.65) / duration
	if got := translationOf(sampleAt(t, a, ctx, midRatio), 0); !almostVec3(got, [3]float64{1.5, 3, 6}, 1e-2) {
		t.Errorf("ratio %v: got %v, want (1.5,3,6)", midRatio, got)
	}
}

func TestSamplingRotationsStayNormalized(t *testing.T) {
	a := oneTrackAnimation(t, 1, 0, [3]float64{0, 0, 0}, 1, [3]float64{1, 1, 1})
	ctx := NewSamplingContext(a.NumSoaTracks())
	for _, ratio := range []float32{0, 0.25, 0.5, 0.75, 1} {
		out := sampleAt(t, a, ctx, ratio)
		lenSqr := out.Rotation.X[0]*out.Rotation.X[0] + out.Rotation.Y[0]*out.Rotation.Y[0] +
			out.Rotation.Z[0]*out.Rotation.Z[0] + out.Rotation.W[0]*out.Rotation.W[0]
		if math.Abs(lenSqr-1) > 1e-3 {
			t.Errorf("ratio %v: rotation length^2 = %v, want ~1", ratio, lenSqr)
		}
	}
}

// TestSamplingDeterministic covers the sampling-determinism invariant: a
// fresh context sampling the same ratio twice produces bitwise-identical
// output.
func TestSamplingDeterministic(t *testing.T) {
	a := oneTrackAnimation(t, 1, 0, [3]float64{1, 2, 3}, 1, [3]float64{4, 5, 6})
	ctx1 := NewSamplingContext(a.NumSoaTracks())
	ctx2 := NewSamplingContext(a.NumSoaTracks())
	got1 := sampleAt(t, a, ctx1, 0.42)
	got2 := sampleAt(t, a, ctx2, 0.42)
	if *got1 != *got2 {
		t.Errorf("sampling the same ratio from fresh contexts diverged: %+v vs %+v", got1, got2)
	}
}

// TestSamplingCacheEquivalence covers the cache equivalence invariant:
// sampling a monotonically increasing ratio sequence through a persistent
// context matches sampling each ratio from a fresh context.
func TestSamplingCacheEquivalence(t *testing.T) {
	a := oneTrackAnimation(t, 1, 0, [3]float64{1, 2, 3}, 1, [3]float64{4, 5, 6})
	persistent := NewSamplingContext(a.NumSoaTracks())
	for _, ratio := range []float32{0, 0.2, 0.4, 0.6, 0.8, 1} {
		got := sampleAt(t, a, persistent, ratio)
		fresh := NewSamplingContext(a.NumSoaTracks())
		want := sampleAt(t, a, fresh, ratio)
		if !almostVec3(translationOf(got, 0), translationOf(want, 0), 1e-5) {
			t.Errorf("ratio %v: persistent-context translation %v, fresh-context %v", ratio, translationOf(got, 0), translationOf(want, 0))
		}
	}
}

// TestSamplingInvalidationOnAnimationSwap covers the invalidation-
// correctness invariant: binding a new animation to a context produces the
// same output as sampling that animation from a fresh context.
func TestSamplingInvalidationOnAnimationSwap(t *testing.T) {
	first := oneTrackAnimation(t, 1, 0, [3]float64{1, 2, 3}, 1, [3]float64{4, 5, 6})
	second := oneTrackAnimation(t, 1, 0, [3]float64{9, 9, 9}, 1, [3]float64{-9, -9, -9})

	ctx := NewSamplingContext(first.NumSoaTracks())
	sampleAt(t, first, ctx, 1)

	got := sampleAt(t, second, ctx, 0.3)
	fresh := NewSamplingContext(second.NumSoaTracks())
	want := sampleAt(t, second, fresh, 0.3)
	if !almostVec3(translationOf(got, 0), translationOf(want, 0), 1e-5) {
		t.Errorf("animation swap: got %v, want %v", translationOf(got, 0), translationOf(want, 0))
	}
}

func TestSamplingJobValidateRejectsSmallContext(t *testing.T) {
	a := oneTrackAnimation(t, 1, 0, [3]float64{0, 0, 0}, 1, [3]float64{1, 1, 1})
	job := SamplingJob{Animation: a, Context: NewSamplingContext(0), Ratio: 0, Output: []*soa.SoaTransform{{}}}
	if job.Validate() {
		t.Error("expected Validate to fail when context is smaller than the animation")
	}
	if job.Run() {
		t.Error("expected Run to fail when Validate fails")
	}
}
