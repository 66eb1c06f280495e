// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"math"
	"testing"

	"github.com/gazed/skelanim/soa"
)

func soaTransformWithTranslation(x, y, z soa.Lane4) *soa.SoaTransform {
	tr := (&soa.SoaTransform{}).SetIdentity()
	tr.Translation = soa.SoaVec3{X: x, Y: y, Z: z}
	return tr
}

func restPoseGroups(n int) []*soa.SoaTransform {
	out := make([]*soa.SoaTransform, n)
	for i := range out {
		out[i] = (&soa.SoaTransform{}).SetIdentity()
	}
	return out
}

func freshOutput(n int) []*soa.SoaTransform {
	out := make([]*soa.SoaTransform, n)
	for i := range out {
		out[i] = &soa.SoaTransform{}
	}
	return out
}

// TestBlendingOppositeLayersCancel covers seed scenario 3: two equally
// weighted layers holding opposite translations blend to zero.
func TestBlendingOppositeLayersCancel(t *testing.T) {
	pos := soaTransformWithTranslation(
		soa.Lane4{0, 1, 2, 3},
		soa.Lane4{4, 5, 6, 7},
		soa.Lane4{8, 9, 10, 11},
	)
	neg := soaTransformWithTranslation(
		soa.Lane4{0, -1, -2, -3},
		soa.Lane4{-4, -5, -6, -7},
		soa.Lane4{-8, -9, -10, -11},
	)
	rest := restPoseGroups(1)
	out := freshOutput(1)

	job := BlendingJob{
		Layers: []Layer{
			{Transform: []*soa.SoaTransform{pos}, Weight: 0.5},
			{Transform: []*soa.SoaTransform{neg}, Weight: 0.5},
		},
		RestPose:  rest,
		Threshold: DefaultThreshold,
		Output:    out,
	}
	if !job.Run() {
		t.Fatal("BlendingJob.Run returned false for valid inputs")
	}
	got := out[0]
	for lane := 0; lane < 4; lane++ {
		if math.Abs(got.Translation.X[lane]) > 1e-9 || math.Abs(got.Translation.Y[lane]) > 1e-9 || math.Abs(got.Translation.Z[lane]) > 1e-9 {
			t.Errorf("lane %d: translation %v %v %v, want zero", lane, got.Translation.X[lane], got.Translation.Y[lane], got.Translation.Z[lane])
		}
		if got.Rotation.X[lane] != 0 || got.Rotation.Y[lane] != 0 || got.Rotation.Z[lane] != 0 || got.Rotation.W[lane] != 1 {
			t.Errorf("lane %d: rotation %+v, want identity", lane, got.Rotation)
		}
	}
}

// TestBlendingAtExactThreshold covers seed scenario 4: accumulated weight
// exactly equal to the threshold takes no rest-pose contribution.
func TestBlendingAtExactThreshold(t *testing.T) {
	a := soaTransformWithTranslation(soa.Splat(1), soa.Splat(0), soa.Splat(0))
	b := soaTransformWithTranslation(soa.Splat(0), soa.Splat(1), soa.Splat(0))
	rest := restPoseGroups(1)
	out := freshOutput(1)

	job := BlendingJob{
		Layers: []Layer{
			{Transform: []*soa.SoaTransform{a}, Weight: 0.04},
			{Transform: []*soa.SoaTransform{b}, Weight: 0.06},
		},
		RestPose:  rest,
		Threshold: 0.1,
		Output:    out,
	}
	if !job.Run() {
		t.Fatal("BlendingJob.Run returned false for valid inputs")
	}
	wantX := (0.04 * 1) / 0.10
	wantY := (0.06 * 1) / 0.10
	got := out[0]
	for lane := 0; lane < 4; lane++ {
		if math.Abs(got.Translation.X[lane]-wantX) > 1e-6 {
			t.Errorf("lane %d: X = %v, want %v", lane, got.Translation.X[lane], wantX)
		}
		if math.Abs(got.Translation.Y[lane]-wantY) > 1e-6 {
			t.Errorf("lane %d: Y = %v, want %v", lane, got.Translation.Y[lane], wantY)
		}
	}
}

// TestBlendingZeroWeightsYieldRestPose covers the all-zero-weight
// invariant.
func TestBlendingZeroWeightsYieldRestPose(t *testing.T) {
	layer := soaTransformWithTranslation(soa.Splat(5), soa.Splat(5), soa.Splat(5))
	rest := restPoseGroups(1)
	out := freshOutput(1)

	job := BlendingJob{
		Layers:    []Layer{{Transform: []*soa.SoaTransform{layer}, Weight: 0}},
		RestPose:  rest,
		Threshold: DefaultThreshold,
		Output:    out,
	}
	if !job.Run() {
		t.Fatal("BlendingJob.Run returned false for valid inputs")
	}
	if *out[0] != *rest[0] {
		t.Errorf("got %+v, want rest pose %+v", out[0], rest[0])
	}
}

func TestBlendingValidateRejectsNonPositiveThreshold(t *testing.T) {
	job := BlendingJob{RestPose: restPoseGroups(1), Output: freshOutput(1), Threshold: 0}
	if job.Validate() {
		t.Error("expected Validate to fail for a non-positive threshold")
	}
}

func TestBlendingValidateRejectsUndersizedLayer(t *testing.T) {
	job := BlendingJob{
		Layers:    []Layer{{Transform: []*soa.SoaTransform{}, Weight: 1}},
		RestPose:  restPoseGroups(1),
		Output:    freshOutput(1),
		Threshold: DefaultThreshold,
	}
	if job.Validate() {
		t.Error("expected Validate to fail when a layer's transform buffer is undersized")
	}
}

func TestBlendingAdditiveLayerAddsOnTop(t *testing.T) {
	base := soaTransformWithTranslation(soa.Splat(1), soa.Splat(0), soa.Splat(0))
	additive := soaTransformWithTranslation(soa.Splat(2), soa.Splat(0), soa.Splat(0))
	rest := restPoseGroups(1)
	out := freshOutput(1)

	job := BlendingJob{
		Layers:         []Layer{{Transform: []*soa.SoaTransform{base}, Weight: 1}},
		AdditiveLayers: []Layer{{Transform: []*soa.SoaTransform{additive}, Weight: 1}},
		RestPose:       rest,
		Threshold:      DefaultThreshold,
		Output:         out,
	}
	if !job.Run() {
		t.Fatal("BlendingJob.Run returned false for valid inputs")
	}
	for lane := 0; lane < 4; lane++ {
		if math.Abs(out[0].Translation.X[lane]-3) > 1e-9 {
			t.Errorf("lane %d: X = %v, want 3", lane, out[0].Translation.X[lane])
		}
	}
}
