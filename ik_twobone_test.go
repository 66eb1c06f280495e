// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"math"
	"testing"

	"github.com/gazed/skelanim/lin"
)

// localMatrix builds the model-space-style affine matrix for a joint whose
// local rotation is rot and local translation is (x, y, z).
func localMatrix(rot *lin.Q, x, y, z float64) *lin.M4 {
	m := lin.NewM4().SetQ(rot)
	m.Wx, m.Wy, m.Wz, m.Ww = x, y, z, 1
	return m
}

// chainJoints returns model-space matrices for a three-joint chain rooted
// at the origin: start at (0,0,0), mid at (0,1,0), end at (1,1,0) — an
// L-shaped, 90-degree-bent rest pose with identity joint rotations.
func chainJoints() (start, mid, end *lin.M4) {
	start = localMatrix(lin.NewQI(), 0, 0, 0)
	mid = localMatrix(lin.NewQI(), 0, 1, 0)
	end = localMatrix(lin.NewQI(), 1, 1, 0)
	return start, mid, end
}

// recomputeEnd applies startCorrection/midCorrection to the chain's bind
// pose (the local offsets implied by chainJoints) and returns the
// resulting model-space end-joint position.
func recomputeEnd(startCorrection, midCorrection *lin.Q) *lin.M4 {
	localStart := localMatrix(startCorrection, 0, 0, 0)
	localMid := localMatrix(midCorrection, 0, 1, 0)
	localEnd := localMatrix(lin.NewQI(), 1, 0, 0)

	newStart := lin.NewM4().Set(localStart)
	newMid := lin.NewM4().Mult(localMid, newStart)
	newEnd := lin.NewM4().Mult(localEnd, newMid)
	return newEnd
}

// TestTwoBoneIKReachesTarget covers seed scenario 6's reachability
// invariant: with weight=1 on a reachable target, applying the corrections
// and recomposing the chain places the end joint on the target.
func TestTwoBoneIKReachesTarget(t *testing.T) {
	start, mid, end := chainJoints()
	target := &lin.V3{X: math.Sqrt2, Y: 0, Z: 0}
	midAxis := &lin.V3{X: 0, Y: 0, Z: 1}
	pole := &lin.V3{X: 0, Y: 1, Z: 0}

	var reached bool
	job := TwoBoneIKJob{
		StartJoint: start, MidJoint: mid, EndJoint: end,
		Target: target, MidAxis: midAxis, PoleVector: pole,
		Soften: 1, Weight: 1,
		StartJointCorrection: lin.NewQ(), MidJointCorrection: lin.NewQ(),
		Reached: &reached,
	}
	if !job.Run() {
		t.Fatal("TwoBoneIKJob.Run returned false for valid inputs")
	}
	if !reached {
		t.Fatal("expected target within reach to report reached=true")
	}

	newEnd := recomputeEnd(job.StartJointCorrection, job.MidJointCorrection)
	if !lin.Aeq(newEnd.Wx, target.X) || !lin.Aeq(newEnd.Wy, target.Y) || !lin.Aeq(newEnd.Wz, target.Z) {
		t.Errorf("recomposed end joint at (%v,%v,%v), want target (%v,%v,%v)", newEnd.Wx, newEnd.Wy, newEnd.Wz, target.X, target.Y, target.Z)
	}
}

// TestTwoBoneIKReachesTargetWithFlippingPole covers a chain/target/pole
// configuration where the pole sits outside the plane spanned by
// start-target and the seed scenario's pole (unlike chainJoints' bind
// pose paired with a pole in the bend plane, which leaves the bend-plane
// axis flip untested): here jointNormal.Dot(pole) and the old, incorrect
// refNormal.Dot(pole) disagree in sign, so this exercises the corrected
// axis-flip decision in rotatePlaneQuat's two-bone call site.
func TestTwoBoneIKReachesTargetWithFlippingPole(t *testing.T) {
	start, mid, end := chainJoints()
	target := &lin.V3{X: 0, Y: 0, Z: math.Sqrt2}
	midAxis := &lin.V3{X: 0, Y: 0, Z: 1}
	pole := &lin.V3{X: 1, Y: 0, Z: 0}

	var reached bool
	job := TwoBoneIKJob{
		StartJoint: start, MidJoint: mid, EndJoint: end,
		Target: target, MidAxis: midAxis, PoleVector: pole,
		Soften: 1, Weight: 1,
		StartJointCorrection: lin.NewQ(), MidJointCorrection: lin.NewQ(),
		Reached: &reached,
	}
	if !job.Run() {
		t.Fatal("TwoBoneIKJob.Run returned false for valid inputs")
	}
	if !reached {
		t.Fatal("expected target within reach to report reached=true")
	}

	newEnd := recomputeEnd(job.StartJointCorrection, job.MidJointCorrection)
	if !lin.Aeq(newEnd.Wx, target.X) || !lin.Aeq(newEnd.Wy, target.Y) || !lin.Aeq(newEnd.Wz, target.Z) {
		t.Errorf("recomposed end joint at (%v,%v,%v), want target (%v,%v,%v)", newEnd.Wx, newEnd.Wy, newEnd.Wz, target.X, target.Y, target.Z)
	}
}

// TestRotatePlaneQuatSignContract pins the two-bone call site's sign
// convention directly: jointNormal (1,0,0) against pole (1,0,0) along
// refNormal (0,1,0) and axisSource (0,0,1) is exactly the degenerate
// case where the stale refNormal.Dot(pole) convention (always ~0, since
// refNormal is built orthogonal to pole) could never flip, while the
// correct jointNormal.Dot(pole) convention clearly does.
func TestRotatePlaneQuatSignContract(t *testing.T) {
	refNormal := &lin.V3{X: 0, Y: 1, Z: 0}
	jointNormal := &lin.V3{X: 1, Y: 0, Z: 0}
	axisSource := &lin.V3{X: 0, Y: 0, Z: 1}

	positive := rotatePlaneQuat(refNormal, jointNormal, axisSource, jointNormal.Dot(&lin.V3{X: 1, Y: 0, Z: 0}))
	want := lin.NewQ().SetAa(axisSource.X, axisSource.Y, axisSource.Z, lin.Rad(90))
	if !positive.Aeq(want) {
		t.Errorf("got %+v, want %+v", positive, want)
	}

	negative := rotatePlaneQuat(refNormal, jointNormal, axisSource, jointNormal.Dot(&lin.V3{X: -1, Y: 0, Z: 0}))
	wantNeg := lin.NewQ().SetAa(-axisSource.X, -axisSource.Y, -axisSource.Z, lin.Rad(90))
	if !negative.Aeq(wantNeg) {
		t.Errorf("got %+v, want %+v", negative, wantNeg)
	}
}

// TestRotatePlaneQuatDegenerateNormalsYieldsIdentity covers the case
// where either normal collapses to zero length (e.g. the chain is
// perfectly straight or the pole is parallel to start-target).
func TestRotatePlaneQuatDegenerateNormalsYieldsIdentity(t *testing.T) {
	axisSource := &lin.V3{X: 0, Y: 0, Z: 1}
	zero := &lin.V3{}
	nonZero := &lin.V3{X: 1, Y: 0, Z: 0}

	if !rotatePlaneQuat(zero, nonZero, axisSource, 1).Eq(lin.QI) {
		t.Error("expected identity when refNormal is zero length")
	}
	if !rotatePlaneQuat(nonZero, zero, axisSource, 1).Eq(lin.QI) {
		t.Error("expected identity when jointNormal is zero length")
	}
}

func TestTwoBoneIKUnreachableTargetReportsFalse(t *testing.T) {
	start, mid, end := chainJoints()
	// Chain length is 2 (1+1); with soften=1 (da=chain, ds=0) the softening
	// path is skipped entirely, so a target beyond the chain length is
	// unreachable outright.
	target := &lin.V3{X: 100, Y: 0, Z: 0}
	midAxis := &lin.V3{X: 0, Y: 0, Z: 1}
	pole := &lin.V3{X: 0, Y: 1, Z: 0}

	var reached bool
	job := TwoBoneIKJob{
		StartJoint: start, MidJoint: mid, EndJoint: end,
		Target: target, MidAxis: midAxis, PoleVector: pole,
		Soften: 1, Weight: 1,
		StartJointCorrection: lin.NewQ(), MidJointCorrection: lin.NewQ(),
		Reached: &reached,
	}
	if !job.Run() {
		t.Fatal("TwoBoneIKJob.Run returned false for valid inputs")
	}
	if reached {
		t.Error("expected reached=false for a target far beyond the chain's length")
	}
	if !job.StartJointCorrection.Eq(lin.QI) || !job.MidJointCorrection.Eq(lin.QI) {
		t.Error("expected identity corrections when the target is unreachable")
	}
}

func TestTwoBoneIKZeroWeightYieldsIdentity(t *testing.T) {
	start, mid, end := chainJoints()
	target := &lin.V3{X: math.Sqrt2, Y: 0, Z: 0}
	midAxis := &lin.V3{X: 0, Y: 0, Z: 1}
	pole := &lin.V3{X: 0, Y: 1, Z: 0}

	job := TwoBoneIKJob{
		StartJoint: start, MidJoint: mid, EndJoint: end,
		Target: target, MidAxis: midAxis, PoleVector: pole,
		Soften: 1, Weight: 0,
		StartJointCorrection: lin.NewQ(), MidJointCorrection: lin.NewQ(),
	}
	if !job.Run() {
		t.Fatal("TwoBoneIKJob.Run returned false for valid inputs")
	}
	if !job.StartJointCorrection.Aeq(lin.QI) || !job.MidJointCorrection.Aeq(lin.QI) {
		t.Errorf("expected near-identity corrections at weight=0, got start=%+v mid=%+v", job.StartJointCorrection, job.MidJointCorrection)
	}
}

func TestTwoBoneIKValidateRejectsMissingInputs(t *testing.T) {
	job := TwoBoneIKJob{StartJointCorrection: lin.NewQ(), MidJointCorrection: lin.NewQ()}
	if job.Validate() {
		t.Error("expected Validate to fail when joint matrices are missing")
	}
	if job.Run() {
		t.Error("expected Run to fail when Validate fails")
	}
}
