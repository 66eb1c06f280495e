// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"math"

	"github.com/gazed/skelanim/lin"
)

// TwoBoneIKJob is an analytic (non-iterative) two-bone inverse-kinematics
// solver: given model-space matrices for a three-joint chain (start, mid,
// end) and a target position, it produces local-space correction
// quaternions for the start and mid joints that bend the chain to reach
// the target, oriented by a pole vector.
type TwoBoneIKJob struct {
	StartJoint, MidJoint, EndJoint *lin.M4 // model-space.
	Target                         *lin.V3 // model-space.
	MidAxis                        *lin.V3 // unit, mid-joint local space; defines positive bend.
	PoleVector                     *lin.V3 // model-space.
	TwistAngle                     float64 // radians, about start->target.
	Soften                         float64 // [0,1].
	Weight                         float64 // [0,1].

	StartJointCorrection *lin.Q // local-space, output.
	MidJointCorrection   *lin.Q // local-space, output.
	Reached              *bool  // optional output.
}

// Validate reports whether every required input/output pointer is set.
func (j *TwoBoneIKJob) Validate() bool {
	if j.StartJoint == nil || j.MidJoint == nil || j.EndJoint == nil {
		return false
	}
	if j.Target == nil || j.MidAxis == nil || j.PoleVector == nil {
		return false
	}
	if j.StartJointCorrection == nil || j.MidJointCorrection == nil {
		return false
	}
	return true
}

// Run solves the chain and writes StartJointCorrection/MidJointCorrection
// (and Reached, if set). It returns false, performing no mutation, if
// Validate fails.
func (j *TwoBoneIKJob) Run() bool {
	if !j.Validate() {
		return false
	}
	invStart := lin.NewM4().InvAffine(j.StartJoint)
	invMid := lin.NewM4().InvAffine(j.MidJoint)

	startMid := pointInSpace(invStart, j.MidJoint)
	startEnd := pointInSpace(invStart, j.EndJoint)
	startTarget := lin.NewV3().MultPointM4(j.Target, invStart)
	midEnd := pointInSpace(invMid, j.EndJoint)

	aSqr := startMid.LenSqr()
	bSqr := midEnd.LenSqr()
	a, b := math.Sqrt(aSqr), math.Sqrt(bSqr)

	reached := j.softenTarget(startTarget, a, b)
	if j.Reached != nil {
		*j.Reached = reached
	}

	cSqr := startTarget.LenSqr()
	c0Sqr := startEnd.LenSqr()

	if !reached || c0Sqr == 0 {
		j.StartJointCorrection.Set(lin.QI)
		j.MidJointCorrection.Set(lin.QI)
		if j.Reached != nil {
			*j.Reached = false
		}
		return true
	}

	midCorrection := j.midJointAngle(startMid, midEnd, a, b, cSqr, c0Sqr)
	j.MidJointCorrection.Set(midCorrection)

	newStartEnd := rotatedStartEnd(startMid, midEnd, midCorrection)
	startCorrection := j.startJointRotation(newStartEnd, startTarget)
	j.StartJointCorrection.Set(startCorrection)

	if j.Weight < 1 {
		weight := lin.Clamp(j.Weight, 0, 1)
		nlerpToIdentity(j.StartJointCorrection, weight)
		nlerpToIdentity(j.MidJointCorrection, weight)
	}
	return true
}

// pointInSpace returns the origin of joint (its model-space translation)
// transformed by invSpace, i.e. that joint's position expressed in the
// space whose inverse matrix is invSpace.
func pointInSpace(invSpace *lin.M4, joint *lin.M4) *lin.V3 {
	origin := &lin.V3{X: joint.Wx, Y: joint.Wy, Z: joint.Wz}
	return lin.NewV3().MultPointM4(origin, invSpace)
}

// softenTarget damps startTarget toward the chain's maximum reach when the
// target lies beyond da = chain*soften, following a 1-(3/(a+3))^4 ease
// curve so the chain slows down rather than snapping straight at full
// extension. It returns whether the (possibly softened) target is within
// reach of the chain at all.
func (j *TwoBoneIKJob) softenTarget(startTarget *lin.V3, a, b float64) bool {
	chain := a + b
	if chain == 0 {
		return false
	}
	da := chain * lin.Clamp(j.Soften, 0, 1)
	ds := chain - da
	targetLen := startTarget.Len()
	minReach := math.Abs(a - b)

	if targetLen > da && ds > 0 && targetLen > minReach {
		alpha := (targetLen - da) / ds
		ratio := 1 - math.Pow(3/(alpha+3), 4)
		softenedLen := da + ds*ratio
		if targetLen > 1e-9 {
			startTarget.Scale(startTarget, softenedLen/targetLen)
		}
		return softenedLen <= chain+1e-6
	}
	return targetLen <= chain+1e-6
}

// midJointAngle computes the mid-joint correction via the law of cosines:
// the angle between start-mid and mid-end required to reach the (possibly
// softened) target, minus the chain's current angle, rotated about
// mid_axis. The chain's bend sign is detected via a cross/dot test against
// mid_axis so a chain currently bent the "wrong" way is corrected through
// the shortest angular path rather than flipped through its straight pose.
func (j *TwoBoneIKJob) midJointAngle(startMid, midEnd *lin.V3, a, b, cSqr, c0Sqr float64) *lin.Q {
	aSqr, bSqr := a*a, b*b
	denom := 2 * a * b
	if denom == 0 {
		return lin.NewQI()
	}
	cosTarget := lin.Clamp((aSqr+bSqr-cSqr)/denom, -1, 1)
	cosCurrent := lin.Clamp((aSqr+bSqr-c0Sqr)/denom, -1, 1)

	angleTarget := math.Acos(cosTarget)
	angleCurrent := math.Acos(cosCurrent)
	cross := lin.NewV3().Cross(startMid, j.MidAxis)
	if cross.Dot(midEnd) < 0 {
		angleCurrent = -angleCurrent
	}
	return lin.NewQ().SetAa(j.MidAxis.X, j.MidAxis.Y, j.MidAxis.Z, angleTarget-angleCurrent)
}

// rotatedStartEnd returns the start->end vector (in start-joint space)
// after midCorrection has been applied at the mid joint: startMid is
// unaffected (it precedes the mid joint), midEnd is rotated by
// midCorrection and added on.
func rotatedStartEnd(startMid, midEnd *lin.V3, midCorrection *lin.Q) *lin.V3 {
	rotatedMidEnd := lin.NewV3().MultvQ(midEnd, midCorrection)
	return lin.NewV3().Add(startMid, rotatedMidEnd)
}

// startJointRotation builds the start-joint correction: a rotation taking
// the (mid-corrected) start->end vector onto start->target, composed with
// a rotate-plane term that aligns the chain's bend plane to the pole
// vector, and an optional twist about start->target.
func (j *TwoBoneIKJob) startJointRotation(newStartEnd, startTarget *lin.V3) *lin.Q {
	endToTarget := lin.NewQ().SetVectors(lin.NewV3().Set(newStartEnd).Unit(), lin.NewV3().Set(startTarget).Unit())

	midAxisRotated := lin.NewV3().MultvQ(j.MidAxis, endToTarget)

	refNormal := lin.NewV3().Cross(startTarget, j.PoleVector)
	jointNormal := lin.NewV3().Cross(midAxisRotated, startTarget)

	// The two-bone chain's axis flip is decided by the joint plane's own
	// normal against the pole, not the reference plane's normal: refNormal
	// is built as cross(startTarget, pole) and so is always orthogonal to
	// pole, making refNormal.Dot(pole) useless as a sign test here.
	rotatePlane := rotatePlaneQuat(refNormal, jointNormal, startTarget, jointNormal.Dot(j.PoleVector))

	result := lin.NewQ().Mult(endToTarget, rotatePlane)
	if j.TwistAngle != 0 {
		axis := lin.NewV3().Set(startTarget).Unit()
		twist := lin.NewQ().SetAa(axis.X, axis.Y, axis.Z, j.TwistAngle)
		result.Mult(result, twist)
	}
	return result
}

// rotatePlaneQuat builds the quaternion that rotates the chain's bend
// plane (whose normal is jointNormal) onto the reference plane defined by
// the pole vector (whose normal is refNormal), about the axis (+-axisSource).
// flipSign is the caller-computed dot product deciding which way the axis
// points so the plane rotates the short way; the two IK jobs that call this
// test different vectors (two-bone tests the joint plane's normal against
// the pole, aim tests the reference plane's normal against the corrected up
// vector), so the dot product is computed by the caller rather than fixed
// here.
func rotatePlaneQuat(refNormal, jointNormal, axisSource *lin.V3, flipSign float64) *lin.Q {
	refLenSqr, jointLenSqr := refNormal.LenSqr(), jointNormal.LenSqr()
	if refLenSqr == 0 || jointLenSqr == 0 {
		return lin.NewQI()
	}
	refUnit := lin.NewV3().Scale(refNormal, 1/math.Sqrt(refLenSqr))
	jointUnit := lin.NewV3().Scale(jointNormal, 1/math.Sqrt(jointLenSqr))
	cosAngle := lin.Clamp(refUnit.Dot(jointUnit), -1, 1)

	axis := lin.NewV3().Set(axisSource).Unit()
	if flipSign < 0 {
		axis.Scale(axis, -1)
	}
	return lin.NewQ().SetAxisCosAngle(axis, cosAngle)
}

// nlerpToIdentity blends q toward the identity rotation by 1-weight,
// fixing q's sign so w >= 0 first so the lerp takes the shortest path.
func nlerpToIdentity(q *lin.Q, weight float64) {
	if q.W < 0 {
		q.Neg()
	}
	q.X, q.Y, q.Z, q.W = q.X*weight, q.Y*weight, q.Z*weight, 1+(q.W-1)*weight
	q.Unit()
}
