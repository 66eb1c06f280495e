// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"math"

	"github.com/gazed/skelanim/lin"
)

// AimIKJob is an analytic (non-iterative) aim inverse-kinematics solver: it
// rotates a single joint so that a joint-local forward axis, offset by an
// eccentric pivot, points at a model-space target, oriented by a pole
// vector and an optional twist about the aim direction.
type AimIKJob struct {
	Joint      *lin.M4 // model-space.
	Target     *lin.V3 // model-space.
	Forward    *lin.V3 // unit, joint-local; direction to aim along.
	Offset     *lin.V3 // joint-local; eccentric pivot the aim ray starts from.
	Up         *lin.V3 // joint-local; preferred up direction.
	PoleVector *lin.V3 // model-space.
	TwistAngle float64 // radians, about the aim direction.
	Weight     float64 // [0,1].

	JointCorrection *lin.Q // local-space, output.
	Reached         *bool  // optional output.
}

// Validate reports whether every required input/output pointer is set.
func (j *AimIKJob) Validate() bool {
	if j.Joint == nil || j.Target == nil {
		return false
	}
	if j.Forward == nil || j.Offset == nil || j.Up == nil || j.PoleVector == nil {
		return false
	}
	if j.JointCorrection == nil {
		return false
	}
	return true
}

// Run solves for the joint correction and writes JointCorrection (and
// Reached, if set). It returns false, performing no mutation, if Validate
// fails.
func (j *AimIKJob) Run() bool {
	if !j.Validate() {
		return false
	}
	invJoint := lin.NewM4().InvAffine(j.Joint)

	targetJS := lin.NewV3().MultPointM4(j.Target, invJoint)
	poleJS := lin.NewV3().MultVectorM4(j.PoleVector, invJoint)

	aimDir, ok := offsettedForward(j.Forward, j.Offset, targetJS)
	if !ok {
		j.JointCorrection.Set(lin.QI)
		if j.Reached != nil {
			*j.Reached = false
		}
		return true
	}

	targetLen := targetJS.Len()
	reached := targetLen > 1e-9
	if j.Reached != nil {
		*j.Reached = reached && j.Weight >= 1
	}
	if !reached {
		j.JointCorrection.Set(lin.QI)
		return true
	}
	targetDir := lin.NewV3().Scale(targetJS, 1/targetLen)

	aimRot := lin.NewQ().SetVectors(aimDir, targetDir)

	correctedUp := lin.NewV3().MultvQ(j.Up, aimRot)
	refNormal := lin.NewV3().Cross(poleJS, targetJS)
	jointNormal := lin.NewV3().Cross(correctedUp, targetJS)
	rotatePlane := rotatePlaneQuat(refNormal, jointNormal, targetJS, refNormal.Dot(correctedUp))

	result := lin.NewQ().Mult(aimRot, rotatePlane)
	if j.TwistAngle != 0 {
		axis := lin.NewV3().Set(targetJS).Unit()
		twist := lin.NewQ().SetAa(axis.X, axis.Y, axis.Z, j.TwistAngle)
		result.Mult(result, twist)
	}
	if result.W < 0 {
		result.Neg()
	}
	if j.Weight < 1 {
		nlerpToIdentity(result, lin.Clamp(j.Weight, 0, 1))
	}
	j.JointCorrection.Set(result)
	return true
}

// offsettedForward solves for the point P = offset + t*forward lying on
// the sphere of radius |target| centred at the origin, then returns its
// unit direction: the direction that, once rotated onto target's
// direction, carries the eccentric pivot (offset, rotating with the
// joint) onto the target ray. It reports false when the target sphere and
// the offset/forward ray never intersect.
func offsettedForward(forward, offset, target *lin.V3) (*lin.V3, bool) {
	// Solve |offset + t*forward|^2 = |target|^2 for t, since forward is unit:
	//   t^2 + 2t*(offset.forward) + (offset.offset - |target|^2) = 0
	b := 2 * offset.Dot(forward)
	c := offset.LenSqr() - target.LenSqr()
	disc := b*b - 4*c
	if disc < 0 {
		return nil, false
	}
	t := (-b + math.Sqrt(disc)) / 2
	p := lin.NewV3().Scale(forward, t)
	p.Add(p, offset)
	lenSqr := p.LenSqr()
	if lenSqr <= 1e-18 {
		return nil, false
	}
	return p.Scale(p, 1/math.Sqrt(lenSqr)), true
}
