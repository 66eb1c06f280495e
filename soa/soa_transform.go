// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package soa

// SoaVec3 groups four 3D vectors, one per joint in a SoA group, laid out
// lane-major: X, Y and Z each hold the corresponding component of all
// four joints.
type SoaVec3 struct {
	X, Y, Z Lane4
}

// Set updates v to the values in a. The updated vector v is returned.
func (v *SoaVec3) Set(a *SoaVec3) *SoaVec3 {
	v.X, v.Y, v.Z = a.X, a.Y, a.Z
	return v
}

// Splat updates v so every lane holds the same vector (x, y, z).
// The updated vector v is returned.
func (v *SoaVec3) Splat(x, y, z float64) *SoaVec3 {
	v.X, v.Y, v.Z = Splat(x), Splat(y), Splat(z)
	return v
}

// Lerp updates v to be the per-lane linear interpolation from a to b by
// per-lane ratio t. The updated vector v is returned.
func (v *SoaVec3) Lerp(a, b *SoaVec3, t Lane4) *SoaVec3 {
	for i := 0; i < 4; i++ {
		v.X[i] = a.X[i] + (b.X[i]-a.X[i])*t[i]
		v.Y[i] = a.Y[i] + (b.Y[i]-a.Y[i])*t[i]
		v.Z[i] = a.Z[i] + (b.Z[i]-a.Z[i])*t[i]
	}
	return v
}

// SoaQuat groups four rotation quaternions, one per joint in a SoA group.
type SoaQuat struct {
	X, Y, Z, W Lane4
}

// Identity is a reference identity SoaQuat (all four lanes unrotated).
// It should never be changed.
var Identity = &SoaQuat{X: Zero, Y: Zero, Z: Zero, W: One}

// Set updates q to the values in a. The updated quaternion q is returned.
func (q *SoaQuat) Set(a *SoaQuat) *SoaQuat {
	q.X, q.Y, q.Z, q.W = a.X, a.Y, a.Z, a.W
	return q
}

// SetIdentity updates q to be an identity rotation in all four lanes.
// The updated quaternion q is returned.
func (q *SoaQuat) SetIdentity() *SoaQuat { return q.Set(Identity) }

// quatDot returns, per lane, the dot product between quaternions a and b.
func quatDot(a, b *SoaQuat) Lane4 {
	r := Lane4{}
	for i := 0; i < 4; i++ {
		r[i] = a.X[i]*b.X[i] + a.Y[i]*b.Y[i] + a.Z[i]*b.Z[i] + a.W[i]*b.W[i]
	}
	return r
}

// ConditionalNegate flips the sign of every component of q, per lane,
// where cond[i] is true. This is how the hemisphere (sign) of a quaternion
// is fixed up before blending: quaternions q and -q represent the same
// rotation, but only one of them sums correctly with a neighbor.
// The updated quaternion q is returned.
func (q *SoaQuat) ConditionalNegate(a *SoaQuat, cond [4]bool) *SoaQuat {
	for i := 0; i < 4; i++ {
		if cond[i] {
			q.X[i], q.Y[i], q.Z[i], q.W[i] = -a.X[i], -a.Y[i], -a.Z[i], -a.W[i]
		} else {
			q.X[i], q.Y[i], q.Z[i], q.W[i] = a.X[i], a.Y[i], a.Z[i], a.W[i]
		}
	}
	return q
}

// NegateIfOpposite conditionally negates b, per lane, so that it lies in
// the same hemisphere as a (dot product is non-negative). This is the SoA
// equivalent of the per-pair sign fix ozz-animation applies before summing
// weighted rotations.
func NegateIfOpposite(a, b *SoaQuat) *SoaQuat {
	d := quatDot(a, b)
	cond := [4]bool{d[0] < 0, d[1] < 0, d[2] < 0, d[3] < 0}
	fixed := &SoaQuat{}
	return fixed.ConditionalNegate(b, cond)
}

// AddScaled updates q to be q plus b scaled per-lane by weight w.
// The updated quaternion q is returned.
func (q *SoaQuat) AddScaled(b *SoaQuat, w Lane4) *SoaQuat {
	for i := 0; i < 4; i++ {
		q.X[i] += b.X[i] * w[i]
		q.Y[i] += b.Y[i] * w[i]
		q.Z[i] += b.Z[i] * w[i]
		q.W[i] += b.W[i] * w[i]
	}
	return q
}

// Normalize updates q to have unit length in every lane. Lanes with zero
// length are left as an identity rotation, matching the rest-pose fallback
// used when a joint receives no animated weight.
// The updated quaternion q is returned.
func (q *SoaQuat) Normalize(a *SoaQuat) *SoaQuat {
	lenSqr := quatDot(a, a)
	rsqrt := Lane4{}
	rsqrt.RSqrtEst(lenSqr)
	for i := 0; i < 4; i++ {
		if lenSqr[i] <= 0 {
			q.X[i], q.Y[i], q.Z[i], q.W[i] = 0, 0, 0, 1
			continue
		}
		q.X[i], q.Y[i], q.Z[i], q.W[i] = a.X[i]*rsqrt[i], a.Y[i]*rsqrt[i], a.Z[i]*rsqrt[i], a.W[i]*rsqrt[i]
	}
	return q
}

// SoaTransform groups four rigid (translation, rotation, scale) transforms,
// one per joint in a SoA group. This is the layout animated tracks sample
// into and blending jobs operate on.
type SoaTransform struct {
	Translation SoaVec3
	Rotation    SoaQuat
	Scale       SoaVec3
}

// SetIdentity resets t to an identity transform in every lane: zero
// translation, identity rotation, unit scale. The updated transform t is
// returned.
func (t *SoaTransform) SetIdentity() *SoaTransform {
	t.Translation.Splat(0, 0, 0)
	t.Rotation.SetIdentity()
	t.Scale.Splat(1, 1, 1)
	return t
}
