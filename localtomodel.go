// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"github.com/gazed/skelanim/lin"
	"github.com/gazed/skelanim/soa"
)

// LocalToModelJob composes a skeleton's hierarchical local-space SoA
// transforms into model-space 4x4 matrices. Joints are processed in index
// order, which the Skeleton.Parents invariant (parent < child) guarantees
// is already a valid depth-first order: a joint's parent matrix has
// always been written by the time the joint itself is reached.
type LocalToModelJob struct {
	Skeleton *Skeleton
	Input    []*soa.SoaTransform // >= Skeleton.NumSoaJoints()
	Output   []*lin.M4           // >= Skeleton.NumJoints()

	// From/To optionally restrict work to the half-open joint range
	// [From, To). Zero values (the default) cover every joint.
	From, To int
}

// Validate reports whether Skeleton is set and Input/Output are large
// enough to hold every SoA group / joint respectively.
func (j *LocalToModelJob) Validate() bool {
	if j.Skeleton == nil {
		return false
	}
	if len(j.Input) < j.Skeleton.NumSoaJoints() {
		return false
	}
	if len(j.Output) < j.Skeleton.NumJoints() {
		return false
	}
	return true
}

// Run writes Output[i] = Output[parent[i]] * localMatrix(i) for every
// joint in range, or just localMatrix(i) for roots. It returns false,
// performing no mutation, if Validate fails.
func (j *LocalToModelJob) Run() bool {
	if !j.Validate() {
		return false
	}
	numJoints := j.Skeleton.NumJoints()
	if numJoints == 0 {
		return true
	}
	from, to := j.From, j.To
	if to == 0 {
		to = numJoints
	}
	for joint := from; joint < to; {
		group := joint / 4
		aos := soa.FromAffineToAos(j.Input[group])
		end := joint + 4 - joint%4
		if end > to {
			end = to
		}
		for ; joint < end; joint++ {
			lane := joint % 4
			parent := j.Skeleton.Parent(joint)
			local := aos[lane]
			if parent == NoParent {
				j.Output[joint] = lin.NewM4().Set(local)
				continue
			}
			m := lin.NewM4()
			m.Mult(local, j.Output[parent])
			j.Output[joint] = m
		}
	}
	return true
}
