// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package skelanim is a skeletal animation runtime: given a compressed
// keyframe animation and a rigid skeleton it produces per-frame joint
// transforms suitable for GPU skinning. It provides sampling, blending,
// local-to-model composition, and two analytic inverse-kinematics solvers.
// Jobs are pure functions over caller-owned buffers; the only mutable,
// reusable state is the SamplingContext cursor cache. SamplingJob.Run does
// not allocate; BlendingJob.Run allocates per-call weight scratch buffers,
// LocalToModelJob.Run stores a newly allocated matrix in each Output slot
// it writes, and the IK jobs allocate temporary vectors and quaternions.
package skelanim

import (
	"fmt"

	"github.com/gazed/skelanim/soa"
)

// NoParent is the root sentinel value stored in Skeleton.Parents for any
// joint that has no parent.
const NoParent = int16(-1)

// MaxJoints is the largest skeleton this runtime supports. NewSkeleton
// does not check that SoA group padding lanes beyond num_joints hold an
// identity transform; LoadSkeleton only logs a warning, when given a
// logger, for a padding lane that does not.
const MaxJoints = 1024

// Skeleton is an immutable joint hierarchy and rest pose. It is built once
// (typically loaded from an archive, see archive.go) and then shared by
// shared reference across every animation played against it.
type Skeleton struct {
	numJoints int
	parents   []int16             // len == numJoints, parents[i] < i, root == NoParent.
	names     []string            // len == numJoints, optional.
	restPose  []*soa.SoaTransform // len == numSoaJoints.
}

// NewSkeleton validates and builds an immutable Skeleton from the given
// parent indices, joint names, and SoA rest pose groups. It returns an
// error instead of panicking since a malformed skeleton is a data problem,
// not a programming error, and the caller (typically an archive loader)
// needs the chance to report it.
func NewSkeleton(parents []int16, names []string, restPose []*soa.SoaTransform) (*Skeleton, error) {
	numJoints := len(parents)
	if numJoints > MaxJoints {
		return nil, fmt.Errorf("skelanim: skeleton has %d joints, max is %d", numJoints, MaxJoints)
	}
	if names != nil && len(names) != numJoints {
		return nil, fmt.Errorf("skelanim: joint name count %d does not match joint count %d", len(names), numJoints)
	}
	numSoaJoints := NumSoaGroups(numJoints)
	if len(restPose) != numSoaJoints {
		return nil, fmt.Errorf("skelanim: rest pose has %d SoA groups, want %d", len(restPose), numSoaJoints)
	}
	for i, p := range parents {
		if int(p) >= i {
			return nil, fmt.Errorf("skelanim: joint %d has parent %d, parents must precede their children", i, p)
		}
		if p < NoParent {
			return nil, fmt.Errorf("skelanim: joint %d has invalid parent index %d", i, p)
		}
	}
	s := &Skeleton{
		numJoints: numJoints,
		parents:   append([]int16{}, parents...),
		restPose:  append([]*soa.SoaTransform{}, restPose...),
	}
	if names != nil {
		s.names = append([]string{}, names...)
	}
	return s, nil
}

// NumJoints returns the number of joints in the skeleton.
func (s *Skeleton) NumJoints() int { return s.numJoints }

// NumSoaJoints returns the number of SoA groups of four joints needed to
// hold every joint in the skeleton, including any padding lanes in the
// last, possibly-partial, group.
func (s *Skeleton) NumSoaJoints() int { return NumSoaGroups(s.numJoints) }

// NumSoaGroups returns ceil(numJoints/4), the number of SoA-4 groups
// needed to store numJoints values.
func NumSoaGroups(numJoints int) int { return (numJoints + 3) / 4 }

// Parent returns the parent joint index of joint i, or NoParent if i is a
// root joint.
func (s *Skeleton) Parent(i int) int16 { return s.parents[i] }

// Parents returns the skeleton's parent index array. The returned slice
// must not be modified; the skeleton is immutable after construction.
func (s *Skeleton) Parents() []int16 { return s.parents }

// Name returns the joint name at index i, or "" if the skeleton carries no
// joint names.
func (s *Skeleton) Name(i int) string {
	if s.names == nil {
		return ""
	}
	return s.names[i]
}

// IsRoot reports whether joint i has no parent.
func (s *Skeleton) IsRoot(i int) bool { return s.parents[i] == NoParent }

// RestPose returns the skeleton's SoA rest pose groups. The returned slice
// must not be modified.
func (s *Skeleton) RestPose() []*soa.SoaTransform { return s.restPose }
