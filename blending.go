// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"math"

	"github.com/gazed/skelanim/soa"
)

// DefaultThreshold is the accumulated-weight floor below which BlendingJob
// blends in the rest pose, guaranteeing the output is never degenerate.
const DefaultThreshold = 0.1

// Layer is one pose contributing to a BlendingJob: a full SoA local pose,
// a layer weight, and optional per-joint weights that further mask the
// layer weight joint by joint.
type Layer struct {
	Transform    []*soa.SoaTransform
	Weight       float32
	JointWeights []soa.Lane4 // optional, same length as Transform.
}

// BlendingJob linearly combines normal pose layers (falling back to the
// rest pose when accumulated weight is thin), then applies additive
// layers on top.
type BlendingJob struct {
	Layers         []Layer
	AdditiveLayers []Layer
	RestPose       []*soa.SoaTransform
	Threshold      float32 // > 0, defaults conceptually to DefaultThreshold.
	Output         []*soa.SoaTransform
}

// Validate reports whether buffer shapes agree and Threshold is positive.
func (j *BlendingJob) Validate() bool {
	if j.Threshold <= 0 {
		return false
	}
	n := len(j.RestPose)
	if len(j.Output) < n {
		return false
	}
	for _, l := range j.Layers {
		if len(l.Transform) < n {
			return false
		}
		if l.JointWeights != nil && len(l.JointWeights) < n {
			return false
		}
	}
	for _, l := range j.AdditiveLayers {
		if len(l.Transform) < n {
			return false
		}
		if l.JointWeights != nil && len(l.JointWeights) < n {
			return false
		}
	}
	return true
}

// Run blends Layers and AdditiveLayers into Output. It returns false,
// performing no mutation, if Validate fails.
func (j *BlendingJob) Run() bool {
	if !j.Validate() {
		return false
	}
	n := len(j.RestPose)
	accum := make([]soa.Lane4, n)
	started := make([]bool, n)

	for _, layer := range j.Layers {
		if layer.Weight <= 0 {
			continue
		}
		blendNormalLayer(j.Output, accum, started, layer, n)
	}

	for i := 0; i < n; i++ {
		deficit := soa.Lane4{}
		for lane := 0; lane < 4; lane++ {
			d := float64(j.Threshold) - accum[i][lane]
			if d < 0 {
				d = 0
			}
			deficit[lane] = d
		}
		if !started[i] {
			// No layer touched this group at all: output is pure rest pose.
			*j.Output[i] = *j.RestPose[i]
			accum[i] = soa.Splat(float64(j.Threshold))
			continue
		}
		anyDeficit := false
		for lane := 0; lane < 4; lane++ {
			if deficit[lane] > 0 {
				anyDeficit = true
			}
		}
		if anyDeficit {
			addWeightedTransform(j.Output[i], j.RestPose[i], deficit)
			for lane := 0; lane < 4; lane++ {
				accum[i][lane] += deficit[lane]
			}
		}
		normalizeTransform(j.Output[i], accum[i])
	}

	for _, layer := range j.AdditiveLayers {
		applyAdditiveLayer(j.Output, layer, n)
	}
	return true
}

// blendNormalLayer folds one normal layer's weighted contribution into
// out/accum for every SoA group, applying the per-lane hemisphere fix
// (negate the layer's rotation when it opposes the running sum) before
// summing so the incremental average stays on the rotation short path.
func blendNormalLayer(out []*soa.SoaTransform, accum []soa.Lane4, started []bool, layer Layer, n int) {
	for i := 0; i < n; i++ {
		w := perJointWeight(layer, i)
		if allZero(w) {
			continue
		}
		src := layer.Transform[i]
		if !started[i] {
			out[i].Translation.X = soa.Lane4{}
			out[i].Translation.Y = soa.Lane4{}
			out[i].Translation.Z = soa.Lane4{}
			out[i].Scale.X = soa.Lane4{}
			out[i].Scale.Y = soa.Lane4{}
			out[i].Scale.Z = soa.Lane4{}
			out[i].Rotation.X = soa.Lane4{}
			out[i].Rotation.Y = soa.Lane4{}
			out[i].Rotation.Z = soa.Lane4{}
			out[i].Rotation.W = soa.Lane4{}
			started[i] = true
		}
		rot := &soa.SoaQuat{}
		rot.Set(&src.Rotation)
		fixed := soa.NegateIfOpposite(&out[i].Rotation, rot)
		addWeightedVec3(&out[i].Translation, &src.Translation, w)
		addWeightedVec3(&out[i].Scale, &src.Scale, w)
		out[i].Rotation.AddScaled(fixed, w)
		for lane := 0; lane < 4; lane++ {
			accum[i][lane] += w[lane]
		}
	}
}

// perJointWeight resolves a layer's effective per-lane weight: the layer
// weight alone, or the layer weight masked by max(0, joint_weight) when
// per-joint weights are present.
func perJointWeight(layer Layer, i int) soa.Lane4 {
	w := soa.Splat(float64(layer.Weight))
	if layer.JointWeights == nil {
		return w
	}
	jw := layer.JointWeights[i]
	r := soa.Lane4{}
	for lane := 0; lane < 4; lane++ {
		m := jw[lane]
		if m < 0 {
			m = 0
		}
		r[lane] = w[lane] * m
	}
	return r
}

func addWeightedVec3(dst *soa.SoaVec3, src *soa.SoaVec3, w soa.Lane4) {
	for lane := 0; lane < 4; lane++ {
		dst.X[lane] += src.X[lane] * w[lane]
		dst.Y[lane] += src.Y[lane] * w[lane]
		dst.Z[lane] += src.Z[lane] * w[lane]
	}
}

// addWeightedTransform adds w*src into dst's translation, scale, and
// (hemisphere-fixed) rotation, used for the rest-pose-fallback pass.
func addWeightedTransform(dst *soa.SoaTransform, src *soa.SoaTransform, w soa.Lane4) {
	addWeightedVec3(&dst.Translation, &src.Translation, w)
	addWeightedVec3(&dst.Scale, &src.Scale, w)
	rot := &soa.SoaQuat{}
	rot.Set(&src.Rotation)
	fixed := soa.NegateIfOpposite(&dst.Rotation, rot)
	dst.Rotation.AddScaled(fixed, w)
}

// normalizeTransform divides translation/scale by the accumulated weight
// and renormalizes rotation, turning a weighted sum into a weighted
// average.
func normalizeTransform(t *soa.SoaTransform, accum soa.Lane4) {
	for lane := 0; lane < 4; lane++ {
		a := accum[lane]
		if a <= 0 {
			continue
		}
		t.Translation.X[lane] /= a
		t.Translation.Y[lane] /= a
		t.Translation.Z[lane] /= a
		t.Scale.X[lane] /= a
		t.Scale.Y[lane] /= a
		t.Scale.Z[lane] /= a
	}
	t.Rotation.Normalize(&t.Rotation)
}

func allZero(w soa.Lane4) bool {
	return w[0] == 0 && w[1] == 0 && w[2] == 0 && w[3] == 0
}

// applyAdditiveLayer applies one additive layer on top of the (already
// normal-blended) output: translation adds, rotation composes a short-path
// nlerp-to-layer-rotation, scale multiplies a lerp-to-layer-scale. Negative
// layer weight subtracts rather than adds, the inverse of the positive case.
func applyAdditiveLayer(out []*soa.SoaTransform, layer Layer, n int) {
	for i := 0; i < n; i++ {
		w := perJointWeight(layer, i)
		if allZero(w) {
			continue
		}
		src := layer.Transform[i]
		for lane := 0; lane < 4; lane++ {
			out[i].Translation.X[lane] += src.Translation.X[lane] * w[lane]
			out[i].Translation.Y[lane] += src.Translation.Y[lane] * w[lane]
			out[i].Translation.Z[lane] += src.Translation.Z[lane] * w[lane]
		}
		identity := soa.Identity
		nlerped := nlerpQuat(identity, &src.Rotation, w)
		composed := &soa.SoaQuat{}
		quatMulSoa(composed, &out[i].Rotation, nlerped)
		out[i].Rotation.Set(composed)
		for lane := 0; lane < 4; lane++ {
			s := 1 + (src.Scale.X[lane]-1)*w[lane]
			out[i].Scale.X[lane] *= s
			s = 1 + (src.Scale.Y[lane]-1)*w[lane]
			out[i].Scale.Y[lane] *= s
			s = 1 + (src.Scale.Z[lane]-1)*w[lane]
			out[i].Scale.Z[lane] *= s
		}
	}
}

// nlerpQuat returns the per-lane short-path nlerp from a to b by ratio w:
// b is negated, per lane, where it opposes a, then lerped and renormalized.
func nlerpQuat(a, b *soa.SoaQuat, w soa.Lane4) *soa.SoaQuat {
	fixed := soa.NegateIfOpposite(a, b)
	r := &soa.SoaQuat{}
	for lane := 0; lane < 4; lane++ {
		x := a.X[lane] + (fixed.X[lane]-a.X[lane])*w[lane]
		y := a.Y[lane] + (fixed.Y[lane]-a.Y[lane])*w[lane]
		z := a.Z[lane] + (fixed.Z[lane]-a.Z[lane])*w[lane]
		ww := a.W[lane] + (fixed.W[lane]-a.W[lane])*w[lane]
		lenSqr := x*x + y*y + z*z + ww*ww
		if lenSqr <= 0 {
			r.X[lane], r.Y[lane], r.Z[lane], r.W[lane] = 0, 0, 0, 1
			continue
		}
		rs := 1 / math.Sqrt(lenSqr)
		r.X[lane], r.Y[lane], r.Z[lane], r.W[lane] = x*rs, y*rs, z*rs, ww*rs
	}
	return r
}

// quatMulSoa computes the per-lane Hamilton product out = l*r.
func quatMulSoa(out, l, r *soa.SoaQuat) {
	for lane := 0; lane < 4; lane++ {
		lx, ly, lz, lw := l.X[lane], l.Y[lane], l.Z[lane], l.W[lane]
		rx, ry, rz, rw := r.X[lane], r.Y[lane], r.Z[lane], r.W[lane]
		out.X[lane] = lw*rx + lx*rw + ly*rz - lz*ry
		out.Y[lane] = lw*ry - lx*rz + ly*rw + lz*rx
		out.Z[lane] = lw*rz + lx*ry - ly*rx + lz*rw
		out.W[lane] = lw*rw - lx*rx - ly*ry - lz*rz
	}
}
