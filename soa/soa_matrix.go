// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package soa

import "github.com/gazed/skelanim/lin"

// FromAffineToAos builds the four 4x4 affine matrices (one per lane/joint)
// represented by SoA transform t: translation * rotation * scale, each
// lane expanded into its own standalone lin.M4. This plays the role of
// SoaFloat4x4::FromAffine followed by a transpose from SoA to AoS layout
// in a SIMD implementation; here the lanes are simply unpacked directly
// since there is no packed register to transpose out of.
func FromAffineToAos(t *SoaTransform) [4]*lin.M4 {
	out := [4]*lin.M4{}
	for i := 0; i < 4; i++ {
		q := &lin.Q{X: t.Rotation.X[i], Y: t.Rotation.Y[i], Z: t.Rotation.Z[i], W: t.Rotation.W[i]}
		m := lin.NewM4().SetQ(q)
		sx, sy, sz := t.Scale.X[i], t.Scale.Y[i], t.Scale.Z[i]
		m.Xx, m.Xy, m.Xz = m.Xx*sx, m.Xy*sx, m.Xz*sx
		m.Yx, m.Yy, m.Yz = m.Yx*sy, m.Yy*sy, m.Yz*sy
		m.Zx, m.Zy, m.Zz = m.Zx*sz, m.Zy*sz, m.Zz*sz
		m.Wx, m.Wy, m.Wz, m.Ww = t.Translation.X[i], t.Translation.Y[i], t.Translation.Z[i], 1
		out[i] = m
	}
	return out
}
