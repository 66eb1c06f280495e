// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package soa provides a structure-of-arrays linear math library used by
// the animation runtime jobs to process four joints at a time. Lane4
// groups four independent scalars, one per joint, the same way a single
// lin.V3 groups three independent scalars for one joint. Each lane index
// (0..3) belongs to a different joint; no operation in this package
// combines values across lanes.
//
// Package soa is provided as part of the animation runtime. It shares the
// mutating-pointer-receiver style of the lin package: methods update the
// receiver in place and return it, avoiding allocation in hot loops.
package soa

import "math"

// Lane4 holds four independent float64 scalars, one per joint in a SoA
// group. A real SIMD implementation would keep these as a single packed
// float32x4 register; Lane4 keeps the same shape using plain float64s so
// the job implementations read the same whether or not the underlying
// arithmetic is vectorized.
type Lane4 [4]float64

// Splat returns a Lane4 with all four lanes set to s.
func Splat(s float64) Lane4 { return Lane4{s, s, s, s} }

// Zero is a reference zero lane. It should never be changed.
var Zero = Lane4{0, 0, 0, 0}

// One is a reference all-ones lane. It should never be changed.
var One = Lane4{1, 1, 1, 1}

// Set updates lane l to the values in lane a. The updated lane l is returned.
func (l *Lane4) Set(a Lane4) *Lane4 { *l = a; return l }

// Add updates lane l to be the per-lane sum of a and b. The updated lane l is returned.
func (l *Lane4) Add(a, b Lane4) *Lane4 {
	l[0], l[1], l[2], l[3] = a[0]+b[0], a[1]+b[1], a[2]+b[2], a[3]+b[3]
	return l
}

// Sub updates lane l to be the per-lane difference a-b. The updated lane l is returned.
func (l *Lane4) Sub(a, b Lane4) *Lane4 {
	l[0], l[1], l[2], l[3] = a[0]-b[0], a[1]-b[1], a[2]-b[2], a[3]-b[3]
	return l
}

// Mul updates lane l to be the per-lane product of a and b. The updated lane l is returned.
func (l *Lane4) Mul(a, b Lane4) *Lane4 {
	l[0], l[1], l[2], l[3] = a[0]*b[0], a[1]*b[1], a[2]*b[2], a[3]*b[3]
	return l
}

// Scale updates lane l to be lane a with every lane multiplied by s.
// The updated lane l is returned.
func (l *Lane4) Scale(a Lane4, s float64) *Lane4 {
	l[0], l[1], l[2], l[3] = a[0]*s, a[1]*s, a[2]*s, a[3]*s
	return l
}

// Max0 updates lane l to be lane a with every negative lane clamped to 0.
// The updated lane l is returned.
func (l *Lane4) Max0(a Lane4) *Lane4 {
	for i := 0; i < 4; i++ {
		if a[i] < 0 {
			l[i] = 0
		} else {
			l[i] = a[i]
		}
	}
	return l
}

// Clamp updates lane l to be lane a with each lane clamped to [lb, ub].
// The updated lane l is returned.
func (l *Lane4) Clamp(a Lane4, lb, ub float64) *Lane4 {
	for i := 0; i < 4; i++ {
		switch {
		case a[i] < lb:
			l[i] = lb
		case a[i] > ub:
			l[i] = ub
		default:
			l[i] = a[i]
		}
	}
	return l
}

// Lerp updates lane l to be the per-lane linear interpolation from a to b
// by ratio t. The updated lane l is returned.
func (l *Lane4) Lerp(a, b Lane4, t float64) *Lane4 {
	for i := 0; i < 4; i++ {
		l[i] = a[i] + (b[i]-a[i])*t
	}
	return l
}

// RSqrtEst updates lane l to be an estimate of 1/sqrt(a) per lane. Lanes
// that are zero or negative are returned as zero; SoaQuat.Normalize relies
// on this when a squared length happens to be zero.
// The updated lane l is returned.
func (l *Lane4) RSqrtEst(a Lane4) *Lane4 {
	for i := 0; i < 4; i++ {
		if a[i] <= 0 {
			l[i] = 0
		} else {
			l[i] = 1 / math.Sqrt(a[i])
		}
	}
	return l
}

// Sign returns, per lane, true if a[i] is negative and false otherwise.
func Sign(a Lane4) [4]bool {
	return [4]bool{a[0] < 0, a[1] < 0, a[2] < 0, a[3] < 0}
}

// Select returns, per lane, a[i] if cond[i] is true, otherwise b[i].
func Select(cond [4]bool, a, b Lane4) Lane4 {
	r := Lane4{}
	for i := 0; i < 4; i++ {
		if cond[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}
