// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"math"

	"github.com/gazed/skelanim/soa"
)

// bracket holds the two key indices currently bracketing one track's
// playback position: keys[left].time <= t <= keys[right].time.
type bracket struct {
	left, right int
}

// SamplingContext is per-instance mutable scratch for SamplingJob. It
// caches, per track, the two keyframes currently bracketing the sample
// time, so that a forward-playing animation only ever advances the cursor
// rather than rescanning the keyframe stream. The caller owns the
// context's lifetime; SamplingJob.Run borrows it mutably.
type SamplingContext struct {
	maxSoaTracks int

	animation *Animation // identity compared against to detect animation swaps.
	lastTime  float32

	translationCursor int
	rotationCursor    int
	scaleCursor       int

	translationBrackets [][4]bracket
	rotationBrackets    [][4]bracket
	scaleBrackets       [][4]bracket

	translationOutdated []bool
	rotationOutdated    []bool
	scaleOutdated       []bool

	translationCache []soa.SoaVec3
	rotationCache    []soa.SoaQuat
	scaleCache       []soa.SoaVec3

	translationCacheR []soa.SoaVec3
	rotationCacheR    []soa.SoaQuat
	scaleCacheR       []soa.SoaVec3
}

// NewSamplingContext allocates a SamplingContext able to sample any
// animation with up to maxSoaTracks SoA track groups.
func NewSamplingContext(maxSoaTracks int) *SamplingContext {
	c := &SamplingContext{}
	c.Resize(maxSoaTracks)
	return c
}

// Resize grows or shrinks the context to support maxSoaTracks SoA groups,
// reallocating every internal buffer. SamplingJob.Run itself does not
// allocate; callers should size the context once per skeleton/animation
// set rather than resizing every frame.
func (c *SamplingContext) Resize(maxSoaTracks int) {
	c.maxSoaTracks = maxSoaTracks
	c.translationBrackets = make([][4]bracket, maxSoaTracks)
	c.rotationBrackets = make([][4]bracket, maxSoaTracks)
	c.scaleBrackets = make([][4]bracket, maxSoaTracks)
	c.translationOutdated = make([]bool, maxSoaTracks)
	c.rotationOutdated = make([]bool, maxSoaTracks)
	c.scaleOutdated = make([]bool, maxSoaTracks)
	c.translationCache = make([]soa.SoaVec3, maxSoaTracks)
	c.rotationCache = make([]soa.SoaQuat, maxSoaTracks)
	c.scaleCache = make([]soa.SoaVec3, maxSoaTracks)
	c.translationCacheR = make([]soa.SoaVec3, maxSoaTracks)
	c.rotationCacheR = make([]soa.SoaQuat, maxSoaTracks)
	c.scaleCacheR = make([]soa.SoaVec3, maxSoaTracks)
	c.Invalidate()
}

// MaxSoaTracks returns the number of SoA track groups the context can
// currently sample.
func (c *SamplingContext) MaxSoaTracks() int { return c.maxSoaTracks }

// Invalidate forces the next SamplingJob.Run using this context to reseed
// every cursor from the first two keys of each track, as if the context
// were freshly allocated. Call this whenever the animation bound to the
// context changes outside of SamplingJob.Run itself (Run also detects this
// automatically).
func (c *SamplingContext) Invalidate() {
	c.animation = nil
	c.lastTime = 0
	c.translationCursor = 0
	c.rotationCursor = 0
	c.scaleCursor = 0
}

// step re-seeds the context's cursors when the bound animation changes or
// time moves backwards, matching the cache-stepping rule every channel's
// advance depends on.
func (c *SamplingContext) step(a *Animation, t float32) {
	if c.animation != a || t < c.lastTime {
		c.translationCursor = 0
		c.rotationCursor = 0
		c.scaleCursor = 0
	}
	c.animation = a
	c.lastTime = t
}

// SamplingJob decompresses an Animation at a normalized time ratio into a
// buffer of SoaTransform local poses, using a SamplingContext to avoid
// rescanning the keyframe streams every frame.
type SamplingJob struct {
	Animation *Animation
	Context   *SamplingContext
	Ratio     float32
	Output    []*soa.SoaTransform
}

// Validate reports whether the job's inputs are well formed: a non-nil
// animation and context, a context large enough for the animation, and an
// output buffer large enough to hold every SoA track.
func (j *SamplingJob) Validate() bool {
	if j.Animation == nil || j.Context == nil {
		return false
	}
	if j.Context.MaxSoaTracks() < j.Animation.NumSoaTracks() {
		return false
	}
	if len(j.Output) < j.Animation.NumSoaTracks() {
		return false
	}
	return true
}

// Run decompresses the bound animation at Ratio*Duration into Output. It
// returns false, performing no mutation, if Validate fails.
func (j *SamplingJob) Run() bool {
	if !j.Validate() {
		return false
	}
	a := j.Animation
	ctx := j.Context
	ratio := clampF32(j.Ratio, 0, 1)
	t := ratio * a.Duration()

	ctx.step(a, t)

	numSoaTracks := a.NumSoaTracks()

	advanceTranslations(a, ctx, t)
	advanceRotations(a, ctx, t)
	advanceScales(a, ctx, t)

	decodeOutdatedTranslations(a, ctx)
	decodeOutdatedRotations(a, ctx)
	decodeOutdatedScales(a, ctx)

	for i := 0; i < numSoaTracks; i++ {
		out := j.Output[i]
		interpolateVec3(&out.Translation, &ctx.translationCache[i], &ctx.translationCacheR[i], ctx.translationBrackets[i], a.translations, translationTime, t)
		interpolateQuat(&out.Rotation, &ctx.rotationCache[i], &ctx.rotationCacheR[i], ctx.rotationBrackets[i], a.rotations, rotationTime, t)
		interpolateVec3(&out.Scale, &ctx.scaleCache[i], &ctx.scaleCacheR[i], ctx.scaleBrackets[i], a.scales, scaleTime, t)
	}
	return true
}

func translationTime(keys []TranslationKey, i int) float32 { return keys[i].Time }
func scaleTime(keys []ScaleKey, i int) float32             { return keys[i].Time }
func rotationTime(keys []RotationKey, i int) float32       { return keys[i].Time }

// seedBrackets populates every track's bracket with the first two keys:
// keys[0..numTracks) are each track's first (left) key in track order,
// keys[numTracks..2*numTracks) are each track's second (right) key, per
// the builder-guaranteed key-stream order (see NewAnimation).
func seedBrackets(brackets [][4]bracket, outdated []bool, numTracks int) {
	for track := 0; track < numTracks; track++ {
		group, lane := track/4, track%4
		brackets[group][lane] = bracket{left: track, right: numTracks + track}
	}
	for g := range outdated {
		outdated[g] = true
	}
}

// advanceTranslations steps the translation cursor forward, shifting any
// track's bracket whose right key time has been passed by t.
func advanceTranslations(a *Animation, ctx *SamplingContext, t float32) {
	if ctx.translationCursor == 0 {
		seedBrackets(ctx.translationBrackets, ctx.translationOutdated, a.numTracks)
		ctx.translationCursor = 2 * a.numTracks
	}
	keys := a.translations
	cursor := ctx.translationCursor
	for cursor < len(keys) {
		track := int(keys[cursor].Track)
		group, lane := track/4, track%4
		b := ctx.translationBrackets[group][lane]
		if keys[b.right].Time > t {
			break
		}
		ctx.translationBrackets[group][lane] = bracket{left: b.right, right: cursor}
		ctx.translationOutdated[group] = true
		cursor++
	}
	ctx.translationCursor = cursor
}

func advanceScales(a *Animation, ctx *SamplingContext, t float32) {
	if ctx.scaleCursor == 0 {
		seedBrackets(ctx.scaleBrackets, ctx.scaleOutdated, a.numTracks)
		ctx.scaleCursor = 2 * a.numTracks
	}
	keys := a.scales
	cursor := ctx.scaleCursor
	for cursor < len(keys) {
		track := int(keys[cursor].Track)
		group, lane := track/4, track%4
		b := ctx.scaleBrackets[group][lane]
		if keys[b.right].Time > t {
			break
		}
		ctx.scaleBrackets[group][lane] = bracket{left: b.right, right: cursor}
		ctx.scaleOutdated[group] = true
		cursor++
	}
	ctx.scaleCursor = cursor
}

func advanceRotations(a *Animation, ctx *SamplingContext, t float32) {
	if ctx.rotationCursor == 0 {
		seedBrackets(ctx.rotationBrackets, ctx.rotationOutdated, a.numTracks)
		ctx.rotationCursor = 2 * a.numTracks
	}
	keys := a.rotations
	cursor := ctx.rotationCursor
	for cursor < len(keys) {
		track := int(keys[cursor].Track)
		group, lane := track/4, track%4
		b := ctx.rotationBrackets[group][lane]
		if keys[b.right].Time > t {
			break
		}
		ctx.rotationBrackets[group][lane] = bracket{left: b.right, right: cursor}
		ctx.rotationOutdated[group] = true
		cursor++
	}
	ctx.rotationCursor = cursor
}

// decodeOutdatedTranslations rebuilds the SoA decompressed cache for every
// track group flagged outdated, and clears the flag.
func decodeOutdatedTranslations(a *Animation, ctx *SamplingContext) {
	for g := range ctx.translationOutdated {
		if !ctx.translationOutdated[g] {
			continue
		}
		for lane := 0; lane < 4; lane++ {
			b := ctx.translationBrackets[g][lane]
			decodeVec3Lane(&ctx.translationCache[g], lane, a.translations[b.left].Value)
			decodeVec3Lane(&ctx.translationCacheR[g], lane, a.translations[b.right].Value)
		}
		ctx.translationOutdated[g] = false
	}
}

func decodeOutdatedScales(a *Animation, ctx *SamplingContext) {
	for g := range ctx.scaleOutdated {
		if !ctx.scaleOutdated[g] {
			continue
		}
		for lane := 0; lane < 4; lane++ {
			b := ctx.scaleBrackets[g][lane]
			decodeVec3Lane(&ctx.scaleCache[g], lane, a.scales[b.left].Value)
			decodeVec3Lane(&ctx.scaleCacheR[g], lane, a.scales[b.right].Value)
		}
		ctx.scaleOutdated[g] = false
	}
}

func decodeVec3Lane(v *soa.SoaVec3, lane int, value [3]uint16) {
	v.X[lane] = soa.HalfToFloat(value[0])
	v.Y[lane] = soa.HalfToFloat(value[1])
	v.Z[lane] = soa.HalfToFloat(value[2])
}

func decodeOutdatedRotations(a *Animation, ctx *SamplingContext) {
	for g := range ctx.rotationOutdated {
		if !ctx.rotationOutdated[g] {
			continue
		}
		for lane := 0; lane < 4; lane++ {
			b := ctx.rotationBrackets[g][lane]
			decodeQuatLane(&ctx.rotationCache[g], lane, a.rotations[b.left])
			decodeQuatLane(&ctx.rotationCacheR[g], lane, a.rotations[b.right])
		}
		ctx.rotationOutdated[g] = false
	}
}

// decodeQuatLane reconstructs the omitted w component of a compressed
// rotation key: w = sign * sqrt(max(eps, 1 - x^2 - y^2 - z^2)), computed
// as ww * (1/sqrt(ww)).
func decodeQuatLane(q *soa.SoaQuat, lane int, k RotationKey) {
	x := float64(k.Value[0]) * rotationFixedScale
	y := float64(k.Value[1]) * rotationFixedScale
	z := float64(k.Value[2]) * rotationFixedScale
	ww := math.Max(1e-9, 1-x*x-y*y-z*z)
	w := ww * (1 / math.Sqrt(ww))
	if k.WSign {
		w = -w
	}
	q.X[lane], q.Y[lane], q.Z[lane], q.W[lane] = x, y, z, w
}

// interpolateVec3 blends the cached left/right SoA groups for one SoA
// track group into out, per-lane linear interpolation using each lane's
// own bracket alpha at time t.
func interpolateVec3[K any](out *soa.SoaVec3, left, right *soa.SoaVec3, brackets [4]bracket, keys []K, timeOf func([]K, int) float32, t float32) {
	for lane := 0; lane < 4; lane++ {
		b := brackets[lane]
		alpha := ratio(timeOf(keys, b.left), timeOf(keys, b.right), t)
		out.X[lane] = left.X[lane] + (right.X[lane]-left.X[lane])*alpha
		out.Y[lane] = left.Y[lane] + (right.Y[lane]-left.Y[lane])*alpha
		out.Z[lane] = left.Z[lane] + (right.Z[lane]-left.Z[lane])*alpha
	}
}

func interpolateQuat[K any](out *soa.SoaQuat, left, right *soa.SoaQuat, brackets [4]bracket, keys []K, timeOf func([]K, int) float32, t float32) {
	for lane := 0; lane < 4; lane++ {
		b := brackets[lane]
		alpha := ratio(timeOf(keys, b.left), timeOf(keys, b.right), t)
		x := left.X[lane] + (right.X[lane]-left.X[lane])*alpha
		y := left.Y[lane] + (right.Y[lane]-left.Y[lane])*alpha
		z := left.Z[lane] + (right.Z[lane]-left.Z[lane])*alpha
		w := left.W[lane] + (right.W[lane]-left.W[lane])*alpha
		lenSqr := x*x + y*y + z*z + w*w
		if lenSqr <= 0 {
			out.X[lane], out.Y[lane], out.Z[lane], out.W[lane] = 0, 0, 0, 1
			continue
		}
		rs := 1 / math.Sqrt(lenSqr)
		out.X[lane], out.Y[lane], out.Z[lane], out.W[lane] = x*rs, y*rs, z*rs, w*rs
	}
}

func ratio(left, right, t float32) float64 {
	if right <= left {
		return 0
	}
	a := float64(t-left) / float64(right-left)
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

func clampF32(v, lo, hi float32) float32 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
