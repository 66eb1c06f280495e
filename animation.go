// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import "fmt"

// TranslationKey is a compressed translation or scale keyframe. Value is
// stored as three IEEE 754 half-floats (see soa.HalfToFloat) to keep clip
// memory small; Track identifies which joint track the key belongs to.
type TranslationKey struct {
	Time  float32
	Track uint16
	Value [3]uint16 // half-float x, y, z.
}

// ScaleKey has the same shape as TranslationKey; it is a distinct type so
// callers and archive code can't mix up the two streams by accident.
type ScaleKey struct {
	Time  float32
	Track uint16
	Value [3]uint16 // half-float x, y, z.
}

// RotationKey is a compressed rotation keyframe. The three
// smallest-magnitude quaternion components are quantized to signed 16-bit
// fixed point with scale 1/32767; the fourth (w, by convention) is
// recovered at decode time from the stored sign bit and the identity
// x²+y²+z²+w²=1, so it never needs to be stored.
type RotationKey struct {
	Time  float32
	Track uint16 // 15 bits of track index.
	WSign bool   // sign of the omitted w component.
	Value [3]int16
}

// rotationFixedScale converts a stored RotationKey.Value component back to
// a float in roughly [-1, 1].
const rotationFixedScale = 1.0 / 32767.0

// Animation is an immutable compressed animation clip: three keyframe
// streams (translation, rotation, scale) sorted by previous-key-time, then
// track (see NewAnimation), plus the metadata SamplingJob needs to decode
// them.
type Animation struct {
	name         string
	duration     float32 // seconds, > 0.
	numTracks    int
	translations []TranslationKey
	rotations    []RotationKey
	scales       []ScaleKey
}

// NewAnimation validates and builds an immutable Animation. Key ordering
// (sorted by previous-key-time, then track) is a precondition enforced by
// the offline builder that produced the streams; NewAnimation checks
// structural invariants only, not the full sort order, matching the "keys
// arrive pre-sorted" contract the cursor-cache sampling algorithm relies on.
func NewAnimation(name string, duration float32, numTracks int, translations []TranslationKey, rotations []RotationKey, scales []ScaleKey) (*Animation, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("skelanim: animation %q duration must be > 0, got %f", name, duration)
	}
	if numTracks < 0 {
		return nil, fmt.Errorf("skelanim: animation %q has negative track count %d", name, numTracks)
	}
	if numTracks > 0 {
		if len(translations) < 2*numTracks {
			return nil, fmt.Errorf("skelanim: animation %q has %d translation keys, need at least 2 per track (%d tracks)", name, len(translations), numTracks)
		}
		if len(rotations) < 2*numTracks {
			return nil, fmt.Errorf("skelanim: animation %q has %d rotation keys, need at least 2 per track (%d tracks)", name, len(rotations), numTracks)
		}
		if len(scales) < 2*numTracks {
			return nil, fmt.Errorf("skelanim: animation %q has %d scale keys, need at least 2 per track (%d tracks)", name, len(scales), numTracks)
		}
	}
	a := &Animation{
		name:         name,
		duration:     duration,
		numTracks:    numTracks,
		translations: append([]TranslationKey{}, translations...),
		rotations:    append([]RotationKey{}, rotations...),
		scales:       append([]ScaleKey{}, scales...),
	}
	return a, nil
}

// Name returns the clip's name, as given at construction or load time.
func (a *Animation) Name() string { return a.name }

// Duration returns the clip duration in seconds.
func (a *Animation) Duration() float32 { return a.duration }

// NumTracks returns the number of animated joint tracks.
func (a *Animation) NumTracks() int { return a.numTracks }

// NumSoaTracks returns ceil(NumTracks/4), the number of SoA-4 groups
// needed to sample every track.
func (a *Animation) NumSoaTracks() int { return NumSoaGroups(a.numTracks) }

// TranslationKeyframeCount returns the number of translation keys held for
// the given track, a diagnostic for tooling and tests that want to sanity
// check a loaded clip without running it through a SamplingJob.
func (a *Animation) TranslationKeyframeCount(track int) int {
	return countKeyframes(len(a.translations), func(i int) int { return int(a.translations[i].Track) }, track)
}

// RotationKeyframeCount returns the number of rotation keys held for the
// given track.
func (a *Animation) RotationKeyframeCount(track int) int {
	return countKeyframes(len(a.rotations), func(i int) int { return int(a.rotations[i].Track) }, track)
}

// ScaleKeyframeCount returns the number of scale keys held for the given
// track.
func (a *Animation) ScaleKeyframeCount(track int) int {
	return countKeyframes(len(a.scales), func(i int) int { return int(a.scales[i].Track) }, track)
}

func countKeyframes(n int, trackAt func(i int) int, track int) int {
	count := 0
	for i := 0; i < n; i++ {
		if trackAt(i) == track {
			count++
		}
	}
	return count
}
