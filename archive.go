// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

// archive.go implements the persistent, on-disk wire format for Animation
// and Skeleton. This is the only place the runtime does file/stream I/O;
// every other job operates purely on in-memory caller-owned buffers. The
// offline builders that actually compress raw clips into this form are out
// of scope for this package — archive.go is the loader/saver half of that
// contract.

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/gazed/skelanim/soa"
)

// LoadOptions carries optional diagnostics for LoadAnimation/LoadSkeleton.
// The zero value disables diagnostics: nothing is logged unless a Logger
// is supplied, matching load/load.go's opt-in logging at the I/O boundary
// rather than mandatory logging on every call.
type LoadOptions struct {
	Logger *slog.Logger
}

// LoadOption configures a LoadOptions.
type LoadOption func(*LoadOptions)

// WithLogger routes non-fatal load-time diagnostics to l.
func WithLogger(l *slog.Logger) LoadOption {
	return func(o *LoadOptions) { o.Logger = l }
}

func resolveLoadOptions(opts []LoadOption) *LoadOptions {
	o := &LoadOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// envelope byte values identifying the byte order the rest of the stream
// was written in.
const (
	envelopeLittleEndian = 0
	envelopeBigEndian    = 1
)

// wireKey3 is the on-disk layout shared by translation and scale keys:
// a track index, a time, and three half-float components.
type wireKey3 struct {
	Track uint16
	Time  float32
	Value [3]uint16
}

// wireRotationKey is the on-disk layout for a compressed rotation key: a
// track index packed with the w-sign bit, a time, and three fixed-point
// components.
type wireRotationKey struct {
	TrackWSign uint16
	Time       float32
	Value      [3]int16
}

// SaveAnimation writes a into w using the persistent Animation format:
// an envelope byte selecting byte
// order, duration and track count, then the translation, rotation, and
// scale keyframe streams in that order.
func SaveAnimation(w io.Writer, a *Animation, order binary.ByteOrder) error {
	envelope := envelopeLittleEndian
	if order == binary.BigEndian {
		envelope = envelopeBigEndian
	}
	if err := binary.Write(w, order, uint8(envelope)); err != nil {
		return fmt.Errorf("skelanim: write animation envelope: %w", err)
	}
	if err := binary.Write(w, order, a.duration); err != nil {
		return fmt.Errorf("skelanim: write animation duration: %w", err)
	}
	if err := binary.Write(w, order, uint32(a.numTracks)); err != nil {
		return fmt.Errorf("skelanim: write animation track count: %w", err)
	}
	if err := writeTranslations(w, order, a.translations); err != nil {
		return err
	}
	if err := writeRotations(w, order, a.rotations); err != nil {
		return err
	}
	if err := writeScales(w, order, a.scales); err != nil {
		return err
	}
	return nil
}

func writeTranslations(w io.Writer, order binary.ByteOrder, keys []TranslationKey) error {
	if err := binary.Write(w, order, uint32(len(keys))); err != nil {
		return fmt.Errorf("skelanim: write translation count: %w", err)
	}
	for _, k := range keys {
		wk := wireKey3{Track: k.Track, Time: k.Time, Value: k.Value}
		if err := binary.Write(w, order, wk); err != nil {
			return fmt.Errorf("skelanim: write translation key: %w", err)
		}
	}
	return nil
}

func writeScales(w io.Writer, order binary.ByteOrder, keys []ScaleKey) error {
	if err := binary.Write(w, order, uint32(len(keys))); err != nil {
		return fmt.Errorf("skelanim: write scale count: %w", err)
	}
	for _, k := range keys {
		wk := wireKey3{Track: k.Track, Time: k.Time, Value: k.Value}
		if err := binary.Write(w, order, wk); err != nil {
			return fmt.Errorf("skelanim: write scale key: %w", err)
		}
	}
	return nil
}

func writeRotations(w io.Writer, order binary.ByteOrder, keys []RotationKey) error {
	if err := binary.Write(w, order, uint32(len(keys))); err != nil {
		return fmt.Errorf("skelanim: write rotation count: %w", err)
	}
	for _, k := range keys {
		trackWSign := k.Track & 0x7fff
		if k.WSign {
			trackWSign |= 0x8000
		}
		wk := wireRotationKey{TrackWSign: trackWSign, Time: k.Time, Value: k.Value}
		if err := binary.Write(w, order, wk); err != nil {
			return fmt.Errorf("skelanim: write rotation key: %w", err)
		}
	}
	return nil
}

// LoadAnimation reads an Animation written by SaveAnimation from r,
// determining byte order from the leading envelope byte.
func LoadAnimation(name string, r io.Reader, opts ...LoadOption) (*Animation, error) {
	o := resolveLoadOptions(opts)
	var envelope uint8
	if err := binary.Read(r, binary.LittleEndian, &envelope); err != nil {
		return nil, fmt.Errorf("skelanim: read animation envelope: %w", err)
	}
	order, err := byteOrderFor(envelope)
	if err != nil {
		return nil, err
	}

	var duration float32
	if err := binary.Read(r, order, &duration); err != nil {
		return nil, fmt.Errorf("skelanim: read animation duration: %w", err)
	}
	var numTracks uint32
	if err := binary.Read(r, order, &numTracks); err != nil {
		return nil, fmt.Errorf("skelanim: read animation track count: %w", err)
	}

	translations, err := readTranslations(r, order)
	if err != nil {
		return nil, err
	}
	rotations, err := readRotations(r, order)
	if err != nil {
		return nil, err
	}
	scales, err := readScales(r, order)
	if err != nil {
		return nil, err
	}
	if o.Logger != nil && numTracks == 0 {
		o.Logger.Warn("skelanim: loaded animation with no tracks", "name", name)
	}
	return NewAnimation(name, duration, int(numTracks), translations, rotations, scales)
}

func byteOrderFor(envelope uint8) (binary.ByteOrder, error) {
	switch envelope {
	case envelopeLittleEndian:
		return binary.LittleEndian, nil
	case envelopeBigEndian:
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("skelanim: unrecognized envelope byte %d", envelope)
	}
}

func readTranslations(r io.Reader, order binary.ByteOrder) ([]TranslationKey, error) {
	var count uint32
	if err := binary.Read(r, order, &count); err != nil {
		return nil, fmt.Errorf("skelanim: read translation count: %w", err)
	}
	keys := make([]TranslationKey, count)
	for i := range keys {
		wk := wireKey3{}
		if err := binary.Read(r, order, &wk); err != nil {
			return nil, fmt.Errorf("skelanim: read translation key %d: %w", i, err)
		}
		keys[i] = TranslationKey{Time: wk.Time, Track: wk.Track, Value: wk.Value}
	}
	return keys, nil
}

func readScales(r io.Reader, order binary.ByteOrder) ([]ScaleKey, error) {
	var count uint32
	if err := binary.Read(r, order, &count); err != nil {
		return nil, fmt.Errorf("skelanim: read scale count: %w", err)
	}
	keys := make([]ScaleKey, count)
	for i := range keys {
		wk := wireKey3{}
		if err := binary.Read(r, order, &wk); err != nil {
			return nil, fmt.Errorf("skelanim: read scale key %d: %w", i, err)
		}
		keys[i] = ScaleKey{Time: wk.Time, Track: wk.Track, Value: wk.Value}
	}
	return keys, nil
}

func readRotations(r io.Reader, order binary.ByteOrder) ([]RotationKey, error) {
	var count uint32
	if err := binary.Read(r, order, &count); err != nil {
		return nil, fmt.Errorf("skelanim: read rotation count: %w", err)
	}
	keys := make([]RotationKey, count)
	for i := range keys {
		wk := wireRotationKey{}
		if err := binary.Read(r, order, &wk); err != nil {
			return nil, fmt.Errorf("skelanim: read rotation key %d: %w", i, err)
		}
		keys[i] = RotationKey{
			Time:  wk.Time,
			Track: wk.TrackWSign & 0x7fff,
			WSign: wk.TrackWSign&0x8000 != 0,
			Value: wk.Value,
		}
	}
	return keys, nil
}

// SaveSkeleton writes s into w: joint count, parent indices, one
// SoaTransform per SoA group (as 48 packed float32s), then a
// length-prefixed joint name table.
func SaveSkeleton(w io.Writer, s *Skeleton, order binary.ByteOrder) error {
	if err := binary.Write(w, order, uint32(s.numJoints)); err != nil {
		return fmt.Errorf("skelanim: write joint count: %w", err)
	}
	if err := binary.Write(w, order, s.parents); err != nil {
		return fmt.Errorf("skelanim: write joint parents: %w", err)
	}
	for i, t := range s.restPose {
		if err := writeSoaTransform(w, order, t); err != nil {
			return fmt.Errorf("skelanim: write rest pose group %d: %w", i, err)
		}
	}
	names := s.names
	if names == nil {
		names = make([]string, s.numJoints)
	}
	for i, name := range names {
		b := []byte(name)
		if err := binary.Write(w, order, uint32(len(b))); err != nil {
			return fmt.Errorf("skelanim: write joint name length %d: %w", i, err)
		}
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("skelanim: write joint name %d: %w", i, err)
		}
	}
	return nil
}

// LoadSkeleton reads a Skeleton written by SaveSkeleton from r.
func LoadSkeleton(r io.Reader, order binary.ByteOrder, opts ...LoadOption) (*Skeleton, error) {
	o := resolveLoadOptions(opts)
	var numJoints uint32
	if err := binary.Read(r, order, &numJoints); err != nil {
		return nil, fmt.Errorf("skelanim: read joint count: %w", err)
	}
	parents := make([]int16, numJoints)
	if err := binary.Read(r, order, &parents); err != nil {
		return nil, fmt.Errorf("skelanim: read joint parents: %w", err)
	}
	numSoaJoints := NumSoaGroups(int(numJoints))
	restPose := make([]*soa.SoaTransform, numSoaJoints)
	for i := range restPose {
		t, err := readSoaTransform(r, order)
		if err != nil {
			return nil, fmt.Errorf("skelanim: read rest pose group %d: %w", i, err)
		}
		restPose[i] = t
	}
	names := make([]string, numJoints)
	for i := range names {
		var length uint32
		if err := binary.Read(r, order, &length); err != nil {
			return nil, fmt.Errorf("skelanim: read joint name length %d: %w", i, err)
		}
		b := make([]byte, length)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("skelanim: read joint name %d: %w", i, err)
		}
		names[i] = string(b)
	}
	if o.Logger != nil {
		warnOnEmptyNames(o.Logger, names)
		warnOnNonIdentityPadding(o.Logger, restPose, int(numJoints))
	}
	return NewSkeleton(parents, names, restPose)
}

func warnOnEmptyNames(l *slog.Logger, names []string) {
	for _, n := range names {
		if n != "" {
			return
		}
	}
	if len(names) > 0 {
		l.Warn("skelanim: loaded skeleton with an empty joint name table")
	}
}

func warnOnNonIdentityPadding(l *slog.Logger, restPose []*soa.SoaTransform, numJoints int) {
	identity := (&soa.SoaTransform{}).SetIdentity()
	for group, joints := 0, 0; group < len(restPose); group++ {
		for lane := 0; lane < 4; lane++ {
			if joints >= numJoints && !paddingLaneIsIdentity(restPose[group], identity, lane) {
				l.Warn("skelanim: rest pose padding lane does not decode to identity", "group", group, "lane", lane)
			}
			joints++
		}
	}
}

func paddingLaneIsIdentity(t, identity *soa.SoaTransform, lane int) bool {
	return t.Translation.X[lane] == identity.Translation.X[lane] &&
		t.Translation.Y[lane] == identity.Translation.Y[lane] &&
		t.Translation.Z[lane] == identity.Translation.Z[lane] &&
		t.Rotation.X[lane] == identity.Rotation.X[lane] &&
		t.Rotation.Y[lane] == identity.Rotation.Y[lane] &&
		t.Rotation.Z[lane] == identity.Rotation.Z[lane] &&
		t.Rotation.W[lane] == identity.Rotation.W[lane] &&
		t.Scale.X[lane] == identity.Scale.X[lane] &&
		t.Scale.Y[lane] == identity.Scale.Y[lane] &&
		t.Scale.Z[lane] == identity.Scale.Z[lane]
}

// writeSoaTransform writes one SoA group (translation, rotation, scale,
// four joints each) as 48 packed float32s: three vec3s of four lanes each
// for translation, four lanes for each of the quaternion's xyzw, then
// three vec3s of four lanes each for scale.
func writeSoaTransform(w io.Writer, order binary.ByteOrder, t *soa.SoaTransform) error {
	var buf [48]float32
	lane4 := func(l soa.Lane4, out []float32) {
		for i := 0; i < 4; i++ {
			out[i] = float32(l[i])
		}
	}
	lane4(t.Translation.X, buf[0:4])
	lane4(t.Translation.Y, buf[4:8])
	lane4(t.Translation.Z, buf[8:12])
	lane4(t.Rotation.X, buf[12:16])
	lane4(t.Rotation.Y, buf[16:20])
	lane4(t.Rotation.Z, buf[20:24])
	lane4(t.Rotation.W, buf[24:28])
	lane4(t.Scale.X, buf[28:32])
	lane4(t.Scale.Y, buf[32:36])
	lane4(t.Scale.Z, buf[36:40])
	// Lanes 40:48 are reserved padding, kept zero, so every group is a
	// fixed 192-byte record regardless of future field growth.
	return binary.Write(w, order, buf)
}

func readSoaTransform(r io.Reader, order binary.ByteOrder) (*soa.SoaTransform, error) {
	var buf [48]float32
	if err := binary.Read(r, order, &buf); err != nil {
		return nil, err
	}
	toLane := func(in []float32) soa.Lane4 {
		l := soa.Lane4{}
		for i := 0; i < 4; i++ {
			l[i] = float64(in[i])
		}
		return l
	}
	t := &soa.SoaTransform{}
	t.Translation.X = toLane(buf[0:4])
	t.Translation.Y = toLane(buf[4:8])
	t.Translation.Z = toLane(buf[8:12])
	t.Rotation.X = toLane(buf[12:16])
	t.Rotation.Y = toLane(buf[16:20])
	t.Rotation.Z = toLane(buf[20:24])
	t.Rotation.W = toLane(buf[24:28])
	t.Scale.X = toLane(buf[28:32])
	t.Scale.Y = toLane(buf[32:36])
	t.Scale.Z = toLane(buf[36:40])
	return t, nil
}
