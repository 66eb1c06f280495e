// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package skelanim

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gazed/skelanim/lin"
)

// rig_manifest.go lets an application name IK chains by joint name in a
// YAML document instead of hardcoding skeleton-specific joint indices,
// mirroring how load/mtl.go and load/shd.go describe engine assets
// declaratively rather than as raw indices into engine tables.

// twoBoneChainDecl is the YAML shape of one two-bone chain declaration.
type twoBoneChainDecl struct {
	Name    string     `yaml:"name"`
	Start   string     `yaml:"start"`
	Mid     string     `yaml:"mid"`
	End     string     `yaml:"end"`
	MidAxis [3]float64 `yaml:"mid_axis"`
}

// aimChainDecl is the YAML shape of one aim chain declaration.
type aimChainDecl struct {
	Name    string     `yaml:"name"`
	Joint   string     `yaml:"joint"`
	Forward [3]float64 `yaml:"forward"`
	Offset  [3]float64 `yaml:"offset"`
	Up      [3]float64 `yaml:"up"`
}

// RigManifest names two-bone and aim IK chains by joint name. It is decoded
// from YAML and resolved against a specific Skeleton to produce ready-to-
// fill job templates.
type RigManifest struct {
	TwoBone []twoBoneChainDecl `yaml:"twobone"`
	Aim     []aimChainDecl     `yaml:"aim"`
}

// NamedTwoBoneChain is a TwoBoneIKJob's static inputs, resolved from joint
// names to joint indices against a particular Skeleton.
type NamedTwoBoneChain struct {
	Name                           string
	StartJoint, MidJoint, EndJoint int
	MidAxis                        *lin.V3
}

// NamedAimChain is an AimIKJob's static inputs, resolved from joint names
// to a joint index against a particular Skeleton.
type NamedAimChain struct {
	Name    string
	Joint   int
	Forward *lin.V3
	Offset  *lin.V3
	Up      *lin.V3
}

// ParseRigManifest decodes a RigManifest from r.
func ParseRigManifest(r io.Reader) (*RigManifest, error) {
	m := &RigManifest{}
	if err := yaml.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("skelanim: parse rig manifest: %w", err)
	}
	return m, nil
}

// Resolve looks up every chain's joint names against s and returns the
// resolved chains, or an error naming the first joint that isn't found.
func (m *RigManifest) Resolve(s *Skeleton) ([]NamedTwoBoneChain, []NamedAimChain, error) {
	index, err := jointIndexByName(s)
	if err != nil {
		return nil, nil, err
	}

	twoBone := make([]NamedTwoBoneChain, 0, len(m.TwoBone))
	for _, decl := range m.TwoBone {
		start, err := lookupJoint(index, decl.Start)
		if err != nil {
			return nil, nil, fmt.Errorf("skelanim: rig manifest chain %q: %w", decl.Name, err)
		}
		mid, err := lookupJoint(index, decl.Mid)
		if err != nil {
			return nil, nil, fmt.Errorf("skelanim: rig manifest chain %q: %w", decl.Name, err)
		}
		end, err := lookupJoint(index, decl.End)
		if err != nil {
			return nil, nil, fmt.Errorf("skelanim: rig manifest chain %q: %w", decl.Name, err)
		}
		twoBone = append(twoBone, NamedTwoBoneChain{
			Name:       decl.Name,
			StartJoint: start,
			MidJoint:   mid,
			EndJoint:   end,
			MidAxis:    &lin.V3{X: decl.MidAxis[0], Y: decl.MidAxis[1], Z: decl.MidAxis[2]},
		})
	}

	aim := make([]NamedAimChain, 0, len(m.Aim))
	for _, decl := range m.Aim {
		joint, err := lookupJoint(index, decl.Joint)
		if err != nil {
			return nil, nil, fmt.Errorf("skelanim: rig manifest chain %q: %w", decl.Name, err)
		}
		aim = append(aim, NamedAimChain{
			Name:    decl.Name,
			Joint:   joint,
			Forward: &lin.V3{X: decl.Forward[0], Y: decl.Forward[1], Z: decl.Forward[2]},
			Offset:  &lin.V3{X: decl.Offset[0], Y: decl.Offset[1], Z: decl.Offset[2]},
			Up:      &lin.V3{X: decl.Up[0], Y: decl.Up[1], Z: decl.Up[2]},
		})
	}
	return twoBone, aim, nil
}

func jointIndexByName(s *Skeleton) (map[string]int, error) {
	index := make(map[string]int, s.NumJoints())
	for i := 0; i < s.NumJoints(); i++ {
		name := s.Name(i)
		if name == "" {
			continue
		}
		index[name] = i
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("skelanim: skeleton carries no joint names to resolve against")
	}
	return index, nil
}

func lookupJoint(index map[string]int, name string) (int, error) {
	i, ok := index[name]
	if !ok {
		return 0, fmt.Errorf("joint %q not found in skeleton", name)
	}
	return i, nil
}
