// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package laser extracts laser point-cloud fields from decoded records.
package laser

import (
	"fmt"

	"github.com/pdiddy/extraction-engine/pkg/extractor"
	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

// Raw feature names consumed from the record.
const (
	FeaturePointsXYZ     = "laser.points_xyz"
	FeaturePointsFeature = "laser.points_feature"
)

// Output field names.
const (
	OutPointsXYZ     = "points_xyz"
	OutPointsFeature = "points_feature"
	OutPointsPadding = "points_padding"
)

// Extractor produces per-point laser outputs:
//
//	points_xyz     [max_num_points, 3]            XYZ coordinates.
//	points_feature [max_num_points, num_features] per-point features.
//	points_padding [max_num_points]               0 = real point, 1 = padded
//	               slot. Present only when MaxNumPoints is set.
//
// With MaxNumPoints unset the first dimension is the actual point count and
// no padding field exists. Examples with zero real points are dropped by
// Filter.
type Extractor struct {
	extractor.Base

	name string
	cfg  types.LaserConfig
}

// New validates the configuration and builds the extractor. The
// configuration is fixed for the extractor's lifetime.
func New(name string, cfg types.LaserConfig) (*Extractor, error) {
	if name == "" {
		name = "laser"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{name: name, cfg: cfg}, nil
}

func (e *Extractor) Name() string { return e.name }

// FeatureMap declares the flattened point fields: xyz triples and
// num_features values per point, both variable-length.
func (e *Extractor) FeatureMap() extractor.FeatureMap {
	return extractor.FeatureMap{
		FeaturePointsXYZ:     extractor.VarLenFeature(types.DTFloat32),
		FeaturePointsFeature: extractor.VarLenFeature(types.DTFloat32),
	}
}

func (e *Extractor) maxDim() int {
	if e.cfg.MaxNumPoints == nil {
		return types.UnknownDim
	}
	return *e.cfg.MaxNumPoints
}

// Shape declares the output contract. points_padding appears iff
// MaxNumPoints is set; DType and Extract apply the same condition.
func (e *Extractor) Shape() (types.ShapeMap, error) {
	max := e.maxDim()
	ret := types.ShapeMap{
		OutPointsXYZ:     types.Shape{max, 3},
		OutPointsFeature: types.Shape{max, e.cfg.NumFeatures},
	}
	if e.cfg.MaxNumPoints != nil {
		ret[OutPointsPadding] = types.Shape{max}
	}
	return ret, nil
}

func (e *Extractor) DType() (types.DTypeMap, error) {
	ret := types.DTypeMap{
		OutPointsXYZ:     types.DTFloat32,
		OutPointsFeature: types.DTFloat32,
	}
	if e.cfg.MaxNumPoints != nil {
		ret[OutPointsPadding] = types.DTFloat32
	}
	return ret, nil
}

// Extract reshapes the flattened point fields to per-point rows and, when
// MaxNumPoints is set, pads or crops to exactly that many rows.
func (e *Extractor) Extract(raw extractor.RawFields) (extractor.Output, error) {
	xyz, err := rawFloats(raw, FeaturePointsXYZ)
	if err != nil {
		return nil, err
	}
	feat, err := rawFloats(raw, FeaturePointsFeature)
	if err != nil {
		return nil, err
	}

	if len(xyz)%3 != 0 {
		return nil, fmt.Errorf("field %s: %d values is not a multiple of 3", FeaturePointsXYZ, len(xyz))
	}
	nf := e.cfg.NumFeatures
	if len(feat)%nf != 0 {
		return nil, fmt.Errorf("field %s: %d values is not a multiple of %d", FeaturePointsFeature, len(feat), nf)
	}

	n := len(xyz) / 3
	if got := len(feat) / nf; got != n {
		return nil, fmt.Errorf("point count mismatch: %d xyz points vs. %d feature points", n, got)
	}

	if e.cfg.MaxNumPoints == nil {
		return buildUnpadded(n, nf, xyz, feat)
	}
	return buildPadded(n, *e.cfg.MaxNumPoints, nf, xyz, feat)
}

func buildUnpadded(n, nf int, xyz, feat []float64) (extractor.Output, error) {
	xyzT, err := tensor.NewFloat32(types.Shape{n, 3}, xyz)
	if err != nil {
		return nil, err
	}
	featT, err := tensor.NewFloat32(types.Shape{n, nf}, feat)
	if err != nil {
		return nil, err
	}
	return extractor.Output{
		OutPointsXYZ:     xyzT,
		OutPointsFeature: featT,
	}, nil
}

func buildPadded(n, max, nf int, xyz, feat []float64) (extractor.Output, error) {
	kept := n
	if kept > max {
		kept = max
	}

	xyzVals := padOrCrop(xyz, kept*3, max*3)
	featVals := padOrCrop(feat, kept*nf, max*nf)

	padding := make([]float64, max)
	for i := kept; i < max; i++ {
		padding[i] = 1
	}

	xyzT, err := tensor.NewFloat32(types.Shape{max, 3}, xyzVals)
	if err != nil {
		return nil, err
	}
	featT, err := tensor.NewFloat32(types.Shape{max, nf}, featVals)
	if err != nil {
		return nil, err
	}
	padT, err := tensor.NewFloat32(types.Shape{max}, padding)
	if err != nil {
		return nil, err
	}
	return extractor.Output{
		OutPointsXYZ:     xyzT,
		OutPointsFeature: featT,
		OutPointsPadding: padT,
	}, nil
}

// padOrCrop keeps the first keep values and zero-fills up to total.
func padOrCrop(vals []float64, keep, total int) []float64 {
	out := make([]float64, total)
	copy(out, vals[:keep])
	return out
}

// Filter drops examples with zero real points.
func (e *Extractor) Filter(out extractor.Output) types.BucketID {
	if realPoints(out) == 0 {
		return types.BucketUpperBound
	}
	return types.BucketKeep
}

func realPoints(out extractor.Output) int {
	if pad, ok := out[OutPointsPadding]; ok {
		n := 0
		for _, v := range pad.Floats() {
			if v == 0 {
				n++
			}
		}
		return n
	}
	if xyz, ok := out[OutPointsXYZ]; ok {
		return xyz.Shape()[0]
	}
	return 0
}

func rawFloats(raw extractor.RawFields, name string) ([]float64, error) {
	t, ok := raw[name]
	if !ok {
		return nil, fmt.Errorf("raw field %s missing from decoded record", name)
	}
	if t.DType() != types.DTFloat32 {
		return nil, fmt.Errorf("raw field %s: expected float32, got %s", name, t.DType())
	}
	return t.Floats(), nil
}
