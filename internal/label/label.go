// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package label extracts per-object classification labels and bounding
// boxes from decoded records.
package label

import (
	"fmt"

	"github.com/pdiddy/extraction-engine/pkg/extractor"
	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

// Raw feature names consumed from the record.
const (
	FeatureClasses = "label.classes"
	FeatureBoxes   = "label.boxes"
)

// Output field names.
const (
	OutLabels     = "labels"
	OutBoxes      = "boxes"
	OutLabelsMask = "labels_mask"
)

// Extractor produces fixed-size per-object outputs:
//
//	labels      [max_num_objects]                 class ids, 0-filled.
//	boxes       [max_num_objects, num_box_params] box parameters, 0-filled.
//	labels_mask [max_num_objects]                 1 = real object, 0 = empty
//	            slot.
//
// Objects beyond max_num_objects are cropped. Filter keeps the default:
// every example passes, including ones with no objects.
type Extractor struct {
	extractor.Base

	name string
	cfg  types.LabelConfig
}

// New validates the configuration and builds the extractor.
func New(name string, cfg types.LabelConfig) (*Extractor, error) {
	if name == "" {
		name = "label"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{name: name, cfg: cfg}, nil
}

func (e *Extractor) Name() string { return e.name }

func (e *Extractor) FeatureMap() extractor.FeatureMap {
	return extractor.FeatureMap{
		FeatureClasses: extractor.VarLenFeature(types.DTInt64),
		FeatureBoxes:   extractor.VarLenFeature(types.DTFloat32),
	}
}

func (e *Extractor) Shape() (types.ShapeMap, error) {
	max := e.cfg.MaxNumObjects
	return types.ShapeMap{
		OutLabels:     types.Shape{max},
		OutBoxes:      types.Shape{max, e.cfg.NumBoxParams},
		OutLabelsMask: types.Shape{max},
	}, nil
}

func (e *Extractor) DType() (types.DTypeMap, error) {
	return types.DTypeMap{
		OutLabels:     types.DTInt32,
		OutBoxes:      types.DTFloat32,
		OutLabelsMask: types.DTFloat32,
	}, nil
}

// Extract reshapes the flattened object fields into fixed-size rows with a
// validity mask.
func (e *Extractor) Extract(raw extractor.RawFields) (extractor.Output, error) {
	classesT, ok := raw[FeatureClasses]
	if !ok {
		return nil, fmt.Errorf("raw field %s missing from decoded record", FeatureClasses)
	}
	boxesT, ok := raw[FeatureBoxes]
	if !ok {
		return nil, fmt.Errorf("raw field %s missing from decoded record", FeatureBoxes)
	}

	classes := classesT.Ints()
	boxes := boxesT.Floats()

	np := e.cfg.NumBoxParams
	if len(boxes)%np != 0 {
		return nil, fmt.Errorf("field %s: %d values is not a multiple of %d", FeatureBoxes, len(boxes), np)
	}
	if got := len(boxes) / np; got != len(classes) {
		return nil, fmt.Errorf("object count mismatch: %d classes vs. %d boxes", len(classes), got)
	}

	max := e.cfg.MaxNumObjects
	kept := len(classes)
	if kept > max {
		kept = max
	}

	labelVals := make([]int64, max)
	copy(labelVals, classes[:kept])

	boxVals := make([]float64, max*np)
	copy(boxVals, boxes[:kept*np])

	maskVals := make([]float64, max)
	for i := 0; i < kept; i++ {
		maskVals[i] = 1
	}

	labelsT, err := tensor.NewInt32(types.Shape{max}, labelVals)
	if err != nil {
		return nil, err
	}
	outBoxesT, err := tensor.NewFloat32(types.Shape{max, np}, boxVals)
	if err != nil {
		return nil, err
	}
	maskT, err := tensor.NewFloat32(types.Shape{max}, maskVals)
	if err != nil {
		return nil, err
	}
	return extractor.Output{
		OutLabels:     labelsT,
		OutBoxes:      outBoxesT,
		OutLabelsMask: maskT,
	}, nil
}
