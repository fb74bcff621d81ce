// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"fmt"

	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

// FeatureKind distinguishes how a raw feature is laid out in the record.
type FeatureKind int

const (
	// FixedLen features decode to exactly Shape.NumElements values.
	FixedLen FeatureKind = iota

	// VarLen features decode to a rank-1 tensor of whatever length the
	// record carries, possibly zero.
	VarLen
)

func (k FeatureKind) String() string {
	switch k {
	case FixedLen:
		return "fixed-len"
	case VarLen:
		return "var-len"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FeatureSpec describes one raw field an extractor needs from the record.
type FeatureSpec struct {
	Kind  FeatureKind
	DType types.DataType

	// Shape is the decoded shape of a FixedLen feature. Ignored for VarLen.
	Shape types.Shape

	// Default, when set on a FixedLen feature, is used when the record
	// omits the field. A FixedLen feature with no default is required.
	Default *tensor.Tensor
}

// Equal reports whether two specs declare the same decoding. Defaults must
// match too: two extractors sharing a field name must agree on what a
// missing value decodes to.
func (s FeatureSpec) Equal(other FeatureSpec) bool {
	if s.Kind != other.Kind || s.DType != other.DType {
		return false
	}
	if s.Kind == FixedLen && !s.Shape.Equal(other.Shape) {
		return false
	}
	if (s.Default == nil) != (other.Default == nil) {
		return false
	}
	if s.Default != nil && !s.Default.Equal(other.Default) {
		return false
	}
	return true
}

func (s FeatureSpec) String() string {
	if s.Kind == FixedLen {
		return fmt.Sprintf("%s %s %s", s.Kind, s.DType, s.Shape)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.DType)
}

// FixedLenFeature declares a required fixed-length raw field.
func FixedLenFeature(dtype types.DataType, shape types.Shape) FeatureSpec {
	return FeatureSpec{Kind: FixedLen, DType: dtype, Shape: shape}
}

// VarLenFeature declares a variable-length raw field.
func VarLenFeature(dtype types.DataType) FeatureSpec {
	return FeatureSpec{Kind: VarLen, DType: dtype}
}

// FeatureMap is an extractor's raw-field requirements, keyed by the raw
// feature name in the record. Names are global across all composed
// extractors.
type FeatureMap map[string]FeatureSpec

// CollisionError reports two extractors declaring the same raw field name
// with incompatible specs. It surfaces at composition time, before any
// record is decoded.
type CollisionError struct {
	Field string
	A, B  FeatureSpec
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("raw field %q declared twice with incompatible specs: %s vs. %s", e.Field, e.A, e.B)
}

// Merge combines the feature maps of composed extractors into one decode
// schema. Identical redeclarations collapse; incompatible ones fail.
func Merge(maps ...FeatureMap) (FeatureMap, error) {
	merged := FeatureMap{}
	for _, m := range maps {
		for name, spec := range m {
			if prev, ok := merged[name]; ok {
				if !prev.Equal(spec) {
					return nil, &CollisionError{Field: name, A: prev, B: spec}
				}
				continue
			}
			merged[name] = spec
		}
	}
	return merged, nil
}
