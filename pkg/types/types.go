// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared value types of the extraction pipeline:
// element types, static shapes, bucket ids, and per-extractor configuration.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// DataType identifies the element type of a tensor or raw feature.
type DataType int

const (
	DTInvalid DataType = iota
	DTFloat32
	DTFloat64
	DTInt32
	DTInt64
	DTString
	DTBool
)

var dtypeNames = map[DataType]string{
	DTFloat32: "float32",
	DTFloat64: "float64",
	DTInt32:   "int32",
	DTInt64:   "int64",
	DTString:  "string",
	DTBool:    "bool",
}

func (d DataType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("invalid(%d)", int(d))
}

// ParseDataType maps a config spelling ("float32", "int64", ...) to a DataType.
func ParseDataType(s string) (DataType, error) {
	for d, name := range dtypeNames {
		if name == s {
			return d, nil
		}
	}
	return DTInvalid, fmt.Errorf("unknown data type %q", s)
}

// UnknownDim marks a shape dimension whose size is not statically known.
const UnknownDim = -1

// Shape is a static tensor shape, batch dimension excluded. A dimension of
// UnknownDim matches any size.
type Shape []int

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		if d == UnknownDim {
			parts[i] = "?"
		} else {
			parts[i] = strconv.Itoa(d)
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Equal reports whether two shapes have identical rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// FullyDefined reports whether every dimension is known.
func (s Shape) FullyDefined() bool {
	for _, d := range s {
		if d == UnknownDim {
			return false
		}
	}
	return true
}

// Subsumes reports whether a tensor of shape other satisfies this declared
// shape: same rank, and each dimension either equal or unknown here.
func (s Shape) Subsumes(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != UnknownDim && s[i] != other[i] {
			return false
		}
	}
	return true
}

// NumElements returns the element count of a fully defined shape, or
// UnknownDim if any dimension is unknown. A rank-0 shape has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		if d == UnknownDim {
			return UnknownDim
		}
		n *= d
	}
	return n
}

// ShapeMap is an extractor's declared output-name → static-shape contract.
type ShapeMap map[string]Shape

// DTypeMap is an extractor's declared output-name → element-type contract.
type DTypeMap map[string]DataType

// BucketID is the per-example decision signal emitted by Filter.
type BucketID int

const (
	// BucketKeep passes the example through unchanged.
	BucketKeep BucketID = 1

	// BucketUpperBound drops the example. Values strictly between BucketKeep
	// and BucketUpperBound are reserved for downstream bucketing policies.
	BucketUpperBound BucketID = 9999
)

// Dropped reports whether the bucket id signals dropping the example.
func (b BucketID) Dropped() bool {
	return b >= BucketUpperBound
}

// Valid reports whether the bucket id is in the legal [1, BucketUpperBound]
// range.
func (b BucketID) Valid() bool {
	return b >= BucketKeep && b <= BucketUpperBound
}
