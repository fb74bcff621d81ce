// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tensor provides an opaque N-dimensional typed value with a static
// shape. It carries decoded record fields and extractor outputs; it does no
// arithmetic.
package tensor

import (
	"fmt"

	"github.com/pdiddy/extraction-engine/pkg/types"
)

// Tensor is an immutable typed value with a static shape. Exactly one of the
// backing slices is populated, chosen by the element type's storage family:
// floats for DTFloat32/DTFloat64, ints for DTInt32/DTInt64.
type Tensor struct {
	dtype types.DataType
	shape types.Shape

	floats  []float64
	ints    []int64
	strings []string
	bools   []bool
}

func checkLen(shape types.Shape, n int) error {
	if !shape.FullyDefined() {
		return fmt.Errorf("tensor shape %s is not fully defined", shape)
	}
	if want := shape.NumElements(); want != n {
		return fmt.Errorf("shape %s holds %d elements, got %d values", shape, want, n)
	}
	return nil
}

func cloneShape(shape types.Shape) types.Shape {
	return append(types.Shape(nil), shape...)
}

// NewFloat32 builds a float32 tensor from values in row-major order.
func NewFloat32(shape types.Shape, values []float64) (*Tensor, error) {
	if err := checkLen(shape, len(values)); err != nil {
		return nil, err
	}
	return &Tensor{dtype: types.DTFloat32, shape: cloneShape(shape), floats: append([]float64(nil), values...)}, nil
}

// NewFloat64 builds a float64 tensor from values in row-major order.
func NewFloat64(shape types.Shape, values []float64) (*Tensor, error) {
	if err := checkLen(shape, len(values)); err != nil {
		return nil, err
	}
	return &Tensor{dtype: types.DTFloat64, shape: cloneShape(shape), floats: append([]float64(nil), values...)}, nil
}

// NewInt32 builds an int32 tensor from values in row-major order.
func NewInt32(shape types.Shape, values []int64) (*Tensor, error) {
	if err := checkLen(shape, len(values)); err != nil {
		return nil, err
	}
	return &Tensor{dtype: types.DTInt32, shape: cloneShape(shape), ints: append([]int64(nil), values...)}, nil
}

// NewInt64 builds an int64 tensor from values in row-major order.
func NewInt64(shape types.Shape, values []int64) (*Tensor, error) {
	if err := checkLen(shape, len(values)); err != nil {
		return nil, err
	}
	return &Tensor{dtype: types.DTInt64, shape: cloneShape(shape), ints: append([]int64(nil), values...)}, nil
}

// NewString builds a string tensor from values in row-major order.
func NewString(shape types.Shape, values []string) (*Tensor, error) {
	if err := checkLen(shape, len(values)); err != nil {
		return nil, err
	}
	return &Tensor{dtype: types.DTString, shape: cloneShape(shape), strings: append([]string(nil), values...)}, nil
}

// NewBool builds a bool tensor from values in row-major order.
func NewBool(shape types.Shape, values []bool) (*Tensor, error) {
	if err := checkLen(shape, len(values)); err != nil {
		return nil, err
	}
	return &Tensor{dtype: types.DTBool, shape: cloneShape(shape), bools: append([]bool(nil), values...)}, nil
}

// Filled builds a tensor of the given numeric dtype and shape with every
// element set to value.
func Filled(dtype types.DataType, shape types.Shape, value float64) (*Tensor, error) {
	n := shape.NumElements()
	if n == types.UnknownDim {
		return nil, fmt.Errorf("cannot fill tensor with unknown shape %s", shape)
	}
	switch dtype {
	case types.DTFloat32, types.DTFloat64:
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = value
		}
		return &Tensor{dtype: dtype, shape: cloneShape(shape), floats: vals}, nil
	case types.DTInt32, types.DTInt64:
		vals := make([]int64, n)
		for i := range vals {
			vals[i] = int64(value)
		}
		return &Tensor{dtype: dtype, shape: cloneShape(shape), ints: vals}, nil
	default:
		return nil, fmt.Errorf("cannot fill tensor of type %s", dtype)
	}
}

// DType returns the element type.
func (t *Tensor) DType() types.DataType { return t.dtype }

// Shape returns the static shape. Callers must not mutate it.
func (t *Tensor) Shape() types.Shape { return t.shape }

// Len returns the total element count.
func (t *Tensor) Len() int {
	switch t.dtype {
	case types.DTFloat32, types.DTFloat64:
		return len(t.floats)
	case types.DTInt32, types.DTInt64:
		return len(t.ints)
	case types.DTString:
		return len(t.strings)
	case types.DTBool:
		return len(t.bools)
	}
	return 0
}

// Floats returns the float backing slice, row-major. Valid for float dtypes
// only; callers must not mutate it.
func (t *Tensor) Floats() []float64 { return t.floats }

// Ints returns the integer backing slice, row-major. Valid for int dtypes
// only; callers must not mutate it.
func (t *Tensor) Ints() []int64 { return t.ints }

// Strings returns the string backing slice, row-major.
func (t *Tensor) Strings() []string { return t.strings }

// Bools returns the bool backing slice, row-major.
func (t *Tensor) Bools() []bool { return t.bools }

// Equal reports whether two tensors have the same dtype, shape, and values.
func (t *Tensor) Equal(other *Tensor) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.dtype != other.dtype || !t.shape.Equal(other.shape) {
		return false
	}
	switch t.dtype {
	case types.DTFloat32, types.DTFloat64:
		return sliceEqual(t.floats, other.floats)
	case types.DTInt32, types.DTInt64:
		return sliceEqual(t.ints, other.ints)
	case types.DTString:
		return sliceEqual(t.strings, other.strings)
	case types.DTBool:
		return sliceEqual(t.bools, other.bools)
	}
	return false
}

func sliceEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Tensor) String() string {
	return fmt.Sprintf("tensor<%s %s>", t.dtype, t.shape)
}
