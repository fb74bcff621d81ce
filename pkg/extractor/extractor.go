// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extractor defines the contract for pulling named, typed,
// statically-shaped fields out of decoded records.
//
// An extractor declares the raw fields it needs (FeatureMap), transforms a
// shared decoded record into named tensors (Extract), declares the static
// shape and element type of every output (Shape, DType), and decides
// per example whether to keep or drop (Filter). Many extractors share one
// decode pass: a composer merges their feature maps, decodes once, and then
// runs each extractor independently over the same read-only RawFields.
//
// Run is the validating entry point. It checks every output against the
// extractor's declared contract on every call; composers must go through it
// rather than calling Extract directly.
package extractor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

// RawFields is the decoded record shared read-only by all extractors during
// one decode pass. Keys are raw feature names; variable-length features
// appear as rank-1 tensors of their actual length.
type RawFields map[string]*tensor.Tensor

// Output is one extractor's named result for a single example. Iteration
// order is not defined; callers needing a stable order must sort the keys.
type Output map[string]*tensor.Tensor

// FieldNames returns the output's field names in sorted order.
func (o Output) FieldNames() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extractor is the capability contract every concrete extractor satisfies.
// FeatureMap, Shape, and DType are pure functions of construction-time
// configuration; Extract and Filter are pure functions of their arguments.
// All methods are safe to call concurrently across examples.
type Extractor interface {
	// Name returns the instance name; it becomes the extractor's output
	// namespace when composed.
	Name() string

	// FeatureMap returns the raw fields this extractor needs decoded. An
	// empty map is valid for sources that need no structured decode.
	FeatureMap() FeatureMap

	// Shape declares the static shape of every output field, batch
	// dimension excluded.
	Shape() (types.ShapeMap, error)

	// DType declares the element type of every output field. Its key set
	// must equal Shape's.
	DType() (types.DTypeMap, error)

	// Extract transforms the shared decoded record into this extractor's
	// named outputs. It must not mutate raw. Callers use Run, which
	// validates the result against Shape and DType.
	Extract(raw RawFields) (Output, error)

	// Filter maps one example's output to a bucket id: BucketKeep to pass,
	// BucketUpperBound to drop, intermediate values for custom bucketing.
	Filter(out Output) types.BucketID
}

// ErrNotImplemented signals that a required method was not supplied by a
// concrete extractor. It is a programming error, not a data error.
var ErrNotImplemented = errors.New("not implemented")

// Base supplies the optional defaults of the Extractor contract: an empty
// feature map and a keep-everything filter. The required methods (Extract,
// Shape, DType) fail with ErrNotImplemented until overridden by the
// embedding type.
type Base struct{}

// FeatureMap returns an empty map; extractors whose source needs no
// structured decode can leave this default in place.
func (Base) FeatureMap() FeatureMap { return FeatureMap{} }

// Filter keeps every example.
func (Base) Filter(Output) types.BucketID { return types.BucketKeep }

// Shape must be overridden by every concrete extractor.
func (Base) Shape() (types.ShapeMap, error) {
	return nil, fmt.Errorf("Shape: %w", ErrNotImplemented)
}

// DType must be overridden by every concrete extractor.
func (Base) DType() (types.DTypeMap, error) {
	return nil, fmt.Errorf("DType: %w", ErrNotImplemented)
}

// Extract must be overridden by every concrete extractor.
func (Base) Extract(RawFields) (Output, error) {
	return nil, fmt.Errorf("Extract: %w", ErrNotImplemented)
}

// ContractError reports an extractor whose output did not match its declared
// shape/type contract. It renders both structures for diagnosis.
type ContractError struct {
	Extractor string
	Reason    string
	Got       string
	Declared  string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("extractor %s: output violates declared contract (%s): got %s, declared %s",
		e.Extractor, e.Reason, e.Got, e.Declared)
}

// Run is the validating entry point for one extractor over one decoded
// record. It calls Extract and checks the result against the declared
// contract: the output's key set must equal Shape's exactly, each tensor's
// shape must satisfy the declared shape, and each element type must equal
// the declared type. Violations fail fast; nothing is coerced or padded.
func Run(e Extractor, raw RawFields) (Output, error) {
	out, err := e.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("extractor %s: %w", e.Name(), err)
	}

	shapes, err := e.Shape()
	if err != nil {
		return nil, fmt.Errorf("extractor %s: %w", e.Name(), err)
	}
	dtypes, err := e.DType()
	if err != nil {
		return nil, fmt.Errorf("extractor %s: %w", e.Name(), err)
	}

	if !sameKeys(out, shapes) {
		return nil, &ContractError{
			Extractor: e.Name(),
			Reason:    "key sets differ",
			Got:       renderOutput(out),
			Declared:  renderShapes(shapes),
		}
	}

	for name, t := range out {
		if declared := shapes[name]; !declared.Subsumes(t.Shape()) {
			return nil, &ContractError{
				Extractor: e.Name(),
				Reason:    fmt.Sprintf("field %s shape mismatch", name),
				Got:       renderOutput(out),
				Declared:  renderShapes(shapes),
			}
		}
		if dt, ok := dtypes[name]; ok && dt != t.DType() {
			return nil, &ContractError{
				Extractor: e.Name(),
				Reason:    fmt.Sprintf("field %s has type %s, declared %s", name, t.DType(), dt),
				Got:       renderOutput(out),
				Declared:  renderShapes(shapes),
			}
		}
	}

	return out, nil
}

// CheckDeclarations verifies the construction-time consistency of an
// extractor's declarations: Shape and DType resolve, their key sets match,
// and every fixed-length feature spec has a fully defined shape. Composers
// run this once before any record is decoded.
func CheckDeclarations(e Extractor) error {
	shapes, err := e.Shape()
	if err != nil {
		return fmt.Errorf("extractor %s: %w", e.Name(), err)
	}
	dtypes, err := e.DType()
	if err != nil {
		return fmt.Errorf("extractor %s: %w", e.Name(), err)
	}

	if !sameKeys(shapes, dtypes) {
		return &ContractError{
			Extractor: e.Name(),
			Reason:    "Shape and DType key sets differ",
			Got:       renderKeys(keysOf(dtypes)),
			Declared:  renderKeys(keysOf(shapes)),
		}
	}

	for name, spec := range e.FeatureMap() {
		if spec.DType == types.DTInvalid {
			return fmt.Errorf("extractor %s: feature %s has no data type", e.Name(), name)
		}
		if spec.Kind == FixedLen && !spec.Shape.FullyDefined() {
			return fmt.Errorf("extractor %s: fixed-length feature %s has unknown shape %s",
				e.Name(), name, spec.Shape)
		}
	}
	return nil
}

func sameKeys[A, B any](a map[string]A, b map[string]B) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderKeys(keys []string) string {
	return "{" + strings.Join(keys, ", ") + "}"
}

func renderOutput(out Output) string {
	parts := make([]string, 0, len(out))
	for _, name := range out.FieldNames() {
		t := out[name]
		parts = append(parts, fmt.Sprintf("%s: %s %s", name, t.DType(), t.Shape()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func renderShapes(shapes types.ShapeMap) string {
	parts := make([]string, 0, len(shapes))
	for _, name := range keysOf(shapes) {
		parts = append(parts, fmt.Sprintf("%s: %s", name, shapes[name]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
