// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record decodes serialized records against a merged feature map,
// producing the raw field dictionary shared by all extractors. A record is
// one JSON object; declared fields are pulled out, type-checked, and turned
// into tensors. Undeclared fields in the record are ignored.
package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/extraction-engine/pkg/extractor"
	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

// Decode parses one serialized record against the feature map. Fixed-length
// features must decode to exactly their declared element count; missing ones
// fall back to their default or fail. Variable-length features decode to a
// rank-1 tensor of the actual length, empty when the field is absent.
func Decode(fm extractor.FeatureMap, data []byte) (extractor.RawFields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	raw := make(extractor.RawFields, len(fm))
	for name, spec := range fm {
		val, ok := doc[name]
		if !ok {
			t, err := missingValue(name, spec)
			if err != nil {
				return nil, err
			}
			raw[name] = t
			continue
		}

		t, err := decodeValue(name, spec, val)
		if err != nil {
			return nil, err
		}
		raw[name] = t
	}
	return raw, nil
}

func missingValue(name string, spec extractor.FeatureSpec) (*tensor.Tensor, error) {
	if spec.Kind == extractor.FixedLen {
		if spec.Default == nil {
			return nil, fmt.Errorf("field %s: required fixed-length field missing", name)
		}
		return spec.Default, nil
	}
	return emptyTensor(spec.DType)
}

func emptyTensor(dtype types.DataType) (*tensor.Tensor, error) {
	empty := types.Shape{0}
	switch dtype {
	case types.DTFloat32:
		return tensor.NewFloat32(empty, nil)
	case types.DTFloat64:
		return tensor.NewFloat64(empty, nil)
	case types.DTInt32:
		return tensor.NewInt32(empty, nil)
	case types.DTInt64:
		return tensor.NewInt64(empty, nil)
	case types.DTString:
		return tensor.NewString(empty, nil)
	case types.DTBool:
		return tensor.NewBool(empty, nil)
	}
	return nil, fmt.Errorf("unsupported data type %s", dtype)
}

func decodeValue(name string, spec extractor.FeatureSpec, val any) (*tensor.Tensor, error) {
	flat := flatten(val)

	shape := types.Shape{len(flat)}
	if spec.Kind == extractor.FixedLen {
		if want := spec.Shape.NumElements(); want != len(flat) {
			return nil, fmt.Errorf("field %s: expected %d values for shape %s, got %d",
				name, want, spec.Shape, len(flat))
		}
		shape = spec.Shape
	}

	switch spec.DType {
	case types.DTFloat32, types.DTFloat64:
		vals, err := toFloats(flat)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		if spec.DType == types.DTFloat32 {
			return tensor.NewFloat32(shape, vals)
		}
		return tensor.NewFloat64(shape, vals)
	case types.DTInt32, types.DTInt64:
		vals, err := toInts(flat)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		if spec.DType == types.DTInt32 {
			return tensor.NewInt32(shape, vals)
		}
		return tensor.NewInt64(shape, vals)
	case types.DTString:
		vals, err := toStrings(flat)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		return tensor.NewString(shape, vals)
	case types.DTBool:
		vals, err := toBools(flat)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		return tensor.NewBool(shape, vals)
	}
	return nil, fmt.Errorf("field %s: unsupported data type %s", name, spec.DType)
}

// flatten turns a scalar or arbitrarily nested JSON array into a flat
// row-major element list.
func flatten(val any) []any {
	arr, ok := val.([]any)
	if !ok {
		return []any{val}
	}
	var out []any
	for _, item := range arr {
		out = append(out, flatten(item)...)
	}
	return out
}

func toFloats(vals []any) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		num, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("element %d: expected number, got %T", i, v)
		}
		f, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

func toInts(vals []any) ([]int64, error) {
	out := make([]int64, len(vals))
	for i, v := range vals {
		num, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("element %d: expected integer, got %T", i, v)
		}
		n, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func toStrings(vals []any) ([]string, error) {
	out := make([]string, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("element %d: expected string, got %T", i, v)
		}
		out[i] = s
	}
	return out, nil
}

func toBools(vals []any) ([]bool, error) {
	out := make([]bool, len(vals))
	for i, v := range vals {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("element %d: expected bool, got %T", i, v)
		}
		out[i] = b
	}
	return out, nil
}

// DecodeError reports a single malformed record. Stream-level read errors
// are returned unwrapped, so callers can fail one record without aborting
// the whole stream.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Reader streams JSONL records from r, decoding each line against the
// feature map. Blank lines are skipped.
type Reader struct {
	fm   extractor.FeatureMap
	sc   *bufio.Scanner
	line int
}

// NewReader builds a Reader over r. Lines up to 16 MiB are accepted.
func NewReader(fm extractor.FeatureMap, r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{fm: fm, sc: sc}
}

// Next decodes the next record, returning io.EOF when the input is
// exhausted.
func (r *Reader) Next() (extractor.RawFields, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}
		raw, err := Decode(r.fm, []byte(text))
		if err != nil {
			return nil, &DecodeError{Line: r.line, Err: err}
		}
		return raw, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Line returns the line number of the most recently read record.
func (r *Reader) Line() int { return r.line }
