// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package composer runs several extractors over one shared decode pass.
//
// The composer owns the protocol the extractor contract is written against:
// it merges every extractor's feature map into one decode schema, has the
// record decoded once, then runs each extractor over the shared raw fields
// in a fixed caller-chosen order, collecting outputs under per-extractor
// namespaces and combining the per-extractor bucket ids into one keep/drop
// decision.
package composer

import (
	"fmt"
	"sort"

	"github.com/pdiddy/extraction-engine/internal/label"
	"github.com/pdiddy/extraction-engine/internal/laser"
	"github.com/pdiddy/extraction-engine/pkg/extractor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

// Composer holds an ordered set of extractors with a validated, merged
// decode schema. It is immutable after New and safe for concurrent use.
type Composer struct {
	extractors []extractor.Extractor
	merged     extractor.FeatureMap
}

// New validates and composes the given extractors, preserving their order.
// Instance names must be unique: the name prefixes every output field, so
// unique names keep output namespaces disjoint. Declaration inconsistencies
// and raw-field collisions fail here, before any record is decoded.
func New(extractors ...extractor.Extractor) (*Composer, error) {
	if len(extractors) == 0 {
		return nil, fmt.Errorf("composer needs at least one extractor")
	}

	seen := make(map[string]bool, len(extractors))
	maps := make([]extractor.FeatureMap, 0, len(extractors))
	for _, e := range extractors {
		if seen[e.Name()] {
			return nil, fmt.Errorf("duplicate extractor name %q", e.Name())
		}
		seen[e.Name()] = true

		if err := extractor.CheckDeclarations(e); err != nil {
			return nil, err
		}
		maps = append(maps, e.FeatureMap())
	}

	merged, err := extractor.Merge(maps...)
	if err != nil {
		return nil, err
	}

	return &Composer{extractors: extractors, merged: merged}, nil
}

// FromSpecs builds a composer from configuration, constructing each
// extractor variant in the order the specs list them.
func FromSpecs(specs []types.ExtractorSpec) (*Composer, error) {
	extractors := make([]extractor.Extractor, 0, len(specs))
	for i := range specs {
		spec := &specs[i]
		e, err := build(spec)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, e)
	}
	return New(extractors...)
}

func build(spec *types.ExtractorSpec) (extractor.Extractor, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	switch {
	case spec.Laser != nil:
		return laser.New(spec.Name, *spec.Laser)
	default:
		return label.New(spec.Name, *spec.Label)
	}
}

// FeatureMap returns the merged decode schema of all composed extractors.
func (c *Composer) FeatureMap() extractor.FeatureMap { return c.merged }

// Names returns the extractor instance names in run order.
func (c *Composer) Names() []string {
	names := make([]string, len(c.extractors))
	for i, e := range c.extractors {
		names[i] = e.Name()
	}
	return names
}

// Shape returns the combined output contract, fields prefixed with their
// extractor's name.
func (c *Composer) Shape() (types.ShapeMap, error) {
	combined := types.ShapeMap{}
	for _, e := range c.extractors {
		shapes, err := e.Shape()
		if err != nil {
			return nil, err
		}
		for name, s := range shapes {
			combined[e.Name()+"."+name] = s
		}
	}
	return combined, nil
}

// DType returns the combined element-type contract, fields prefixed with
// their extractor's name.
func (c *Composer) DType() (types.DTypeMap, error) {
	combined := types.DTypeMap{}
	for _, e := range c.extractors {
		dtypes, err := e.DType()
		if err != nil {
			return nil, err
		}
		for name, dt := range dtypes {
			combined[e.Name()+"."+name] = dt
		}
	}
	return combined, nil
}

// FieldNames returns the combined output field names in a stable order:
// extractor run order, fields sorted within each extractor. The output map
// itself has no iteration order; consumers needing one use this.
func (c *Composer) FieldNames() ([]string, error) {
	var names []string
	for _, e := range c.extractors {
		shapes, err := e.Shape()
		if err != nil {
			return nil, err
		}
		fields := make([]string, 0, len(shapes))
		for name := range shapes {
			fields = append(fields, e.Name()+"."+name)
		}
		sort.Strings(fields)
		names = append(names, fields...)
	}
	return names, nil
}

// Example is the combined result of one composed extraction.
type Example struct {
	// Fields holds every extractor's validated output under
	// "<extractor>.<field>" names.
	Fields extractor.Output

	// Buckets holds each extractor's bucket id by extractor name.
	Buckets map[string]types.BucketID

	// Bucket is the combined decision: the maximum per-extractor id, so any
	// extractor voting BucketUpperBound drops the example while intermediate
	// ids survive for downstream bucketing.
	Bucket types.BucketID
}

// Dropped reports whether the combined decision drops the example.
func (ex *Example) Dropped() bool { return ex.Bucket.Dropped() }

// Extract runs every extractor over the shared decoded record in order,
// validating each output against its declared contract, then filters.
// Extractors see the same raw fields and must not mutate them.
func (c *Composer) Extract(raw extractor.RawFields) (*Example, error) {
	ex := &Example{
		Fields:  extractor.Output{},
		Buckets: make(map[string]types.BucketID, len(c.extractors)),
		Bucket:  types.BucketKeep,
	}

	for _, e := range c.extractors {
		out, err := extractor.Run(e, raw)
		if err != nil {
			return nil, err
		}

		bucket := e.Filter(out)
		if !bucket.Valid() {
			return nil, fmt.Errorf("extractor %s: bucket id %d outside [%d, %d]",
				e.Name(), bucket, types.BucketKeep, types.BucketUpperBound)
		}
		ex.Buckets[e.Name()] = bucket
		if bucket > ex.Bucket {
			ex.Bucket = bucket
		}

		for name, t := range out {
			ex.Fields[e.Name()+"."+name] = t
		}
	}

	return ex, nil
}
