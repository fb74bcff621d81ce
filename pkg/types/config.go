package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate checks struct tags on config types. Configs are validated once
// at construction and treated as immutable afterwards.
var validate = validator.New()

// LaserConfig holds options for the laser point-cloud extractor.
type LaserConfig struct {
	// MaxNumPoints is the number of points per spin. When nil the extractor
	// emits variable-length outputs and no padding field.
	MaxNumPoints *int `json:"max_num_points,omitempty" yaml:"max_num_points,omitempty" validate:"omitempty,min=1" mapstructure:"max_num_points"`

	// NumFeatures is the number of features per laser point (default 1).
	NumFeatures int `json:"num_features" yaml:"num_features" validate:"min=1" mapstructure:"num_features"`
}

// ApplyDefaults fills unset options with their defaults.
func (c *LaserConfig) ApplyDefaults() {
	if c.NumFeatures == 0 {
		c.NumFeatures = 1
	}
}

// Validate applies defaults and checks option constraints.
func (c *LaserConfig) Validate() error {
	c.ApplyDefaults()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("laser config: %w", err)
	}
	return nil
}

// LabelConfig holds options for the object-label extractor.
type LabelConfig struct {
	// MaxNumObjects is the fixed number of label slots per example.
	MaxNumObjects int `json:"max_num_objects" yaml:"max_num_objects" validate:"required,min=1" mapstructure:"max_num_objects"`

	// NumBoxParams is the number of box parameters per object (default 7,
	// a 7-DOF box: center xyz, dimensions lwh, heading).
	NumBoxParams int `json:"num_box_params" yaml:"num_box_params" validate:"min=1" mapstructure:"num_box_params"`
}

// ApplyDefaults fills unset options with their defaults.
func (c *LabelConfig) ApplyDefaults() {
	if c.NumBoxParams == 0 {
		c.NumBoxParams = 7
	}
}

// Validate applies defaults and checks option constraints.
func (c *LabelConfig) Validate() error {
	c.ApplyDefaults()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("label config: %w", err)
	}
	return nil
}

// ExtractorSpec selects one extractor variant under a caller-chosen instance
// name. Exactly one variant must be set.
type ExtractorSpec struct {
	// Name is the instance name; it becomes the output namespace prefix and
	// must be unique within a pipeline.
	Name string `json:"name" yaml:"name" validate:"required" mapstructure:"name"`

	Laser *LaserConfig `json:"laser,omitempty" yaml:"laser,omitempty" mapstructure:"laser"`
	Label *LabelConfig `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Validate checks that exactly one variant is configured and validates it.
func (s *ExtractorSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("extractor spec: %w", err)
	}

	set := 0
	if s.Laser != nil {
		set++
	}
	if s.Label != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("extractor %q: exactly one variant must be set, got %d", s.Name, set)
	}

	switch {
	case s.Laser != nil:
		return s.Laser.Validate()
	default:
		return s.Label.Validate()
	}
}

// StoreConfig holds settings for the example store.
type StoreConfig struct {
	// Dir is the base directory for the store (contains index/).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the maximum number of rows returned by queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ApplyDefaults fills unset options with their defaults.
func (c *StoreConfig) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "batches"
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 20
	}
}

// PipelineConfig holds settings for one extraction pipeline run.
type PipelineConfig struct {
	// Extractors lists the composed extractors in their fixed run order.
	Extractors []ExtractorSpec `json:"extractors" yaml:"extractors" validate:"min=1" mapstructure:"extractors"`

	// RecordsPath is the JSONL records file to process ("-" reads stdin).
	RecordsPath string `json:"records_path" yaml:"records_path" mapstructure:"records_path"`

	// Store configures persistence of kept examples.
	Store StoreConfig `json:"store" yaml:"store" mapstructure:"store"`
}

// Validate applies defaults and validates every extractor spec.
func (c *PipelineConfig) Validate() error {
	c.Store.ApplyDefaults()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	for i := range c.Extractors {
		if err := c.Extractors[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
