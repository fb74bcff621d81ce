package types

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestLaserConfig_Defaults(t *testing.T) {
	cfg := LaserConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.NumFeatures != 1 {
		t.Errorf("NumFeatures default = %d, want 1", cfg.NumFeatures)
	}
	if cfg.MaxNumPoints != nil {
		t.Error("MaxNumPoints should default to nil")
	}
}

func TestLaserConfig_RejectsNonPositiveMax(t *testing.T) {
	cfg := LaserConfig{MaxNumPoints: intPtr(0)}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for max_num_points = 0")
	}
}

func TestLabelConfig_Defaults(t *testing.T) {
	cfg := LabelConfig{MaxNumObjects: 32}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.NumBoxParams != 7 {
		t.Errorf("NumBoxParams default = %d, want 7", cfg.NumBoxParams)
	}
}

func TestLabelConfig_RequiresMaxNumObjects(t *testing.T) {
	cfg := LabelConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing max_num_objects")
	}
}

func TestExtractorSpec_ExactlyOneVariant(t *testing.T) {
	tests := []struct {
		name    string
		spec    ExtractorSpec
		wantErr string
	}{
		{
			name: "one variant ok",
			spec: ExtractorSpec{Name: "laser", Laser: &LaserConfig{}},
		},
		{
			name:    "no variant",
			spec:    ExtractorSpec{Name: "empty"},
			wantErr: "exactly one variant",
		},
		{
			name: "two variants",
			spec: ExtractorSpec{
				Name:  "both",
				Laser: &LaserConfig{},
				Label: &LabelConfig{MaxNumObjects: 4},
			},
			wantErr: "exactly one variant",
		},
		{
			name:    "missing name",
			spec:    ExtractorSpec{Laser: &LaserConfig{}},
			wantErr: "Name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPipelineConfig_Validate(t *testing.T) {
	cfg := PipelineConfig{
		Extractors: []ExtractorSpec{
			{Name: "laser", Laser: &LaserConfig{MaxNumPoints: intPtr(1024), NumFeatures: 4}},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Store.Dir == "" || cfg.Store.MaxResults == 0 {
		t.Error("store defaults not applied")
	}

	empty := PipelineConfig{}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty extractor list")
	}
}
