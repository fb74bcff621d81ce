package label

import (
	"reflect"
	"testing"

	"github.com/pdiddy/extraction-engine/pkg/extractor"
	"github.com/pdiddy/extraction-engine/pkg/tensor"
	"github.com/pdiddy/extraction-engine/pkg/types"
)

func newExtractor(t *testing.T, cfg types.LabelConfig) *Extractor {
	t.Helper()
	e, err := New("label", cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func rawObjects(t *testing.T, classes []int64, boxes []float64) extractor.RawFields {
	t.Helper()
	classesT, err := tensor.NewInt64(types.Shape{len(classes)}, classes)
	if err != nil {
		t.Fatal(err)
	}
	boxesT, err := tensor.NewFloat32(types.Shape{len(boxes)}, boxes)
	if err != nil {
		t.Fatal(err)
	}
	return extractor.RawFields{
		FeatureClasses: classesT,
		FeatureBoxes:   boxesT,
	}
}

func TestDeclarations(t *testing.T) {
	e := newExtractor(t, types.LabelConfig{MaxNumObjects: 8, NumBoxParams: 7})

	shapes, err := e.Shape()
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	want := types.ShapeMap{
		OutLabels:     {8},
		OutBoxes:      {8, 7},
		OutLabelsMask: {8},
	}
	if !reflect.DeepEqual(shapes, want) {
		t.Errorf("Shape = %v, want %v", shapes, want)
	}

	if err := extractor.CheckDeclarations(e); err != nil {
		t.Errorf("CheckDeclarations: %v", err)
	}
}

func TestExtract_PadsAndMasks(t *testing.T) {
	e := newExtractor(t, types.LabelConfig{MaxNumObjects: 3, NumBoxParams: 2})
	raw := rawObjects(t, []int64{4, 9}, []float64{1, 2, 3, 4})

	out, err := extractor.Run(e, raw)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := out[OutLabels].Ints(); !reflect.DeepEqual(got, []int64{4, 9, 0}) {
		t.Errorf("labels = %v", got)
	}
	if got := out[OutLabelsMask].Floats(); !reflect.DeepEqual(got, []float64{1, 1, 0}) {
		t.Errorf("labels_mask = %v", got)
	}
	if got := out[OutBoxes].Floats(); got[3] != 4 || got[4] != 0 {
		t.Errorf("boxes = %v", got)
	}
}

func TestExtract_CropsBeyondMax(t *testing.T) {
	e := newExtractor(t, types.LabelConfig{MaxNumObjects: 1, NumBoxParams: 1})
	raw := rawObjects(t, []int64{1, 2, 3}, []float64{10, 20, 30})

	out, err := extractor.Run(e, raw)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out[OutLabels].Ints(); !reflect.DeepEqual(got, []int64{1}) {
		t.Errorf("labels = %v", got)
	}
}

func TestExtract_CountMismatch(t *testing.T) {
	e := newExtractor(t, types.LabelConfig{MaxNumObjects: 4, NumBoxParams: 2})
	raw := rawObjects(t, []int64{1}, []float64{1, 2, 3, 4})

	if _, err := e.Extract(raw); err == nil {
		t.Error("expected object count mismatch error")
	}
}

func TestFilter_DefaultKeepsEverything(t *testing.T) {
	e := newExtractor(t, types.LabelConfig{MaxNumObjects: 2})

	out, err := extractor.Run(e, rawObjects(t, nil, nil))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := e.Filter(out); got != types.BucketKeep {
		t.Errorf("Filter = %d, want %d (keep-everything default)", got, types.BucketKeep)
	}
}
