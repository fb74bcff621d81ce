package tensor

import (
	"testing"

	"github.com/pdiddy/extraction-engine/pkg/types"
)

func TestNew_ShapeMustMatchValueCount(t *testing.T) {
	if _, err := NewFloat32(types.Shape{2, 3}, make([]float64, 6)); err != nil {
		t.Fatalf("NewFloat32: %v", err)
	}
	if _, err := NewFloat32(types.Shape{2, 3}, make([]float64, 5)); err == nil {
		t.Error("expected error for short value slice")
	}
	if _, err := NewInt64(types.Shape{types.UnknownDim}, nil); err == nil {
		t.Error("expected error for unknown dimension")
	}
}

func TestNew_Scalar(t *testing.T) {
	s, err := NewString(types.Shape{}, []string{"frame-001"})
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	if s.Len() != 1 || s.Strings()[0] != "frame-001" {
		t.Errorf("scalar tensor holds %v", s.Strings())
	}
}

func TestFilled(t *testing.T) {
	f, err := Filled(types.DTFloat32, types.Shape{3}, 1)
	if err != nil {
		t.Fatalf("Filled: %v", err)
	}
	for i, v := range f.Floats() {
		if v != 1 {
			t.Errorf("element %d = %v, want 1", i, v)
		}
	}

	if _, err := Filled(types.DTString, types.Shape{3}, 0); err == nil {
		t.Error("expected error for non-numeric fill")
	}
}

func TestEqual(t *testing.T) {
	a, _ := NewFloat32(types.Shape{2}, []float64{1, 2})
	b, _ := NewFloat32(types.Shape{2}, []float64{1, 2})
	c, _ := NewFloat32(types.Shape{2}, []float64{1, 3})
	d, _ := NewFloat64(types.Shape{2}, []float64{1, 2})

	if !a.Equal(b) {
		t.Error("identical tensors not equal")
	}
	if a.Equal(c) {
		t.Error("different values reported equal")
	}
	if a.Equal(d) {
		t.Error("different dtypes reported equal")
	}
}

func TestConstructorsCopyInput(t *testing.T) {
	vals := []float64{1, 2}
	a, _ := NewFloat32(types.Shape{2}, vals)
	vals[0] = 99
	if a.Floats()[0] != 1 {
		t.Error("tensor aliases caller's slice")
	}
}
