package preference

import (
	"errors"
	"math"
	"testing"
)

func TestFit_EmptyData(t *testing.T) {
	if _, err := Fit(nil, nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestFit_RowMismatch(t *testing.T) {
	features := [][]float64{{1, 0}, {0, 1}}
	labels := [][]float64{{1, 0}}
	if _, err := Fit(features, labels); err == nil {
		t.Error("expected error for mismatched row counts")
	}
}

func TestFit_RaggedRows(t *testing.T) {
	features := [][]float64{{1, 0}, {0}}
	labels := [][]float64{{1}, {0}}
	if _, err := Fit(features, labels); err == nil {
		t.Error("expected error for ragged feature rows")
	}
}

func TestFit_ConstantLabels(t *testing.T) {
	features := [][]float64{{0.1, 0.2}, {0.9, 0.4}, {0.5, 0.5}}
	labels := [][]float64{{0.7, -0.3}, {0.7, -0.3}, {0.7, -0.3}}

	f, err := Fit(features, labels)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	got, err := f.Predict([]float64{0.3, 0.3})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(got[0]-0.7) > 1e-9 || math.Abs(got[1]+0.3) > 1e-9 {
		t.Errorf("expected constant labels reproduced, got %v", got)
	}
}

func TestFit_Deterministic(t *testing.T) {
	features := [][]float64{
		{0.9, 0.1}, {0.8, 0.2}, {0.1, 0.9}, {0.2, 0.8}, {0.5, 0.5},
	}
	labels := [][]float64{
		{1.0, 0.0}, {0.9, 0.1}, {0.0, 1.0}, {0.1, 0.9}, {0.5, 0.5},
	}

	first, err := Fit(features, labels)
	if err != nil {
		t.Fatalf("first Fit failed: %v", err)
	}
	second, err := Fit(features, labels)
	if err != nil {
		t.Fatalf("second Fit failed: %v", err)
	}

	probes := [][]float64{{0.7, 0.3}, {0.3, 0.7}, {0.0, 0.0}, {1.0, 1.0}}
	for _, x := range probes {
		a, err := first.Predict(x)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		b, err := second.Predict(x)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		for k := range a {
			if a[k] != b[k] {
				t.Errorf("probe %v output %d: %f != %f across identical fits", x, k, a[k], b[k])
			}
		}
	}
}

func TestPredict_Directional(t *testing.T) {
	// Feature 0 high implies output 0 high; feature 1 high implies output 1 high.
	var features, labels [][]float64
	for i := 0; i < 20; i++ {
		features = append(features, []float64{0.9, 0.1})
		labels = append(labels, []float64{0.9, 0.1})
		features = append(features, []float64{0.1, 0.9})
		labels = append(labels, []float64{0.1, 0.9})
	}

	f, err := Fit(features, labels)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	got, err := f.Predict([]float64{0.9, 0.1})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got[0] <= got[1] {
		t.Errorf("expected output 0 to dominate for feature-0-heavy input, got %v", got)
	}
}

func TestPredict_WidthMismatch(t *testing.T) {
	f, err := Fit([][]float64{{1, 0}, {0, 1}}, [][]float64{{1}, {0}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := f.Predict([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for feature width mismatch")
	}
}

func TestFit_SingleExample(t *testing.T) {
	f, err := Fit([][]float64{{0.5}}, [][]float64{{0.8}})
	if err != nil {
		t.Fatalf("Fit failed on single example: %v", err)
	}
	got, err := f.Predict([]float64{0.5})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(got[0]-0.8) > 1e-9 {
		t.Errorf("expected 0.8, got %f", got[0])
	}
}
