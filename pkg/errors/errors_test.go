package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Ridge.Fit",
			kind:     "singular matrix",
			err:      fmt.Errorf("test error"),
			wantMsg:  "housing: Ridge.Fit: singular matrix: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "housing: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Evaluate", 4, 3, 0)

	want := "housing: Evaluate: dimension mismatch on axis 0 (rows). Expected 4, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Imputer", "Transform")

	want := "housing: Imputer: this model is not fitted yet. Call Fit() before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("algo", "xgboost", "unknown algorithm")

	want := "housing: invalid configuration for 'algo': unknown algorithm (got: xgboost)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// ラップされても型を取り出せること
	wrapped := Wrap(err, "loading config")
	var cfgErr *ConfigError
	if !As(wrapped, &cfgErr) {
		t.Fatal("Wrapped error should be castable to *ConfigError")
	}
	if cfgErr.Key != "algo" {
		t.Errorf("Key = %q, want %q", cfgErr.Key, "algo")
	}
}

func TestSchemaErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantSub []string
	}{
		{
			name:    "column set",
			err:     NewSchemaError("Imputer.Transform", []string{"a", "b"}, []string{"a"}),
			wantSub: []string{"Imputer.Transform", "column set differs", "[a b]", "[a]"},
		},
		{
			name:    "single column",
			err:     NewColumnSchemaError("GenerateFeatures", "households", "column is missing"),
			wantSub: []string{"GenerateFeatures", "'households'", "column is missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, sub := range tt.wantSub {
				if !strings.Contains(msg, sub) {
					t.Errorf("Error() = %q, want substring %q", msg, sub)
				}
			}
			var schemaErr *SchemaError
			if !As(tt.err, &schemaErr) {
				t.Error("Error should be castable to *SchemaError")
			}
		})
	}
}

func TestNewArtifactNotFoundError(t *testing.T) {
	err := NewArtifactNotFoundError("model_v9", "artifacts/models")

	want := "housing: artifact 'model_v9' not found in artifacts/models"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFound *ArtifactNotFoundError
	if !As(Wrap(err, "score"), &notFound) {
		t.Error("Error should be castable to *ArtifactNotFoundError")
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("Lasso", 1000, "duality gap above tol")

	want := "Lasso failed to converge after 1000 iterations: duality gap above tol"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}
}

func TestWarnUsesConfiguredHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("MAPE", "all y_true are zero", 0))

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	if !strings.Contains(got[0].Error(), "'MAPE' is ill-defined") {
		t.Errorf("unexpected warning: %v", got[0])
	}
}

func TestWrapfAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows", "Split", 10)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	if !strings.Contains(wrapped.Error(), "in Split: expected 10 rows") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestCheckMatrix(t *testing.T) {
	type grid [][]float64
	at := func(g grid) interface{ At(int, int) float64 } { return gridMatrix(g) }

	if err := CheckMatrix("Fit", at(grid{{1, 2}, {3, 4}}), 2, 2, 0); err != nil {
		t.Errorf("finite matrix should pass, got %v", err)
	}

	err := CheckMatrix("Fit", at(grid{{1, 2}, {3, nan()}}), 2, 2, 0)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Operation != "Fit" {
		t.Errorf("Operation = %q, want Fit", numErr.Operation)
	}
}

type gridMatrix [][]float64

func (g gridMatrix) At(i, j int) float64 { return g[i][j] }

func nan() float64 {
	var zero float64
	return zero / zero
}
