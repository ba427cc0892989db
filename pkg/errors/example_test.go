package errors_test

import (
	"errors"
	"fmt"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Example_customErrorTypes demonstrates extracting a typed error from a wrapped chain
func Example_customErrorTypes() {
	dimErr := finErrors.NewDimensionError("Dataset.Matrix", 5, 3, 1)

	wrappedErr := fmt.Errorf("split failed: %w", dimErr)

	var dimensionErr *finErrors.DimensionError
	if errors.As(wrappedErr, &dimensionErr) {
		fmt.Printf("Dimension error: expected %d, got %d\n",
			dimensionErr.Expected, dimensionErr.Got)
	}

	// Output: Dimension error: expected 5, got 3
}

// Example_errorComparison demonstrates the two user-facing categories
func Example_errorComparison() {
	loadErr := finErrors.NewLoadError("AAPL", errors.New("no data found for this ticker and date range"))
	prereqErr := finErrors.NewPrerequisiteError("split", "feature selection")

	if errors.Is(loadErr, finErrors.ErrLoad) {
		fmt.Println("load error:", loadErr)
	}

	var prereq *finErrors.PrerequisiteError
	if errors.As(prereqErr, &prereq) {
		fmt.Printf("warning: %s needs %s\n", prereq.Stage, prereq.Requires)
	}

	// Output: load error: finml: load AAPL: no data found for this ticker and date range
	// warning: split needs feature selection
}

// Example_errorLogging demonstrates the message format of a wrapped ModelError
func Example_errorLogging() {
	baseErr := finErrors.NewModelError("LinearRegression.Fit", "singular matrix",
		finErrors.ErrSingularMatrix)

	opErr := fmt.Errorf("training stage: %w", baseErr)

	fmt.Printf("Error occurred during training: %v\n", opErr)

	// Output: Error occurred during training: training stage: finml: LinearRegression.Fit: singular matrix: singular matrix
}
