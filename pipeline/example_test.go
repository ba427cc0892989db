package pipeline_test

import (
	"fmt"

	"github.com/ezoic/finml/datasource"
	"github.com/ezoic/finml/features"
	"github.com/ezoic/finml/pipeline"
)

// ExampleSession runs a synthetic series through every stage.
func ExampleSession() {
	ds, err := datasource.Synthetic(datasource.DefaultSyntheticOptions())
	if err != nil {
		fmt.Println(err)
		return
	}
	s, err := pipeline.New(pipeline.DefaultOptions())
	if err != nil {
		fmt.Println(err)
		return
	}

	// Refused: nothing has been loaded yet.
	if _, err := s.Train(); err != nil {
		fmt.Println("train before load refused")
	}

	if _, err := s.LoadDataset("synthetic", ds, ""); err != nil {
		fmt.Println(err)
		return
	}
	if _, err := s.Preprocess(); err != nil {
		fmt.Println(err)
		return
	}
	sel := features.Selection{Features: []string{"MA_7", features.Lag1Return}, Target: features.Return}
	if _, err := s.ConfirmFeatures(sel); err != nil {
		fmt.Println(err)
		return
	}
	split, err := s.Split(0.3)
	if err != nil {
		fmt.Println(err)
		return
	}
	if _, err := s.Train(); err != nil {
		fmt.Println(err)
		return
	}
	report, err := s.Evaluate()
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("train=%d test=%d\n", split.TrainRows, split.TestRows)
	fmt.Printf("good fit: %t\n", report.Metrics.R2 > 0.8)
	fmt.Println("stage:", s.State())

	// Output: train before load refused
	// train=70 test=30
	// good fit: true
	// stage: evaluated
}
