package pipeline

import (
	"github.com/ezoic/finml/dataset"
	"github.com/ezoic/finml/features"
	"github.com/ezoic/finml/metrics"
)

// Figure names.
const (
	FigureClosePrices               = "close_prices"
	FigureFeatureCorrelation        = "feature_correlation"
	FigureSplitProportions          = "split_proportions"
	FigureSplitCounts               = "split_counts"
	FigureCoefficients              = "coefficients"
	FigureActualVsPredicted         = "actual_vs_predicted"
	FigureActualVsPredictedOverTime = "actual_vs_predicted_over_time"
)

// ExportFilename is the suggested name of the CSV download.
const ExportFilename = "financial_data.csv"

// LoadReport describes a freshly loaded dataset.
type LoadReport struct {
	Source      string   `json:"source"`
	Ticker      string   `json:"ticker,omitempty"`
	Rows        int      `json:"rows"`
	Columns     []string `json:"columns"`
	CloseColumn string   `json:"close_column"`
}

// PreviewReport is the first rows and summary statistics of the working
// dataset.
type PreviewReport struct {
	Rows    int               `json:"rows"`
	Head    dataset.Table     `json:"head"`
	Summary []dataset.Summary `json:"summary"`
}

// PreprocessReport describes the cleaning pass.
type PreprocessReport struct {
	MissingBefore   []dataset.ColumnCount `json:"missing_before"`
	MissingAfter    []dataset.ColumnCount `json:"missing_after"`
	RowsBefore      int                   `json:"rows_before"`
	RowsAfter       int                   `json:"rows_after"`
	OutliersDropped int                   `json:"outliers_dropped"`
	Figures         []string              `json:"figures"`
}

// FeaturePreview is the engineered table before the selection is confirmed.
type FeaturePreview struct {
	// Columns available before feature engineering.
	Columns []string `json:"columns"`
	// Created lists the new feature columns.
	Created []string `json:"created"`
	// Head shows the first rows of the new feature columns.
	Head        dataset.Table `json:"head"`
	Rows        int           `json:"rows"`
	RowsDropped int           `json:"rows_dropped"`
	Candidates  []string      `json:"candidates"`
	Targets     []string      `json:"targets"`
}

// FeatureReport describes a confirmed selection.
type FeatureReport struct {
	Features    []string                    `json:"features"`
	Target      string                      `json:"target"`
	Rows        int                         `json:"rows"`
	Correlation *features.CorrelationMatrix `json:"correlation,omitempty"`
	Figures     []string                    `json:"figures"`
}

// SplitReport describes the train/test partition.
type SplitReport struct {
	TrainRows int      `json:"train_rows"`
	TestRows  int      `json:"test_rows"`
	TestSize  float64  `json:"test_size"`
	Seed      uint64   `json:"seed"`
	Figures   []string `json:"figures"`
}

// Coefficient is the fitted weight of one feature.
type Coefficient struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

// TrainReport describes the fitted model.
type TrainReport struct {
	Coefficients []Coefficient `json:"coefficients"`
	Intercept    float64       `json:"intercept"`
	TrainRows    int           `json:"train_rows"`
	Figures      []string      `json:"figures"`
}

// Prediction pairs a test row's actual and predicted target.
type Prediction struct {
	Position  int     `json:"position"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// EvaluationReport holds the test-set metrics.
type EvaluationReport struct {
	Target      string             `json:"target"`
	Metrics     metrics.Regression `json:"metrics"`
	TestRows    int                `json:"test_rows"`
	Predictions []Prediction       `json:"predictions"`
	Figures     []string           `json:"figures"`
}

// Status summarizes the session.
type Status struct {
	Session   string   `json:"session_id"`
	Stage     Stage    `json:"stage"`
	Processed bool     `json:"processed"`
	Ticker    string   `json:"ticker,omitempty"`
	Rows      int      `json:"rows"`
	Columns   []string `json:"columns"`
	Features  []string `json:"features,omitempty"`
	Target    string   `json:"target,omitempty"`
	Stale     []string `json:"stale"`
	Figures   []string `json:"figures"`
}
