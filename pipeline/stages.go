package pipeline

import (
	"context"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/finml/charts"
	"github.com/ezoic/finml/dataset"
	"github.com/ezoic/finml/datasource"
	"github.com/ezoic/finml/features"
	"github.com/ezoic/finml/linear"
	"github.com/ezoic/finml/metrics"
	"github.com/ezoic/finml/modelselection"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/pkg/log"
	"github.com/ezoic/finml/preprocessing"
)

// featureHeadRows is the number of rows shown of the new feature columns.
const featureHeadRows = 5

// LoadFile parses an uploaded CSV or XLSX file and makes it the working
// dataset. The active ticker is cleared and the processed flag reset; later
// artifacts are kept and become stale.
func (s *Session) LoadFile(name string, r io.Reader) (LoadReport, error) {
	var report LoadReport
	err := s.run(Loaded, func() error {
		ds, err := datasource.LoadFile(name, r)
		if err != nil {
			return err
		}
		report = s.commitLoad(name, ds, "")
		return nil
	})
	return report, err
}

// LoadDataset makes a copy of ds the working dataset. ds needs a Close
// column; Return is derived from it when absent. ticker may be empty.
func (s *Session) LoadDataset(source string, ds *dataset.Dataset, ticker string) (LoadReport, error) {
	var report LoadReport
	err := s.run(Loaded, func() error {
		if ds == nil || ds.Len() == 0 {
			return finErrors.NewLoadError(source, finErrors.ErrEmptyData)
		}
		active := strings.ToUpper(strings.TrimSpace(ticker))
		working := ds.Clone()
		if err := datasource.Normalize(working); err != nil {
			return finErrors.NewLoadError(source, err)
		}
		closeCol, ok := datasource.ResolveCloseColumn(working, active)
		if !ok {
			return finErrors.NewLoadError(source, finErrors.NewValueError("pipeline.LoadDataset", "no Close column"))
		}
		if !working.Has(datasource.ReturnColumn) {
			if err := datasource.AddReturns(working, closeCol); err != nil {
				return finErrors.NewLoadError(source, err)
			}
		}
		report = s.commitLoad(source, working, active)
		return nil
	})
	return report, err
}

// Fetch downloads daily bars for ticker from p and makes them the working
// dataset with ticker as the active ticker.
func (s *Session) Fetch(ctx context.Context, p datasource.Provider, ticker string, start, end time.Time) (LoadReport, error) {
	var report LoadReport
	err := s.run(Loaded, func() error {
		ds, err := datasource.Fetch(ctx, p, ticker, start, end)
		if err != nil {
			return err
		}
		report = s.commitLoad(p.Name(), ds, strings.ToUpper(strings.TrimSpace(ticker)))
		return nil
	})
	return report, err
}

func (s *Session) commitLoad(source string, ds *dataset.Dataset, ticker string) LoadReport {
	s.working = ds
	s.processed = false
	s.ticker = ticker
	s.record(artDataset)

	closeCol, _ := s.closeColumn(ds)
	s.logger.Info("Dataset loaded",
		log.SourceKey, source,
		log.TickerKey, ticker,
		log.RowsKey, ds.Len(),
		log.ColumnsKey, len(ds.Names()),
	)
	return LoadReport{
		Source:      source,
		Ticker:      ticker,
		Rows:        ds.Len(),
		Columns:     ds.Names(),
		CloseColumn: closeCol,
	}
}

// Preview returns the first rows and the summary statistics of the working
// dataset.
func (s *Session) Preview() (PreviewReport, error) {
	var report PreviewReport
	err := s.inspect("preview", func() error {
		if s.working == nil {
			return finErrors.NewPrerequisiteError("preview", Loaded.action())
		}
		report = PreviewReport{
			Rows:    s.working.Len(),
			Head:    s.working.Head(s.opts.PreviewRows).Table(),
			Summary: s.working.Describe(),
		}
		return nil
	})
	return report, err
}

// ExportCSV writes the working dataset as CSV with a header row and no index
// column.
func (s *Session) ExportCSV(w io.Writer) error {
	return s.inspect("export", func() error {
		if s.working == nil {
			return finErrors.NewPrerequisiteError("export", Loaded.action())
		}
		return s.working.WriteCSV(w)
	})
}

// Preprocess fills missing values forward then backward and drops the rows
// whose Return lies outside the outlier threshold.
func (s *Session) Preprocess() (PreprocessReport, error) {
	var report PreprocessReport
	err := s.run(Preprocessed, func() error {
		if s.working == nil {
			return prerequisite(Preprocessed)
		}
		filled := preprocessing.FillMissing(s.working)
		out, dropped := filled, 0
		if filled.Has(datasource.ReturnColumn) {
			var err error
			out, dropped, err = preprocessing.FilterOutliers(filled, datasource.ReturnColumn, s.opts.OutlierThreshold)
			if err != nil {
				return err
			}
		}
		figs := s.closePriceFigure(out)

		report = PreprocessReport{
			MissingBefore:   s.working.MissingCounts(),
			MissingAfter:    filled.MissingCounts(),
			RowsBefore:      s.working.Len(),
			RowsAfter:       out.Len(),
			OutliersDropped: dropped,
		}
		s.working = out
		s.processed = true
		s.record(artDataset)
		report.Figures = s.commitFigures(figs)
		s.logger.Info("Dataset preprocessed",
			log.OperationKey, log.OperationTransform,
			log.PhaseKey, log.PhasePreprocessing,
			log.RowsKey, out.Len(),
			"outliers_dropped", dropped,
		)
		return nil
	})
	return report, err
}

func (s *Session) closePriceFigure(ds *dataset.Dataset) []*charts.Figure {
	closeCol, ok := s.closeColumn(ds)
	if !ok || !ds.Has(datasource.DateColumn) || ds.Len() == 0 {
		return nil
	}
	closes, ok := ds.Float(closeCol)
	if !ok {
		return nil
	}
	title := "Dataset Closing Prices"
	if s.ticker != "" {
		title = s.ticker + " Closing Prices"
	}
	axes := charts.Axes{Title: title, X: datasource.DateColumn, Y: closeCol}

	if dates, ok := ds.Dates(datasource.DateColumn); ok {
		f, err := charts.TimeLine(FigureClosePrices, axes, s.opts.ChartSize,
			charts.Timed{Name: closeCol, Times: dates, Values: closes})
		return s.figure(Preprocessed, f, err)
	}
	f, err := charts.Line(FigureClosePrices, axes, s.opts.ChartSize,
		charts.XY{Name: closeCol, X: positionsAxis(ds.Positions()), Y: closes})
	return s.figure(Preprocessed, f, err)
}

// engineer computes the feature table from the processed working dataset.
func (s *Session) engineer() (features.Result, string, error) {
	if s.working == nil || !s.processed {
		return features.Result{}, "", prerequisite(FeaturesSelected)
	}
	closeCol, ok := s.closeColumn(s.working)
	if !ok {
		return features.Result{}, "", finErrors.NewValueError("pipeline.Features", "the working dataset has no Close column")
	}
	res, err := features.Engineer(s.working, closeCol, s.opts.Features)
	return res, closeCol, err
}

// PreviewFeatures computes the feature columns without committing them.
func (s *Session) PreviewFeatures() (FeaturePreview, error) {
	var preview FeaturePreview
	err := s.inspect("features_preview", func() error {
		res, closeCol, err := s.engineer()
		if err != nil {
			return err
		}
		created, err := res.Dataset.Select(res.Created...)
		if err != nil {
			return err
		}
		candidates := make([]string, 0, len(res.Created))
		for _, c := range s.opts.Features.Candidates() {
			if res.Dataset.Has(c) && !slices.Contains(candidates, c) {
				candidates = append(candidates, c)
			}
		}
		preview = FeaturePreview{
			Columns:     s.working.Names(),
			Created:     slices.Clone(res.Created),
			Head:        created.Head(featureHeadRows).Table(),
			Rows:        res.Dataset.Len(),
			RowsDropped: res.Dropped,
			Candidates:  candidates,
			Targets:     features.Targets(closeCol),
		}
		return nil
	})
	return preview, err
}

// ConfirmFeatures engineers the features, validates sel against them and
// commits the feature table as the new working dataset. With Return as the
// target the correlation matrix of the selection is computed and drawn.
func (s *Session) ConfirmFeatures(sel features.Selection) (FeatureReport, error) {
	var report FeatureReport
	err := s.run(FeaturesSelected, func() error {
		res, closeCol, err := s.engineer()
		if err != nil {
			return err
		}
		if err := features.ValidateSelection(res.Dataset, sel, closeCol, s.opts.Features); err != nil {
			return err
		}
		selection := features.Selection{Features: slices.Clone(sel.Features), Target: sel.Target}

		var (
			corr *features.CorrelationMatrix
			figs []*charts.Figure
		)
		if selection.Target == features.Return {
			cm, err := features.Correlation(res.Dataset, append(slices.Clone(selection.Features), features.Return))
			if err != nil {
				return err
			}
			corr = &cm
			f, ferr := charts.HeatMap(FigureFeatureCorrelation, charts.Axes{Title: "Feature Correlation"},
				s.opts.ChartSize, cm.Labels, cm.Values, -1, 1)
			figs = s.figure(FeaturesSelected, f, ferr)
		}

		s.working = res.Dataset
		s.selection = &selection
		s.record(artDataset)
		s.record(artFeatures)
		report = FeatureReport{
			Features:    slices.Clone(selection.Features),
			Target:      selection.Target,
			Rows:        res.Dataset.Len(),
			Correlation: corr,
			Figures:     s.commitFigures(figs),
		}
		return nil
	})
	return report, err
}

// Split partitions the working dataset into training and test rows. The same
// data, testSize and seed always produce the same partition.
func (s *Session) Split(testSize float64) (SplitReport, error) {
	var report SplitReport
	err := s.run(Split, func() error {
		if s.selection == nil {
			return prerequisite(Split)
		}
		sel := *s.selection
		ds := s.working

		idx, err := modelselection.TrainTestSplit(ds.Len(), testSize, s.opts.Seed)
		if err != nil {
			return err
		}
		X, err := ds.Select(sel.Features...)
		if err != nil {
			return err
		}
		y, err := ds.Select(sel.Target)
		if err != nil {
			return err
		}
		part := &Partition{
			Features:      slices.Clone(sel.Features),
			Target:        sel.Target,
			TrainFeatures: X.Take(idx.Train),
			TestFeatures:  X.Take(idx.Test),
			TrainTarget:   y.Take(idx.Train),
			TestTarget:    y.Take(idx.Test),
		}

		labels := []string{"Train", "Test"}
		sizes := []float64{float64(len(idx.Train)), float64(len(idx.Test))}
		pie, err := charts.Pie(FigureSplitProportions, "Train/Test Split", s.opts.ChartSize, labels, sizes)
		figs := s.figure(Split, pie, err)
		bars, err := charts.Bar(FigureSplitCounts, charts.Axes{Title: "Number of Samples", Y: "Count"},
			s.opts.ChartSize, labels, sizes)
		figs = append(figs, s.figure(Split, bars, err)...)

		s.partition = part
		s.record(artSplit)
		report = SplitReport{
			TrainRows: len(idx.Train),
			TestRows:  len(idx.Test),
			TestSize:  testSize,
			Seed:      s.opts.Seed,
			Figures:   s.commitFigures(figs),
		}
		return nil
	})
	return report, err
}

// Train fits ordinary least squares with an intercept on the training
// partition, replacing any previous model.
func (s *Session) Train() (TrainReport, error) {
	var report TrainReport
	err := s.run(Trained, func() error {
		part := s.partition
		if part == nil {
			return prerequisite(Trained)
		}
		X, err := part.TrainFeatures.Matrix(part.Features...)
		if err != nil {
			return err
		}
		y, err := part.TrainTarget.Vector(part.Target)
		if err != nil {
			return err
		}
		model := linear.NewLinearRegression()
		if err := model.Fit(X, y); err != nil {
			return err
		}

		weights := model.GetWeights()
		coefficients := make([]Coefficient, len(weights))
		for i, w := range weights {
			coefficients[i] = Coefficient{Feature: part.Features[i], Coefficient: w}
		}
		bars, err := charts.Bar(FigureCoefficients,
			charts.Axes{Title: "Feature Coefficients", X: "Feature", Y: "Coefficient"},
			s.opts.ChartSize, part.Features, weights)
		figs := s.figure(Trained, bars, err)

		s.model = model
		s.record(artModel)
		report = TrainReport{
			Coefficients: coefficients,
			Intercept:    model.GetIntercept(),
			TrainRows:    part.TrainFeatures.Len(),
			Figures:      s.commitFigures(figs),
		}
		return nil
	})
	return report, err
}

// Evaluate predicts the test partition with the fitted model and reports MSE,
// RMSE, MAE and R².
func (s *Session) Evaluate() (EvaluationReport, error) {
	var report EvaluationReport
	err := s.run(Evaluated, func() error {
		if s.model == nil || s.partition == nil {
			return prerequisite(Evaluated)
		}
		part := s.partition
		X, err := part.TestFeatures.Matrix(part.Features...)
		if err != nil {
			return err
		}
		yTrue, err := part.TestTarget.Vector(part.Target)
		if err != nil {
			return err
		}
		pred, err := s.model.Predict(X)
		if err != nil {
			return err
		}
		n := yTrue.Len()
		yPred := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			yPred.SetVec(i, pred.At(i, 0))
		}
		m, err := metrics.Evaluate(yTrue, yPred)
		if err != nil {
			return err
		}

		positions := part.TestTarget.Positions()
		predictions := make([]Prediction, n)
		for i := range predictions {
			predictions[i] = Prediction{Position: positions[i], Actual: yTrue.AtVec(i), Predicted: yPred.AtVec(i)}
		}
		sort.Slice(predictions, func(i, j int) bool { return predictions[i].Position < predictions[j].Position })

		scatter, err := charts.ScatterIdentity(FigureActualVsPredicted,
			charts.Axes{Title: "Actual vs Predicted Values", X: "Actual", Y: "Predicted"},
			s.opts.ChartSize, yTrue.RawVector().Data, yPred.RawVector().Data)
		figs := s.figure(Evaluated, scatter, err)
		figs = append(figs, s.overTimeFigure(part.Target, predictions)...)

		evaluation := EvaluationReport{
			Target:      part.Target,
			Metrics:     m,
			TestRows:    n,
			Predictions: predictions,
		}
		s.evaluation = &evaluation
		s.record(artEvaluation)
		evaluation.Figures = s.commitFigures(figs)
		report = evaluation
		s.logger.Info("Evaluation completed",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseEvaluation,
			log.TargetKey, part.Target,
			log.SamplesKey, n,
			"mse", m.MSE,
			"r2", m.R2,
		)
		return nil
	})
	return report, err
}

// overTimeFigure matches test rows back to the working dataset by original
// position and draws actual and predicted values over Date, ordered by
// position. Rows no longer present in the working dataset are skipped.
func (s *Session) overTimeFigure(target string, predictions []Prediction) []*charts.Figure {
	ds := s.working
	if ds == nil || !ds.Has(datasource.DateColumn) {
		return nil
	}
	rowOf := make(map[int]int, ds.Len())
	for row, pos := range ds.Positions() {
		rowOf[pos] = row
	}
	dates, parsed := ds.Dates(datasource.DateColumn)

	var (
		times             []time.Time
		xs                []float64
		actual, predicted []float64
	)
	for _, p := range predictions {
		row, ok := rowOf[p.Position]
		if !ok {
			continue
		}
		if parsed {
			times = append(times, dates[row])
		}
		xs = append(xs, float64(p.Position))
		actual = append(actual, p.Actual)
		predicted = append(predicted, p.Predicted)
	}
	if len(actual) == 0 {
		return nil
	}

	axes := charts.Axes{Title: "Actual vs Predicted Over Time", X: datasource.DateColumn, Y: target}
	if parsed {
		f, err := charts.TimeLine(FigureActualVsPredictedOverTime, axes, s.opts.ChartSize,
			charts.Timed{Name: "Actual", Times: times, Values: actual},
			charts.Timed{Name: "Predicted", Times: times, Values: predicted})
		return s.figure(Evaluated, f, err)
	}
	f, err := charts.Line(FigureActualVsPredictedOverTime, axes, s.opts.ChartSize,
		charts.XY{Name: "Actual", X: xs, Y: actual},
		charts.XY{Name: "Predicted", X: xs, Y: predicted})
	return s.figure(Evaluated, f, err)
}

func positionsAxis(positions []int) []float64 {
	xs := make([]float64, len(positions))
	for i, p := range positions {
		xs[i] = float64(p)
	}
	return xs
}
