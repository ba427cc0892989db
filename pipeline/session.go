// Package pipeline runs one interactive modelling session through its fixed
// stages:
//
//	load → preview → preprocess → features → split → train → evaluate
//
// A Session owns the working dataset and every artifact derived from it.
// Each stage handler checks its prerequisite first and refuses to run with a
// PrerequisiteError, leaving the session untouched. Handlers compute into
// locals and commit only after every step succeeded, so a failing handler
// never leaves partial state behind.
//
// Re-running an earlier stage does not clear later artifacts. The session
// records which generation of its input each artifact was derived from and
// reports outdated ones through Stale.
package pipeline

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/ezoic/finml/charts"
	"github.com/ezoic/finml/dataset"
	"github.com/ezoic/finml/datasource"
	"github.com/ezoic/finml/features"
	"github.com/ezoic/finml/linear"
	"github.com/ezoic/finml/modelselection"
	finErrors "github.com/ezoic/finml/pkg/errors"
	"github.com/ezoic/finml/pkg/log"
	"github.com/ezoic/finml/preprocessing"
)

// Options holds the stage parameters.
type Options struct {
	Seed             uint64
	TestSize         float64
	OutlierThreshold float64
	Features         features.Options
	PreviewRows      int
	ChartSize        charts.Size
}

// DefaultOptions returns seed 42, a 0.3 test ratio, the 0.5 return clip,
// 7/30/30 day windows, a ten row preview and 8x5 inch figures.
func DefaultOptions() Options {
	return Options{
		Seed:             modelselection.DefaultSeed,
		TestSize:         modelselection.DefaultTestSize,
		OutlierThreshold: preprocessing.DefaultOutlierThreshold,
		Features:         features.DefaultOptions(),
		PreviewRows:      10,
		ChartSize:        charts.DefaultSize(),
	}
}

// Validate checks every option.
func (o Options) Validate() error {
	if math.IsNaN(o.TestSize) || o.TestSize < modelselection.MinTestSize || o.TestSize > modelselection.MaxTestSize {
		return finErrors.NewValidationError("test_size", "must be between 0.1 and 0.5", o.TestSize)
	}
	if !(o.OutlierThreshold > 0) || math.IsInf(o.OutlierThreshold, 0) {
		return finErrors.NewValidationError("outlier_threshold", "must be a positive finite number", o.OutlierThreshold)
	}
	if o.PreviewRows < 1 {
		return finErrors.NewValidationError("preview_rows", "must be at least 1", o.PreviewRows)
	}
	if err := o.Features.Validate(); err != nil {
		return err
	}
	return o.ChartSize.Validate()
}

// Partition is the train/test split of the selected features and target.
// Every part keeps the original row positions of the working dataset.
type Partition struct {
	Features      []string
	Target        string
	TrainFeatures *dataset.Dataset
	TestFeatures  *dataset.Dataset
	TrainTarget   *dataset.Dataset
	TestTarget    *dataset.Dataset
}

// artifact identifies a derived piece of session state.
type artifact int

const (
	artDataset artifact = iota
	artFeatures
	artSplit
	artModel
	artEvaluation
)

var artifactNames = [...]string{
	artDataset:    "dataset",
	artFeatures:   "features",
	artSplit:      "split",
	artModel:      "model",
	artEvaluation: "evaluation",
}

// stamp records when an artifact was produced and which generation of its
// upstream artifact it was derived from.
type stamp struct {
	gen  uint64
	from uint64
}

// Session is the single-owner context passed through every stage. It is not
// safe for concurrent use.
type Session struct {
	ID string

	opts     Options
	logger   log.Logger
	observer Observer

	working    *dataset.Dataset
	processed  bool
	ticker     string
	selection  *features.Selection
	partition  *Partition
	model      *linear.LinearRegression
	evaluation *EvaluationReport
	figures    map[string]*charts.Figure

	gen    uint64
	stamps map[artifact]stamp
}

// New creates an empty session.
func New(opts Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	return &Session{
		ID:      id,
		opts:    opts,
		logger:  log.GetLoggerWithName("pipeline").With(log.SessionKey, id),
		figures: make(map[string]*charts.Figure),
		stamps:  make(map[artifact]stamp),
	}, nil
}

// Observe registers o to be notified of every stage run. A nil o removes the
// observer.
func (s *Session) Observe(o Observer) {
	s.observer = o
}

// Options returns the session's stage parameters.
func (s *Session) Options() Options { return s.opts }

// Dataset returns the working dataset, nil before the first load. The result
// must not be modified.
func (s *Session) Dataset() *dataset.Dataset { return s.working }

// Ticker returns the active ticker, empty unless the data was fetched.
func (s *Session) Ticker() string { return s.ticker }

// Selection returns the confirmed features and target, if any.
func (s *Session) Selection() (features.Selection, bool) {
	if s.selection == nil {
		return features.Selection{}, false
	}
	return features.Selection{Features: slices.Clone(s.selection.Features), Target: s.selection.Target}, true
}

// Partition returns the current split, nil before Split.
func (s *Session) Partition() *Partition { return s.partition }

// Model returns the fitted model, nil before Train.
func (s *Session) Model() *linear.LinearRegression { return s.model }

// Evaluation returns the last evaluation, nil before Evaluate.
func (s *Session) Evaluation() *EvaluationReport { return s.evaluation }

// State returns the furthest stage the session has completed without a gap.
func (s *Session) State() Stage {
	switch {
	case s.working == nil:
		return Unloaded
	case !s.processed:
		return Loaded
	case s.selection == nil:
		return Preprocessed
	case s.partition == nil:
		return FeaturesSelected
	case s.model == nil:
		return Split
	case s.evaluation == nil:
		return Trained
	default:
		return Evaluated
	}
}

// Stale lists the artifacts derived from an input that has since been
// replaced, in workflow order. An artifact is also stale when its input is.
func (s *Session) Stale() []string {
	stale := []string{}
	upstreamStale := false
	for a := artFeatures; a <= artEvaluation; a++ {
		st, ok := s.stamps[a]
		if !ok {
			// Nothing further down can exist without this artifact.
			break
		}
		if upstreamStale || s.stamps[a-1].gen != st.from {
			stale = append(stale, artifactNames[a])
			upstreamStale = true
		}
	}
	return stale
}

// Figure returns the last rendered figure of the given name.
func (s *Session) Figure(name string) (*charts.Figure, bool) {
	f, ok := s.figures[name]
	return f, ok
}

// Figures lists the names of the rendered figures.
func (s *Session) Figures() []string {
	names := make([]string, 0, len(s.figures))
	for name := range s.figures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status summarizes the session.
func (s *Session) Status() Status {
	st := Status{
		Session:   s.ID,
		Stage:     s.State(),
		Processed: s.processed,
		Ticker:    s.ticker,
		Columns:   []string{},
		Stale:     s.Stale(),
		Figures:   s.Figures(),
	}
	if s.working != nil {
		st.Rows = s.working.Len()
		st.Columns = s.working.Names()
	}
	if s.selection != nil {
		st.Features = slices.Clone(s.selection.Features)
		st.Target = s.selection.Target
	}
	return st
}

// record stamps a newly committed artifact.
func (s *Session) record(a artifact) {
	s.gen++
	st := stamp{gen: s.gen}
	if a > artDataset {
		st.from = s.stamps[a-1].gen
	}
	s.stamps[a] = st
}

func (s *Session) commitFigures(figs []*charts.Figure) []string {
	names := make([]string, 0, len(figs))
	for _, f := range figs {
		s.figures[f.Name] = f
		names = append(names, f.Name)
	}
	return names
}

func (s *Session) closeColumn(ds *dataset.Dataset) (string, bool) {
	return datasource.ResolveCloseColumn(ds, s.ticker)
}

// run times fn, logs its outcome and notifies the observer.
func (s *Session) run(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	logger := s.logger.With(log.StageKey, stage.String(), log.DurationMsKey, elapsed.Milliseconds())
	switch {
	case err == nil:
		logger.Info("Stage completed")
		if stale := s.Stale(); len(stale) > 0 {
			logger.Warn("Downstream artifacts are stale", "stale", stale)
		}
	case errors.Is(err, finErrors.ErrPrerequisiteNotMet):
		logger.Warn("Stage prerequisite not met", log.ErrorKey, err.Error())
	default:
		logger.Error("Stage failed", log.ErrorKey, err.Error())
	}

	if s.observer != nil {
		s.observer.StageCompleted(stage, elapsed, err)
	}
	return err
}

// figure logs and discards a figure that could not be built. Figures are a
// view of the stage result and never fail the stage.
func (s *Session) figure(stage Stage, f *charts.Figure, err error) []*charts.Figure {
	if err != nil {
		s.logger.Warn("Figure skipped", log.StageKey, stage.String(), log.ErrorKey, err.Error())
		return nil
	}
	return []*charts.Figure{f}
}

// prerequisite refuses stage because the stage before it has not run.
func prerequisite(stage Stage) error {
	return finErrors.NewPrerequisiteError(stage.action(), stage.Requires().action())
}

// inspect runs a read-only operation, logging refusals and failures.
func (s *Session) inspect(op string, fn func() error) error {
	err := fn()
	switch {
	case err == nil:
	case errors.Is(err, finErrors.ErrPrerequisiteNotMet):
		s.logger.Warn("Prerequisite not met", log.OperationKey, op, log.ErrorKey, err.Error())
	default:
		s.logger.Error("Operation failed", log.OperationKey, op, log.ErrorKey, err.Error())
	}
	return err
}
