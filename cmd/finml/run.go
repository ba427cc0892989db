package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ezoic/finml/datasource"
	"github.com/ezoic/finml/features"
	"github.com/ezoic/finml/pipeline"
	"github.com/ezoic/finml/pkg/log"
)

const dateLayout = "2006-01-02"

// runFlags are the options of the run command.
type runFlags struct {
	config    string
	file      string
	ticker    string
	start     string
	end       string
	synthetic bool
	features  string
	target    string
	testSize  float64
	out       string
}

func parseRunFlags(args []string) (runFlags, error) {
	var f runFlags
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "YAML config file")
	fs.StringVar(&f.file, "file", "", "CSV or XLSX file to load")
	fs.StringVar(&f.ticker, "ticker", "", "ticker to fetch instead of a file")
	fs.StringVar(&f.start, "start", "2020-01-01", "fetch start date")
	fs.StringVar(&f.end, "end", "", "fetch end date, defaults to today")
	fs.BoolVar(&f.synthetic, "synthetic", false, "use a generated series")
	fs.StringVar(&f.features, "features", "", "comma separated feature columns, defaults to every candidate")
	fs.StringVar(&f.target, "target", features.Return, "target column")
	fs.Float64Var(&f.testSize, "test-size", 0, "test ratio, overrides pipeline.test_size")
	fs.StringVar(&f.out, "out", "", "directory for figures and the CSV export")
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	sources := 0
	for _, set := range []bool{f.file != "", f.ticker != "", f.synthetic} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return f, errors.New("exactly one of -file, -ticker or -synthetic is required")
	}
	return f, nil
}

// runReport is what the run command prints.
type runReport struct {
	Session    string                    `json:"session_id"`
	Load       pipeline.LoadReport       `json:"load"`
	Preprocess pipeline.PreprocessReport `json:"preprocess"`
	Features   pipeline.FeatureReport    `json:"features"`
	Split      pipeline.SplitReport      `json:"split"`
	Train      pipeline.TrainReport      `json:"train"`
	Evaluation pipeline.EvaluationReport `json:"evaluation"`
	Files      []string                  `json:"files,omitempty"`
}

func runCommand(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseRunFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f.config)
	if err != nil {
		return err
	}
	opts := sessionOptions(cfg)
	if f.testSize != 0 {
		opts.TestSize = f.testSize
	}

	s, err := pipeline.New(opts)
	if err != nil {
		return err
	}
	var report runReport
	report.Session = s.ID

	switch {
	case f.file != "":
		fh, err := os.Open(f.file)
		if err != nil {
			return errors.Wrapf(err, "open %q", f.file)
		}
		defer fh.Close()
		report.Load, err = s.LoadFile(filepath.Base(f.file), fh)
		if err != nil {
			return err
		}
	case f.ticker != "":
		p, err := provider(cfg)
		if err != nil {
			return err
		}
		start, end, err := fetchRange(f.start, f.end, time.Now())
		if err != nil {
			return err
		}
		report.Load, err = s.Fetch(ctx, p, f.ticker, start, end)
		if err != nil {
			return err
		}
	default:
		ds, err := datasource.Synthetic(datasource.DefaultSyntheticOptions())
		if err != nil {
			return err
		}
		report.Load, err = s.LoadDataset("synthetic", ds, "")
		if err != nil {
			return err
		}
	}

	if report.Preprocess, err = s.Preprocess(); err != nil {
		return err
	}
	sel := features.Selection{Features: splitList(f.features), Target: f.target}
	if len(sel.Features) == 0 {
		sel.Features = opts.Features.Candidates()
	}
	if report.Features, err = s.ConfirmFeatures(sel); err != nil {
		return err
	}
	if report.Split, err = s.Split(opts.TestSize); err != nil {
		return err
	}
	if report.Train, err = s.Train(); err != nil {
		return err
	}
	if report.Evaluation, err = s.Evaluate(); err != nil {
		return err
	}

	if f.out != "" {
		if report.Files, err = writeOutputs(s, f.out); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(report), "write report")
}

// fetchRange parses the fetch dates. An empty end means today.
func fetchRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(err, "parse -start %q", start)
	}
	to := now.UTC().Truncate(24 * time.Hour)
	if end != "" {
		if to, err = time.Parse(dateLayout, end); err != nil {
			return time.Time{}, time.Time{}, errors.Wrapf(err, "parse -end %q", end)
		}
	}
	return from, to, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// writeOutputs saves every figure and the working dataset under dir.
func writeOutputs(s *pipeline.Session, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %q", dir)
	}
	var files []string
	for _, name := range s.Figures() {
		fig, _ := s.Figure(name)
		path, err := fig.Save(dir)
		if err != nil {
			log.GetLogger().Warn("Figure not saved", "figure", name, log.ErrorKey, err.Error())
			continue
		}
		files = append(files, path)
	}

	path := filepath.Join(dir, pipeline.ExportFilename)
	fh, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %q", path)
	}
	if err := s.ExportCSV(fh); err != nil {
		fh.Close()
		return nil, err
	}
	if err := fh.Close(); err != nil {
		return nil, errors.Wrapf(err, "close %q", path)
	}
	return append(files, path), nil
}
