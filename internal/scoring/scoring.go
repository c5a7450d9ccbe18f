// Package scoring aggregates trial logs into per-frequency thresholds.
// The threshold for a frequency is the mean of the desired presentation
// levels at the last n scored reversals, matching how the staircase
// estimate is defined.
package scoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Common errors returned by the scorer.
var (
	// ErrInvalidReversals indicates a non-positive reversal count.
	ErrInvalidReversals = errors.New("reversal count must be positive")

	// ErrNoData indicates no trial CSV files were found.
	ErrNoData = errors.New("no trial data found")

	// ErrBadRecord indicates a trial log row that could not be parsed.
	ErrBadRecord = errors.New("malformed trial record")
)

// Result is one scored threshold.
type Result struct {
	Subject   string
	Frequency float64
	Threshold float64
}

// key groups reversal levels per subject and frequency.
type key struct {
	subject string
	freq    float64
}

// ScoreDir reads every trial CSV in dir and computes one threshold per
// subject and frequency from the last n reversal-flagged trials. Results
// are sorted by subject, then frequency.
func ScoreDir(dir string, n int) ([]Result, error) {
	if n <= 0 {
		return nil, ErrInvalidReversals
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no CSV files in %s", ErrNoData, dir)
	}

	reversals := make(map[key][]float64)
	for _, file := range files {
		if err := collectReversals(file, reversals); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	if len(reversals) == 0 {
		return nil, fmt.Errorf("%w: no reversal trials in %s", ErrNoData, dir)
	}

	results := make([]Result, 0, len(reversals))
	for k, levels := range reversals {
		if len(levels) > n {
			levels = levels[len(levels)-n:]
		}
		results = append(results, Result{
			Subject:   k.subject,
			Frequency: k.freq,
			Threshold: stat.Mean(levels, nil),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Subject != results[j].Subject {
			return results[i].Subject < results[j].Subject
		}
		return results[i].Frequency < results[j].Frequency
	})
	return results, nil
}

// collectReversals appends the desired level of every reversal-flagged
// trial in one log file, in row order.
func collectReversals(path string, out map[key][]float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%w: missing header", ErrBadRecord)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"subject", "test_freq", "reversal", "desired_level_db"} {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("%w: missing column %q", ErrBadRecord, name)
		}
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		reversal, err := strconv.ParseBool(row[col["reversal"]])
		if err != nil {
			return fmt.Errorf("%w: reversal flag %q", ErrBadRecord, row[col["reversal"]])
		}
		if !reversal {
			continue
		}

		freq, err := strconv.ParseFloat(row[col["test_freq"]], 64)
		if err != nil {
			return fmt.Errorf("%w: frequency %q", ErrBadRecord, row[col["test_freq"]])
		}
		level, err := strconv.ParseFloat(row[col["desired_level_db"]], 64)
		if err != nil {
			return fmt.Errorf("%w: level %q", ErrBadRecord, row[col["desired_level_db"]])
		}

		k := key{subject: row[col["subject"]], freq: freq}
		out[k] = append(out[k], level)
	}
}

// WriteResults writes scored thresholds as CSV.
func WriteResults(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"subject", "freq", "threshold"}); err != nil {
		return err
	}
	for _, res := range results {
		row := []string{
			res.Subject,
			strconv.FormatFloat(res.Frequency, 'g', -1, 64),
			strconv.FormatFloat(res.Threshold, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
