// Package storage persists trial records and session parameters. Trial
// records go to an append-only, datestamped CSV per session; session
// parameters round-trip through a JSON file.
package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mooretm/peat"
)

// csvHeader defines the column order of the trial log.
var csvHeader = []string{
	"session_id", "subject", "condition", "trial", "test_freq",
	"staircase_level", "response", "reversal",
	"desired_level_db", "adjusted_level_db",
	"slm_reading", "cal_level_db",
}

// CSVWriter appends trial records to a per-session CSV file. The file is
// named <subject>_<condition>_<stamp>.csv inside the data directory,
// which is created on first write. The header is written once, when the
// file is new.
type CSVWriter struct {
	dir       string
	cfg       peat.Config
	sessionID string
	path      string
	trial     int
}

// NewCSVWriter creates a writer for one session. Each writer gets a fresh
// session id so records from repeated sessions with the same subject and
// condition remain distinguishable.
func NewCSVWriter(dir string, cfg peat.Config) *CSVWriter {
	stamp := time.Now().Format("2006_Jan_02_1504")
	name := fmt.Sprintf("%s_%s_%s.csv", cfg.Subject, cfg.Condition, stamp)
	return &CSVWriter{
		dir:       dir,
		cfg:       cfg,
		sessionID: uuid.New().String(),
		path:      filepath.Join(dir, name),
	}
}

// Path returns the trial log path.
func (w *CSVWriter) Path() string {
	return w.path
}

// SessionID returns the id stamped on every record.
func (w *CSVWriter) SessionID() string {
	return w.sessionID
}

// Record appends one trial to the log, creating the data directory and
// the file (with header) as needed.
func (w *CSVWriter) Record(t peat.Trial) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	_, statErr := os.Stat(w.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trial log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if newFile {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}

	w.trial++
	row := []string{
		w.sessionID,
		w.cfg.Subject,
		w.cfg.Condition,
		strconv.Itoa(w.trial),
		formatFloat(t.Frequency),
		formatFloat(t.Level),
		strconv.Itoa(t.Response),
		strconv.FormatBool(t.Reversal),
		formatFloat(t.DesiredSPL),
		formatFloat(t.DeviceLevel),
		formatFloat(w.cfg.SLMReading),
		formatFloat(w.cfg.CalLevel),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
