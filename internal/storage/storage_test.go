package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mooretm/peat"
)

func testConfig() peat.Config {
	cfg := peat.DefaultConfig()
	cfg.Subject = "P1234"
	cfg.Condition = "quiet"
	cfg.SLMReading = 70
	cfg.CalLevel = -30
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriterCreatesLogWithHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Data")
	w := NewCSVWriter(dir, testConfig())

	assert.Contains(t, filepath.Base(w.Path()), "P1234_quiet_")
	assert.NotEmpty(t, w.SessionID())

	require.NoError(t, w.Record(peat.Trial{
		Index:       1,
		Frequency:   1000,
		Level:       30,
		Response:    1,
		Reversal:    false,
		DesiredSPL:  30.8,
		DeviceLevel: -69.2,
	}))

	rows := readCSV(t, w.Path())
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])

	row := rows[1]
	assert.Equal(t, w.SessionID(), row[0])
	assert.Equal(t, "P1234", row[1])
	assert.Equal(t, "quiet", row[2])
	assert.Equal(t, "1", row[3])
	assert.Equal(t, "1000", row[4])
	assert.Equal(t, "30", row[5])
	assert.Equal(t, "1", row[6])
	assert.Equal(t, "false", row[7])
	assert.Equal(t, "30.8", row[8])
	assert.Equal(t, "-69.2", row[9])
	assert.Equal(t, "70", row[10])
	assert.Equal(t, "-30", row[11])
}

func TestCSVWriterAppendsAcrossTrials(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, testConfig())

	require.NoError(t, w.Record(peat.Trial{Index: 1, Frequency: 500, Level: 30, Response: 1}))
	require.NoError(t, w.Record(peat.Trial{Index: 2, Frequency: 500, Level: 20, Response: -1}))
	require.NoError(t, w.Record(peat.Trial{Index: 1, Frequency: 1000, Level: 30, Response: 1, Reversal: true}))

	rows := readCSV(t, w.Path())
	require.Len(t, rows, 4, "header plus three trials, one header only")

	// The trial column counts across frequency runs.
	assert.Equal(t, "1", rows[1][3])
	assert.Equal(t, "2", rows[2][3])
	assert.Equal(t, "3", rows[3][3])
	assert.Equal(t, "true", rows[3][7])

	// Every row carries the same session id.
	for _, row := range rows[1:] {
		assert.Equal(t, w.SessionID(), row[0])
	}
}

func TestCSVWriterDistinctSessionIDs(t *testing.T) {
	cfg := testConfig()
	a := NewCSVWriter(t.TempDir(), cfg)
	b := NewCSVWriter(t.TempDir(), cfg)
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestParamsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", DefaultParamsFile)

	cfg := testConfig()
	cfg.TestFrequencies = []float64{750, 3000}
	cfg.StartLevel = 40
	require.NoError(t, SaveParams(path, cfg))

	got, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadParamsMissingFileUsesDefaults(t *testing.T) {
	got, err := LoadParams(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, peat.DefaultConfig(), got)
}

func TestLoadParamsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultParamsFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"subject":"P9","starting_level":45}`), 0o644))

	got, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, "P9", got.Subject)
	assert.Equal(t, 45.0, got.StartLevel)
	assert.Equal(t, peat.DefaultConfig().StepSizes, got.StepSizes,
		"unspecified fields keep their defaults")
}

func TestLoadParamsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultParamsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadParams(path)
	assert.ErrorContains(t, err, "parse session parameters")
}
