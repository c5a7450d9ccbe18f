package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mooretm/peat/internal/testutil"
)

func TestRETSPL(t *testing.T) {
	got, err := RETSPL(1000)
	require.NoError(t, err)
	assert.Equal(t, 0.8, got)

	got, err = RETSPL(31.5)
	require.NoError(t, err)
	assert.Equal(t, 59.5, got)

	_, err = RETSPL(1100)
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestRETSPLTableSize(t *testing.T) {
	// ANSI S3.6 Table 9a carries 34 frequencies from 20 Hz to 16 kHz.
	freqs := Frequencies()
	assert.Len(t, freqs, 34)
	assert.Equal(t, 20.0, freqs[0])
	assert.Equal(t, 16000.0, freqs[len(freqs)-1])
	assert.IsIncreasing(t, freqs)
}

func TestSummationLevel(t *testing.T) {
	tests := []struct {
		totalSPL float64
		channels int
		want     float64
	}{
		{50, 1, 50},
		{50, 2, 46.9897},
		{50, 3, 45.2288},
		{0, 2, -3.0103},
	}

	for _, tt := range tests {
		got, err := SummationLevel(tt.totalSPL, tt.channels)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, testutil.LevelTolerance,
			"SummationLevel(%g, %d)", tt.totalSPL, tt.channels)
	}

	_, err := SummationLevel(50, 0)
	assert.ErrorIs(t, err, ErrInvalidChannels)
	_, err = SummationLevel(50, -1)
	assert.ErrorIs(t, err, ErrInvalidChannels)
}

func TestCalibrationOffset(t *testing.T) {
	var cal Calibration
	assert.False(t, cal.Calibrated())

	offset := cal.Offset(70, -30)
	assert.Equal(t, 100.0, offset)
	assert.True(t, cal.Calibrated())

	got, err := cal.ToDeviceLevel(75)
	require.NoError(t, err)
	assert.Equal(t, -25.0, got)

	// Converting the measured SPL round-trips to the playback level used
	// during calibration.
	got, err = cal.ToDeviceLevel(70)
	require.NoError(t, err)
	assert.Equal(t, -30.0, got)
}

func TestCalibrationUncalibrated(t *testing.T) {
	var cal Calibration
	_, err := cal.ToDeviceLevel(75)
	assert.ErrorIs(t, err, ErrUncalibrated)

	_, _, err = cal.PresentationLevel(30, 1000, 1)
	assert.ErrorIs(t, err, ErrUncalibrated)
}

func TestCalibrationRecalibrate(t *testing.T) {
	var cal Calibration
	cal.Offset(70, -30)
	cal.Offset(80, -30)

	got, err := cal.ToDeviceLevel(80)
	require.NoError(t, err)
	assert.Equal(t, -30.0, got, "a new measurement must overwrite the old offset")
}

func TestPresentationLevel(t *testing.T) {
	var cal Calibration
	cal.Offset(70, -30) // offset 100

	// 30 dB staircase level at 1000 Hz (RETSPL 0.8), one channel.
	desired, device, err := cal.PresentationLevel(30, 1000, 1)
	require.NoError(t, err)
	assert.InDelta(t, 30.8, desired, testutil.LevelTolerance)
	assert.InDelta(t, -69.2, device, testutil.LevelTolerance)

	// Two channels split the summed field.
	desired2, device2, err := cal.PresentationLevel(30, 1000, 2)
	require.NoError(t, err)
	assert.InDelta(t, 27.7897, desired2, testutil.LevelTolerance)
	assert.InDelta(t, desired2-100, device2, testutil.LevelTolerance)

	_, _, err = cal.PresentationLevel(30, 1100, 1)
	assert.ErrorIs(t, err, ErrUnknownFrequency)

	_, _, err = cal.PresentationLevel(30, 1000, 0)
	assert.ErrorIs(t, err, ErrInvalidChannels)
}
