package levels

// Calibration maps between physical SPL, as measured with a sound level
// meter, and the device output level that produced it. The offset is
// derived from a single measurement: a reference signal is played at a
// known device level and the resulting SPL is read off the meter.
//
// Conversions requested before an offset has been computed are rejected
// with ErrUncalibrated; there is no identity fallback.
type Calibration struct {
	offset     float64
	calibrated bool
}

// Offset records the offset between the measured SPL and the device level
// that produced it, and returns the stored value. Any previous offset is
// overwritten.
func (c *Calibration) Offset(slmReading, playbackLevel float64) float64 {
	c.offset = slmReading - playbackLevel
	c.calibrated = true
	return c.offset
}

// Calibrated reports whether an offset has been computed.
func (c *Calibration) Calibrated() bool {
	return c.calibrated
}

// ToDeviceLevel converts a desired physical SPL into the device level that
// reproduces it. Inverse of the calibration measurement: converting the
// SPL measured during calibration yields the playback level that was used.
func (c *Calibration) ToDeviceLevel(desiredSPL float64) (float64, error) {
	if !c.calibrated {
		return 0, ErrUncalibrated
	}
	return desiredSPL - c.offset, nil
}

// PresentationLevel computes the per-channel presentation level for a
// staircase level at a test frequency. The staircase level is corrected by
// the RETSPL for the frequency, adjusted for sound-field summation across
// the given channel count, and finally converted to a device level using
// the calibration offset. Both the desired per-channel SPL and the device
// level are returned so they can be logged with the trial.
func (c *Calibration) PresentationLevel(stairLevel, freq float64, channels int) (desiredSPL, deviceLevel float64, err error) {
	ref, err := RETSPL(freq)
	if err != nil {
		return 0, 0, err
	}
	desiredSPL, err = SummationLevel(stairLevel+ref, channels)
	if err != nil {
		return 0, 0, err
	}
	deviceLevel, err = c.ToDeviceLevel(desiredSPL)
	if err != nil {
		return 0, 0, err
	}
	return desiredSPL, deviceLevel, nil
}
