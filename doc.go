// Package peat estimates auditory thresholds with an adaptive
// psychoacoustic procedure (P.E.A.T.: Psychophysical Estimation of
// Auditory Thresholds).
//
// The task is a two-interval forced choice (2IAFC): on each trial a
// frequency-modulated warble tone is presented in one of two observation
// intervals and the listener reports which. A 1-up/2-down staircase
// adjusts the presentation level trial by trial, tracking the 70.7%
// correct point (Levitt, 1971). The level pipeline corrects the abstract
// staircase level with per-frequency RETSPL reference thresholds, a
// sound-field summation model for multi-speaker presentation, and a
// measured device calibration offset, and refuses to present a signal
// that would clip.
//
// Key features:
//   - Adaptive 1-up/N-down staircase with variable step sizes, reversal
//     detection and a rapid-descend bootstrap phase
//   - Calibrated level pipeline: RETSPL correction (ANSI S3.6 Table 9a),
//     incoherent sound-field summation, SLM-derived device offset
//   - Multi-channel warble-tone synthesis with vetted per-channel
//     starting phases, raised-cosine gating and RMS normalisation
//   - Turn-based trial orchestration behind small collaborator
//     interfaces for playback, response collection and persistence
//
// Basic usage:
//
//	cfg := peat.DefaultConfig()
//	cfg.Subject = "P1234"
//	session, err := peat.NewSession(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	session.Calibrate(slmReading, calLevel)
//
//	for {
//		freq, ok := session.NextFrequency()
//		if !ok {
//			break
//		}
//		for session.Running() {
//			_, device, _ := session.PresentationLevel()
//			buf, _ := session.Synthesize()
//			_ = peat.ApplyLevel(buf, device)
//			// play buf, collect a response...
//			_ = session.AddResponse(+1)
//		}
//		threshold, _ := session.Threshold(cfg.TargetReversals)
//		fmt.Printf("%g Hz: %.1f dB\n", freq, threshold)
//	}
package peat
