// Command peat-score averages trial logs into per-frequency thresholds.
//
// Usage:
//
//	peat-score -data Data -reversals 5 -o thresholds.csv
//
// It reads every trial CSV in the data directory, isolates the
// reversal-flagged trials per subject and frequency, and reports the mean
// desired presentation level over the last N reversals.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mooretm/peat/internal/scoring"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data", "Data", "Directory containing trial CSV logs")
	reversals := flag.Int("reversals", 5, "Number of final reversals to average")
	output := flag.String("o", "thresholds.csv", "Output CSV path")
	flag.Parse()

	results, err := scoring.ScoreDir(*dataDir, *reversals)
	if err != nil {
		return err
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := scoring.WriteResults(f, results); err != nil {
		return err
	}

	for _, res := range results {
		fmt.Printf("%-10s %8g Hz  %7.2f dB\n", res.Subject, res.Frequency, res.Threshold)
	}
	fmt.Printf("Wrote %d threshold(s) to %s\n", len(results), *output)
	return nil
}
