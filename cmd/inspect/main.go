// Command inspect validates a bloom observation CSV offline: it runs the
// same parser as the service, prints a summary of what would be ingested,
// and exits non-zero when the file fails strict parsing.
//
// Usage:
//
//	go run ./cmd/inspect -file data/bloom_observations.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/floralens/bloom-data-service/internal/ingest"
)

func main() {
	file := flag.String("file", "", "path to the observation CSV to inspect")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", path, err)
		return 1
	}

	fmt.Printf("=== Bloom Observation CSV Inspection ===\n\n")
	fmt.Printf("File: %s (%d bytes)\n\n", path, len(data))

	observations, report, err := ingest.Parse(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Strict parse FAILED: %v\n", err)
		fmt.Fprintln(os.Stderr, "The service would fall back to best-effort parsing for this file.")
		return 1
	}

	printReport(report)

	if len(observations) == 0 {
		fmt.Println("\nNo usable rows. The service would fall back to synthetic data.")
		return 1
	}

	fmt.Println("\nFile is ingestable.")
	return 0
}

func printReport(report ingest.Report) {
	fmt.Printf("Rows parsed:  %d\n", report.Parsed)
	fmt.Printf("Rows dropped: %d\n", report.TotalDropped())

	if len(report.Dropped) > 0 {
		reasons := make([]string, 0, len(report.Dropped))
		for reason := range report.Dropped {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  %-22s %d\n", reason, report.Dropped[reason])
		}
	}

	if report.Parsed == 0 {
		return
	}

	fmt.Printf("\nYears:  %d - %d\n", report.YearMin, report.YearMax)
	fmt.Printf("Extent: lat [%.4f, %.4f], lon [%.4f, %.4f]\n",
		report.LatMin, report.LatMax, report.LonMin, report.LonMax)

	stages := make([]int, 0, len(report.StageCounts))
	for stage := range report.StageCounts {
		stages = append(stages, stage)
	}
	sort.Ints(stages)

	fmt.Println("\nBloom stages:")
	names := map[int]string{0: "none", 1: "emerging", 2: "peak"}
	for _, stage := range stages {
		fmt.Printf("  %d (%-8s) %d\n", stage, names[stage], report.StageCounts[stage])
	}
}
