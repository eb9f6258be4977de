// Command gendata writes a synthetic bloom observation CSV for local
// development. It uses the same generator the service falls back to when no
// dataset can be fetched, so the file round-trips through the strict parser.
//
// Usage:
//
//	go run ./cmd/gendata -year 2024 -out data/bloom_observations.csv
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/ingest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	year := flag.Int("year", 2024, "observation year to generate")
	out := flag.String("out", "data/bloom_observations.csv", "output CSV path")
	flag.Parse()

	observations, _ := ingest.Synthetic(*year)

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, strings.Join(ingest.RequiredColumns, ",")); err != nil {
		return err
	}
	for _, o := range observations {
		if _, err := fmt.Fprintln(f, formatRow(o)); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %d observations for %d to %s\n", len(observations), *year, *out)
	return nil
}

// formatRow emits fields in RequiredColumns order.
func formatRow(o domain.Observation) string {
	return fmt.Sprintf("%.4f,%.4f,%.2f,%.2f,%.3f,%d,%d,%d,%.1f,%.3f,%.3f,%.2f,%.1f",
		o.Lat, o.Lon, o.Temperature, o.Precipitation, o.NDVI,
		o.BloomStage, o.Month, o.Year,
		o.SolarRadiation, o.SoilMoisture, o.VPD, o.DiurnalRange, o.AGDD)
}
