// Package domain models plant-bloom and climate observations for the globe
// visualization backend.
//
// # Data Sources
//
// The primary dataset is a delimited text export of monthly bloom/climate
// observations, one row per (location, year, month). The first line is a
// header; the delimiter is a semicolon or a comma, detected per file. A
// secondary live feed delivers the same rows as flat JSON messages on a Kafka
// topic, published by an upstream collector.
//
// # Column Contract
//
// Required columns (any order, extra columns ignored):
//
//	latitude, longitude   WGS-84 decimal degrees
//	mean_temperature      monthly mean air temperature, °C
//	precipitation         monthly total, mm
//	ndvi                  Normalized Difference Vegetation Index, ~0–1
//	bloom_stage           discrete stage: 0 = none, 1 = emerging, 2 = peak
//	month, year           observation month (1–12) and calendar year
//	solar_radiation       monthly mean shortwave radiation, W/m²
//	soil_moisture         volumetric soil moisture fraction
//	vpd                   vapor-pressure deficit, kPa
//	dtr                   diurnal temperature range, °C
//	agdd                  accumulated growing degree days, base 0 °C
//
// # Validation
//
// A row is valid only when latitude ∈ [-90, 90] and longitude ∈ [-180, 180]
// and both parse as finite numbers. Invalid rows are dropped at ingestion and
// counted; they never reach the query layer. Bloom stages outside {0, 1, 2}
// are clamped into range rather than dropped, matching the tolerance of the
// rest of the numeric columns.
//
// # ID Generation
//
// Observation IDs are deterministic SHA-256 hashes of lat|lon|year|month, so
// replaying the same stream message or re-ingesting the same CSV row yields
// the same ID. The dataset store uses this for idempotent appends and the
// stream sink keys messages by it. See [generateID].
package domain
