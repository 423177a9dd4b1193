// Replay tool for testing GSMAP against historical typhoon weather data.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/observations.csv -url http://localhost:8080
//
// This tool:
//   1. Reads hourly weather observations per barangay (with optional
//      expected alert labels from post-disaster assessments)
//   2. Sends each observation to the GSMAP ingest endpoint
//   3. Fetches the resulting alert listing
//   4. Compares produced alert levels with expected labels when present
//
// Expected CSV columns (header, case-insensitive):
//   areaid, rainfallmm, soilmoisture, windspeedms [, observedat, expectedlevel]
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Observation represents a row from the historical dataset
type Observation struct {
	AreaID        int64
	RainfallMm    float64
	SoilMoisture  float64
	WindSpeedMs   float64
	ObservedAt    string
	ExpectedLevel string
}

// Metrics tracks replay results
type Metrics struct {
	TotalProcessed int64
	TotalErrors    int64
	IngestTimeMs   int64
}

func main() {
	csvPath := flag.String("csv", "", "Path to weather observations CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "GSMAP base URL")
	limit := flag.Int("limit", 0, "Maximum observations to replay (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each ingest result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/observations.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("GSMAP REPLAY - historical weather against the DSS pipeline")
	fmt.Printf("\nCSV File:  %s\n", *csvPath)
	fmt.Printf("GSMAP URL: %s\n", *baseURL)
	fmt.Printf("Workers:   %d\n", *workers)
	fmt.Printf("Limit:     %d\n", *limit)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: GSMAP not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure the server is running:")
		fmt.Println("  go run cmd/gsmap/main.go")
		os.Exit(1)
	}
	fmt.Println("server is healthy")

	fmt.Printf("\nReading observations from %s...\n", *csvPath)
	observations, err := readObservationsCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("loaded %d observations\n", len(observations))

	fmt.Printf("\nReplaying with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runReplay(observations, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	produced, err := fetchAlerts(*baseURL)
	if err != nil {
		fmt.Printf("WARNING: failed to fetch alerts after replay: %v\n", err)
	}

	printResults(metrics, duration, observations, produced)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readObservationsCSV(path string, limit int) ([]Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"areaid", "rainfallmm", "soilmoisture", "windspeedms"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var observations []Observation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		areaID, err := strconv.ParseInt(record[colIndex["areaid"]], 10, 64)
		if err != nil {
			continue
		}
		rainfall, _ := strconv.ParseFloat(record[colIndex["rainfallmm"]], 64)
		soil, _ := strconv.ParseFloat(record[colIndex["soilmoisture"]], 64)
		wind, _ := strconv.ParseFloat(record[colIndex["windspeedms"]], 64)

		obs := Observation{
			AreaID:       areaID,
			RainfallMm:   rainfall,
			SoilMoisture: soil,
			WindSpeedMs:  wind,
		}
		if idx, ok := colIndex["observedat"]; ok {
			obs.ObservedAt = record[idx]
		}
		if idx, ok := colIndex["expectedlevel"]; ok {
			obs.ExpectedLevel = strings.ToUpper(strings.TrimSpace(record[idx]))
		}

		observations = append(observations, obs)
		if limit > 0 && len(observations) >= limit {
			break
		}
	}

	return observations, nil
}

func runReplay(observations []Observation, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan Observation, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for obs := range work {
				start := time.Now()
				err := ingestObservation(client, baseURL, obs)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.IngestTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: area %d -> %v\n", obs.AreaID, err)
					}
					continue
				}

				if verbose {
					fmt.Printf("area %d: %.1fmm rain, %.2f soil, %.1fm/s wind (%dms)\n",
						obs.AreaID, obs.RainfallMm, obs.SoilMoisture, obs.WindSpeedMs, elapsed)
				}
			}
		}()
	}

	for _, obs := range observations {
		work <- obs
	}
	close(work)
	wg.Wait()

	return metrics
}

func ingestObservation(client *http.Client, baseURL string, obs Observation) error {
	payload := map[string]any{
		"areaId":       obs.AreaID,
		"rainfallMm":   obs.RainfallMm,
		"soilMoisture": obs.SoilMoisture,
		"windSpeedMs":  obs.WindSpeedMs,
	}
	if obs.ObservedAt != "" {
		payload["observedAt"] = obs.ObservedAt
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(baseURL+"/weather", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// alertListing is the subset of GET /dss/alerts used for comparison.
type alertListing struct {
	Alerts []struct {
		AreaID int64 `json:"areaId"`
		Level  struct {
			Level string `json:"level"`
		} `json:"alertLevel"`
	} `json:"alerts"`
	Statistics struct {
		Total   int `json:"total"`
		ByLevel struct {
			Red    int `json:"RED"`
			Orange int `json:"ORANGE"`
			Yellow int `json:"YELLOW"`
		} `json:"byLevel"`
	} `json:"statistics"`
}

func fetchAlerts(baseURL string) (*alertListing, error) {
	resp, err := http.Get(baseURL + "/dss/alerts")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return &alertListing{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var listing alertListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func printResults(metrics *Metrics, duration time.Duration, observations []Observation, produced *alertListing) {
	fmt.Println("\n=== REPLAY RESULTS ===")
	fmt.Printf("Observations:  %d\n", metrics.TotalProcessed)
	fmt.Printf("Errors:        %d\n", metrics.TotalErrors)
	fmt.Printf("Duration:      %s\n", duration.Round(time.Millisecond))
	if metrics.TotalProcessed > 0 {
		fmt.Printf("Avg ingest:    %.1fms\n", float64(metrics.IngestTimeMs)/float64(metrics.TotalProcessed))
		fmt.Printf("Throughput:    %.0f obs/sec\n", float64(metrics.TotalProcessed)/duration.Seconds())
	}

	if produced == nil {
		return
	}

	fmt.Println("\n=== ALERT DISTRIBUTION ===")
	fmt.Printf("Total alerts:  %d\n", produced.Statistics.Total)
	fmt.Printf("RED:           %d\n", produced.Statistics.ByLevel.Red)
	fmt.Printf("ORANGE:        %d\n", produced.Statistics.ByLevel.Orange)
	fmt.Printf("YELLOW:        %d\n", produced.Statistics.ByLevel.Yellow)

	// Compare with expected labels when the dataset carries them.
	// The last observation per area is the one the classifier saw.
	expected := make(map[int64]string)
	for _, obs := range observations {
		if obs.ExpectedLevel != "" {
			expected[obs.AreaID] = obs.ExpectedLevel
		}
	}
	if len(expected) == 0 {
		return
	}

	levelByArea := make(map[int64]string)
	for _, a := range produced.Alerts {
		levelByArea[a.AreaID] = a.Level.Level
	}

	matches, misses := 0, 0
	for areaID, want := range expected {
		got := levelByArea[areaID]
		if got == "" {
			got = "GREEN"
		}
		if got == want {
			matches++
		} else {
			misses++
			fmt.Printf("  area %d: got %s, assessment says %s\n", areaID, got, want)
		}
	}

	fmt.Println("\n=== LABEL COMPARISON ===")
	fmt.Printf("Labeled areas: %d\n", len(expected))
	fmt.Printf("Matches:       %d (%.1f%%)\n", matches, 100*float64(matches)/float64(len(expected)))
	fmt.Printf("Mismatches:    %d\n", misses)
}
