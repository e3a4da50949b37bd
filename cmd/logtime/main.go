// Package main provides a CLI that prints the monthly logtime calendar of a
// student, either from a running gateway or from a saved /logs response.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/constants"
	"github.com/arnaudderison/logtime19/internal/logtime"
	"github.com/arnaudderison/logtime19/internal/models"
	"github.com/arnaudderison/logtime19/internal/report"
	"github.com/arnaudderison/logtime19/internal/session"
	"github.com/arnaudderison/logtime19/pkg/logger"
)

// LogtimeCLI fetches /logs from a running gateway.
type LogtimeCLI struct {
	gatewayURL string
	client     *http.Client
}

func main() {
	var (
		gatewayURL = flag.String("gateway", "http://localhost:5001", "Gateway base URL")
		token      = flag.String("token", "", "42 access token used to call the gateway")
		file       = flag.String("file", "", "Path to a saved /logs JSON response")
		asJSON     = flag.Bool("json", false, "Print the month as JSON instead of a calendar")
		verbose    = flag.Bool("v", false, "Log dropped session records")
	)
	flag.Parse()

	level := "error"
	if *verbose {
		level = "warn"
	}
	log := logger.New(level, "text", "stderr")

	cli := &LogtimeCLI{
		gatewayURL: strings.TrimRight(*gatewayURL, "/"),
		client:     &http.Client{Timeout: 30 * time.Second},
	}

	var (
		records []models.Location
		err     error
	)
	switch {
	case *file != "":
		records, err = readLogsFile(*file)
	case *token != "":
		records, err = cli.fetchLogs(*token)
	default:
		fmt.Fprintf(os.Stderr, "Please specify -token or -file\n")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sessions: %v\n", err)
		os.Exit(1)
	}

	if err := printMonth(os.Stdout, records, time.Now(), *asJSON, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
		os.Exit(1)
	}
}

func printMonth(w io.Writer, records []models.Location, now time.Time, asJSON bool, log *logrus.Logger) error {
	loc, err := time.LoadLocation(logtime.DefaultZone)
	if err != nil {
		return fmt.Errorf("failed to load time zone: %w", err)
	}

	captureTime := now.UTC()
	result := session.Normalize(records, captureTime, log)
	month := report.BuildMonth(result.Sessions, loc, captureTime)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(month)
	}
	return report.Render(w, month)
}

func (c *LogtimeCLI) fetchLogs(token string) ([]models.Location, error) {
	req, err := http.NewRequest(http.MethodGet, c.gatewayURL+"/logs", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr models.APIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("gateway error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("gateway error (%d): %s", resp.StatusCode, string(body))
	}

	var records []models.Location
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return records, nil
}

// validateFilePath rejects traversal sequences and non-JSON files.
func validateFilePath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return errors.New("directory traversal not allowed in file path")
	}
	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("sessions file must be a JSON file")
	}
	return nil
}

func readLogsFile(path string) ([]models.Location, error) {
	if err := validateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	// #nosec G304 - path is validated above to prevent directory traversal
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions file: %w", err)
	}
	defer file.Close()

	var records []models.Location
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse sessions file: %w", err)
	}
	return records, nil
}
