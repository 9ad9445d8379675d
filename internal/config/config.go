// Package config loads application configuration from environment variables
// and the optional business calendar file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken    string
	GitHubUsername string
	ProjectName    string
	PollInterval   time.Duration
	ListenAddr     string
	DBPath         string
	CalendarPath   string
}

// CalendarConfig is the business calendar file: a list of holiday dates that
// are excluded from business-time arithmetic. The file is JSONC (JSON with
// comments and trailing commas) so the holiday list can be annotated in place.
// Dates tolerate several formats; unparseable entries are dropped downstream.
type CalendarConfig struct {
	Holidays []string `json:"holidays"`
}

// HasGitHubCredentials returns true when both GitHubToken and GitHubUsername
// are non-empty. Used by the composition root to decide whether polling can
// start.
func (c *Config) HasGitHubCredentials() bool {
	return c.GitHubToken != "" && c.GitHubUsername != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// GitHub credentials (WORKPANEL_GITHUB_TOKEN, WORKPANEL_GITHUB_USERNAME) are optional;
// if absent, the app starts but polling is inactive until they are provided.
// Optional variables with defaults: WORKPANEL_PROJECT_NAME (empty, board statuses
// then never match), WORKPANEL_POLL_INTERVAL (5m), WORKPANEL_LISTEN_ADDR
// (127.0.0.1:8080), WORKPANEL_DB_PATH (workpanel.db), WORKPANEL_CALENDAR_PATH
// (workpanel.calendar.jsonc).
func Load() (*Config, error) {
	token := os.Getenv("WORKPANEL_GITHUB_TOKEN")
	username := os.Getenv("WORKPANEL_GITHUB_USERNAME")
	projectName := os.Getenv("WORKPANEL_PROJECT_NAME")

	pollInterval := 5 * time.Minute
	if v, ok := os.LookupEnv("WORKPANEL_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WORKPANEL_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		pollInterval = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("WORKPANEL_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "workpanel.db"
	if v, ok := os.LookupEnv("WORKPANEL_DB_PATH"); ok {
		dbPath = v
	}

	calendarPath := "workpanel.calendar.jsonc"
	if v, ok := os.LookupEnv("WORKPANEL_CALENDAR_PATH"); ok {
		calendarPath = v
	}

	return &Config{
		GitHubToken:    token,
		GitHubUsername: username,
		ProjectName:    projectName,
		PollInterval:   pollInterval,
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		CalendarPath:   calendarPath,
	}, nil
}

// LoadCalendar reads and parses the business calendar file. A missing file is
// not an error when the path was left at its default: the calendar simply has
// no holidays. An explicitly configured path must exist.
func LoadCalendar(path string) (*CalendarConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("WORKPANEL_CALENDAR_PATH") == "" {
			return &CalendarConfig{Holidays: []string{}}, nil
		}
		return nil, fmt.Errorf("reading calendar file %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("calendar file %s is not valid JSONC: %w", path, err)
	}

	var cal CalendarConfig
	if err := json.Unmarshal(standardized, &cal); err != nil {
		return nil, fmt.Errorf("parsing calendar file %s: %w", path, err)
	}

	if cal.Holidays == nil {
		cal.Holidays = []string{}
	}

	return &cal, nil
}
