package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all command settings, populated from environment variables.
type Config struct {
	DataDir        string
	MaskPath       string
	OutputDir      string
	Region         string
	Parameters     []string
	Taxonomy       domain.Taxonomy
	FileExtensions []string

	// Downloader settings.
	BaseURL             string
	StartYear           int
	EndYear             int // exclusive
	DailyParameters     []string
	AggregateParameters []string
	DownloadSchedule    string
	DownloadRetries     int
	DownloadRetrySleep  time.Duration
	DownloadTimeout     time.Duration

	// Optional completion notifications; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// NotificationsEnabled reports whether finished outputs are published to Kafka.
func (c *Config) NotificationsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	taxonomy, err := domain.ParseTaxonomy(sharedcfg.EnvOrDefault("DAYMET_DATA_TYPES", "daily:Daily;monthly:Monthly,Annual"))
	if err != nil {
		return nil, fmt.Errorf("DAYMET_DATA_TYPES: %w", err)
	}

	startYear, err := parseYear("DAYMET_START_YEAR", 1980)
	if err != nil {
		return nil, err
	}
	endYear, err := parseYear("DAYMET_END_YEAR", time.Now().Year())
	if err != nil {
		return nil, err
	}

	retries, err := parsePositiveInt("DOWNLOAD_RETRIES", 5)
	if err != nil {
		return nil, err
	}
	retrySleep, err := parseDuration("DOWNLOAD_RETRY_SLEEP", "30s")
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := parseDuration("DOWNLOAD_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataDir:        sharedcfg.EnvOrDefault("DAYMET_DATA_DIR", "./daymet"),
		MaskPath:       sharedcfg.EnvOrDefault("DAYMET_MASK_PATH", "./daymetmask"),
		OutputDir:      sharedcfg.EnvOrDefault("DAYMET_OUTPUT_DIR", "./out"),
		Region:         sharedcfg.EnvOrDefault("DAYMET_REGION", "GYE"),
		Parameters:     parseList(sharedcfg.EnvOrDefault("DAYMET_PARAMETERS", "tmax,tmin,prcp")),
		Taxonomy:       taxonomy,
		FileExtensions: parseList(sharedcfg.EnvOrDefault("DAYMET_FILE_EXTENSIONS", "nc4")),

		BaseURL:             sharedcfg.EnvOrDefault("DAYMET_BASE_URL", "http://thredds.daac.ornl.gov/thredds/fileServer/ornldaac"),
		StartYear:           startYear,
		EndYear:             endYear,
		DailyParameters:     parseList(sharedcfg.EnvOrDefault("DAYMET_DAILY_PARAMETERS", "dayl,prcp,srad,swe,tmax,tmin,vp")),
		AggregateParameters: parseList(sharedcfg.EnvOrDefault("DAYMET_AGGREGATE_PARAMETERS", "prcp,tmax,tmin,vp")),
		DownloadSchedule:    os.Getenv("DOWNLOAD_SCHEDULE"),
		DownloadRetries:     retries,
		DownloadRetrySleep:  retrySleep,
		DownloadTimeout:     downloadTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "daymet-outputs"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if len(cfg.Parameters) == 0 {
		return nil, errors.New("DAYMET_PARAMETERS is required")
	}
	if len(cfg.FileExtensions) == 0 {
		return nil, errors.New("DAYMET_FILE_EXTENSIONS is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("DAYMET_REGION is required")
	}
	if cfg.EndYear < cfg.StartYear {
		return nil, errors.New("DAYMET_END_YEAR must not precede DAYMET_START_YEAR")
	}
	if cfg.NotificationsEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseYear(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1000 || n > 9999 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
