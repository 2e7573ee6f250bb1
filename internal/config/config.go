package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported input encodings.
const (
	EncodingUTF8  = "utf-8"
	EncodingEUCKR = "euc-kr"
)

// Config holds all run settings, populated from environment variables.
// Defaults reproduce a plain run over the 2019 Seoul export.
type Config struct {
	InputPath      string
	InputEncoding  string
	OutputPath     string
	ChartDir       string
	ReportXLSXPath string
	SQLitePath     string
	MetricsFile    string

	City string
	Year int

	// Optional Kafka sink; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// KafkaEnabled reports whether observations should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	year, err := parseYear()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", "서울대기오염_2019.csv"),
		InputEncoding:   strings.ToLower(sharedcfg.EnvOrDefault("INPUT_ENCODING", EncodingUTF8)),
		OutputPath:      sharedcfg.EnvOrDefault("OUTPUT_PATH", "201906_output.csv"),
		ChartDir:        sharedcfg.EnvOrDefault("CHART_DIR", "charts"),
		ReportXLSXPath:  os.Getenv("REPORT_XLSX_PATH"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		MetricsFile:     os.Getenv("METRICS_FILE"),
		City:            sharedcfg.EnvOrDefault("CITY", "Seoul"),
		Year:            year,
		KafkaBrokers:    parseBrokers(),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "air-quality-observations"),
		BatchSize:       batchSize,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.InputEncoding != EncodingUTF8 && cfg.InputEncoding != EncodingEUCKR {
		return nil, fmt.Errorf("invalid INPUT_ENCODING %q: want %s or %s", cfg.InputEncoding, EncodingUTF8, EncodingEUCKR)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func parseYear() (int, error) {
	s := os.Getenv("YEAR")
	if s == "" {
		return 2019, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1900 || n > 9999 {
		return 0, errors.New("invalid YEAR")
	}
	return n, nil
}

// parseBrokers returns nil when KAFKA_BROKERS is unset so the sink stays off.
func parseBrokers() []string {
	v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if v == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(v)
}
