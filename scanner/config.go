package scanner

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"self-checkout/detection"
)

type SourceConfig struct {
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
}

type Config struct {
	CartAPIURL        string         `yaml:"cart_api_url"`
	RequestTimeout    time.Duration  `yaml:"request_timeout"`
	BatchSend         bool           `yaml:"batch_send"`
	SessionID         string         `yaml:"session_id"`
	MinConfidence     float64        `yaml:"min_confidence"`
	IoUThreshold      float64        `yaml:"iou_threshold"`
	DebounceWindow    time.Duration  `yaml:"debounce_window"`
	DetectionInterval time.Duration  `yaml:"detection_interval"`
	SendInterval      time.Duration  `yaml:"send_interval"`
	CatalogRefresh    time.Duration  `yaml:"catalog_refresh"`
	SnapshotURL       string         `yaml:"snapshot_url"`
	SnapshotInterval  time.Duration  `yaml:"snapshot_interval"`
	InferenceTimeout  time.Duration  `yaml:"inference_timeout"`
	AliasesFile       string         `yaml:"aliases_file"`
	Sources           []SourceConfig `yaml:"sources"`
}

func DefaultConfig() Config {
	return Config{
		CartAPIURL:        "http://localhost:8000",
		RequestTimeout:    5 * time.Second,
		BatchSend:         true,
		MinConfidence:     detection.DefaultMinConfidence,
		IoUThreshold:      detection.DefaultIoUThreshold,
		DebounceWindow:    detection.DefaultDebounceWindow,
		DetectionInterval: 500 * time.Millisecond,
		CatalogRefresh:    time.Minute,
		SnapshotInterval:  100 * time.Millisecond,
		InferenceTimeout:  3 * time.Second,
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// keeps the defaults. CART_API_URL overrides the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read scanner config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse scanner config: %w", err)
		}
	}
	if url := os.Getenv("CART_API_URL"); url != "" {
		cfg.CartAPIURL = url
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.CartAPIURL == "" {
		errs = append(errs, errors.New("cart_api_url is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.DetectionInterval <= 0 {
		errs = append(errs, errors.New("detection_interval must be positive"))
	}
	if c.SnapshotURL != "" && c.SnapshotInterval <= 0 {
		errs = append(errs, errors.New("snapshot_interval must be positive"))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, errors.New("min_confidence must be within [0,1]"))
	}
	for i, s := range c.Sources {
		if s.Category == "" || s.URL == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: category and url are required", i))
		}
	}
	return errors.Join(errs...)
}
