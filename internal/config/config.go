package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "facereg.yaml"

type Config struct {
	Engine      string    `yaml:"engine"`
	Gallery     string    `yaml:"gallery"`  // gob file, SQLite file or postgres:// URL
	EnrollDir   string    `yaml:"cadastro"` // folder of <name>.<ext> photos
	Source      string    `yaml:"source"`   // camera index or video file
	ModelsDir   string    `yaml:"models"`
	CascadeFile string    `yaml:"cascade_file"`
	Metric      string    `yaml:"metric"`
	Threshold   *float64  `yaml:"threshold"` // nil uses the metric default
	AutoRebuild bool      `yaml:"auto_rebuild"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Engine:    "dlib",
		Gallery:   "face_encodings.gob",
		EnrollDir: "cadastro",
		Source:    "0",
		Log:       LogConfig{Level: "info"},
	}
}

// Load layers the YAML file at path (or DefaultFile if path is empty and the
// file exists) and then FACEREG_* environment variables over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file, defaults and env only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envString("FACEREG_ENGINE", &c.Engine)
	envString("FACEREG_GALLERY", &c.Gallery)
	envString("FACEREG_CADASTRO", &c.EnrollDir)
	envString("FACEREG_SOURCE", &c.Source)
	envString("FACEREG_MODELS", &c.ModelsDir)
	envString("FACEREG_CASCADE_FILE", &c.CascadeFile)
	envString("FACEREG_METRIC", &c.Metric)
	envString("FACEREG_LOG_LEVEL", &c.Log.Level)
	envString("FACEREG_LOG_FILE", &c.Log.File)

	if s := os.Getenv("FACEREG_THRESHOLD"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid FACEREG_THRESHOLD %q", s)
		}
		c.Threshold = &v
	}
	if s := os.Getenv("FACEREG_AUTO_REBUILD"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid FACEREG_AUTO_REBUILD %q", s)
		}
		c.AutoRebuild = v
	}
	return nil
}

// envString overwrites *dst when key is set and non-empty.
func envString(key string, dst *string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}
