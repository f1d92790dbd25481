package config

import (
	"os"

	"gopkg.in/yaml.v3"

	docerrors "github.com/mysticBliss/doc-intelligence/pkg/errors"
)

// Settings holds process-wide engine configuration loaded from a YAML file.
type Settings struct {
	LogLevel    string `yaml:"log_level"`
	LogConsole  bool   `yaml:"log_console"`
	PipelineDir string `yaml:"pipeline_dir"`

	VLM struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"vlm"`

	OCR struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"ocr"`

	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		Secure    bool   `yaml:"secure"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// DefaultSettings returns the settings used when no file is supplied.
func DefaultSettings() Settings {
	var s Settings
	s.LogLevel = "info"
	s.PipelineDir = "configs"
	s.VLM.BaseURL = "http://localhost:11434"
	s.Storage.Bucket = "documents"
	return s
}

// LoadSettings reads a YAML settings file, layering it over the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, docerrors.NewParseError(path, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, docerrors.NewParseError(path, err)
	}

	if s.PipelineDir == "" {
		return s, docerrors.NewValidationError("pipeline_dir", "pipeline_dir must not be empty", nil)
	}

	return s, nil
}
