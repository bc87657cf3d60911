package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// WidgetOverride replaces parts of a built-in widget definition.
type WidgetOverride struct {
	URL      string        `yaml:"url" validate:"omitempty,url"`
	Interval time.Duration `yaml:"interval" validate:"omitempty,gte=1m"`
	Timeout  time.Duration `yaml:"timeout" validate:"omitempty,gte=1s"`
	Enabled  *bool         `yaml:"enabled"`
}

// WidgetFile is the YAML document named by WIDGETS_FILE.
type WidgetFile struct {
	Widgets map[string]WidgetOverride `yaml:"widgets" validate:"dive"`
}

// LoadWidgetFile reads per-widget overrides. An empty path yields no overrides.
func LoadWidgetFile(path string) (WidgetFile, error) {
	if path == "" {
		return WidgetFile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WidgetFile{}, fmt.Errorf("read widgets file: %w", err)
	}

	var file WidgetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return WidgetFile{}, fmt.Errorf("parse widgets file: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return WidgetFile{}, fmt.Errorf("invalid widgets file: %w", err)
	}
	return file, nil
}
