// Package config loads request collections from JSON or YAML files and turns
// their entries into request builders.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level configuration
type Config struct {
	Environments map[string]Environment `json:"environments" yaml:"environments"`
	Requests     map[string]Request     `json:"requests" yaml:"requests"`
	Suites       map[string]Suite       `json:"suites,omitempty" yaml:"suites,omitempty"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL string            `json:"baseUrl" yaml:"baseUrl"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Vars    map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// QueryParam is a single query string entry. Queries are a list so that
// their order in the file is the order on the wire.
type QueryParam struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Request represents a request configuration
type Request struct {
	Method       string            `json:"method" yaml:"method"`
	URL          string            `json:"url" yaml:"url"`
	Path         string            `json:"path,omitempty" yaml:"path,omitempty"`
	PathSections map[int]string    `json:"pathSections,omitempty" yaml:"pathSections,omitempty"`
	Query        []QueryParam      `json:"query,omitempty" yaml:"query,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Content      *string           `json:"content,omitempty" yaml:"content,omitempty"`
	JSON         any               `json:"json,omitempty" yaml:"json,omitempty"`
	Form         map[string]string `json:"form,omitempty" yaml:"form,omitempty"`
	Extract      map[string]string `json:"extract,omitempty" yaml:"extract,omitempty"`
	Validate     any               `json:"validate,omitempty" yaml:"validate,omitempty"`
	Expect       *Expect           `json:"expect,omitempty" yaml:"expect,omitempty"`
}

// Expect lists checks applied to a response. Body maps a JSONPath
// expression to the value it must extract.
type Expect struct {
	Status  int               `json:"status,omitempty" yaml:"status,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    map[string]string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Suite represents an ordered series of requests
type Suite struct {
	Requests []string          `json:"requests" yaml:"requests"`
	Vars     map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads, decodes and validates a configuration file. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Decode(data, Format(path))
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format reports the encoding implied by a file name: "yaml" or "json".
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Decode parses data in the given format without validating it.
func Decode(data []byte, format string) (*Config, error) {
	var cfg Config

	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	return &cfg, nil
}
