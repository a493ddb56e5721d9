package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/open-edge-platform/host-bootstrap/internal/config/validate"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

// Bootstrap is the full configuration of a bootstrap run. Compiled-in
// defaults cover a stock installation; an optional YAML file overrides
// individual fields.
type Bootstrap struct {
	Packages    PackagesConfig    `yaml:"packages" json:"packages"`
	Interpreter InterpreterConfig `yaml:"interpreter" json:"interpreter"`
	Repository  RepositoryConfig  `yaml:"repository" json:"repository"`
	Runtime     RuntimeConfig     `yaml:"runtime" json:"runtime"`
	Release     ReleaseConfig     `yaml:"release" json:"release"`
	Tool        ToolConfig        `yaml:"tool" json:"tool"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// PackagesConfig lists host packages that must be present before anything
// else runs.
type PackagesConfig struct {
	Required []string `yaml:"required" json:"required"`
}

// InterpreterConfig pins the interpreter the installed tool depends on.
type InterpreterConfig struct {
	Binary     string `yaml:"binary" json:"binary"`
	MinVersion string `yaml:"minVersion" json:"minVersion"`
}

// RepositoryConfig describes the third-party package repository.
type RepositoryConfig struct {
	Name      string `yaml:"name" json:"name"`
	KeyURL    string `yaml:"keyUrl" json:"keyUrl"`
	URL       string `yaml:"url" json:"url"`
	Component string `yaml:"component" json:"component"`
}

// RuntimeConfig describes the container runtime packages and service.
type RuntimeConfig struct {
	Preferred []string `yaml:"preferred" json:"preferred"`
	Fallback  string   `yaml:"fallback" json:"fallback"`
	Service   string   `yaml:"service" json:"service"`
	Probe     string   `yaml:"probe" json:"probe"`
}

// ReleaseConfig locates the tool release archive. The URL template accepts
// {version} and {arch} placeholders.
type ReleaseConfig struct {
	URLTemplate string `yaml:"urlTemplate" json:"urlTemplate"`
	Version     string `yaml:"version" json:"version"`
}

// ToolConfig describes the installed tool binary and how it is invoked.
type ToolConfig struct {
	Binary            string   `yaml:"binary" json:"binary"`
	InstallPath       string   `yaml:"installPath" json:"installPath"`
	InstallArgs       []string `yaml:"installArgs" json:"installArgs"`
	FallbackConfigKey string   `yaml:"fallbackConfigKey" json:"fallbackConfigKey"`
}

// OutputConfig places the captured credential under the invoking user's home.
type OutputConfig struct {
	Subdir   string `yaml:"subdir" json:"subdir"`
	Filename string `yaml:"filename" json:"filename"`
}

// URL expands the release URL template for the given architecture.
func (r ReleaseConfig) URL(arch string) string {
	url := strings.ReplaceAll(r.URLTemplate, "{version}", r.Version)
	return strings.ReplaceAll(url, "{arch}", arch)
}

// Default returns the compiled-in configuration.
func Default() Bootstrap {
	return Bootstrap{
		Packages: PackagesConfig{
			Required: []string{"curl", "ca-certificates", "gnupg", "tar"},
		},
		Interpreter: InterpreterConfig{
			Binary:     "python3",
			MinVersion: "3.8.0",
		},
		Repository: RepositoryConfig{
			Name:      "docker",
			KeyURL:    "https://download.docker.com/linux/ubuntu/gpg",
			URL:       "https://download.docker.com/linux/ubuntu",
			Component: "stable",
		},
		Runtime: RuntimeConfig{
			Preferred: []string{"docker-ce", "docker-ce-cli", "containerd.io", "docker-compose-plugin"},
			Fallback:  "docker.io",
			Service:   "docker",
			Probe:     "docker info",
		},
		Release: ReleaseConfig{
			URLTemplate: "https://github.com/appstack-io/appstack/releases/download/v{version}/appstack-{version}-linux-{arch}.tar.gz",
			Version:     "1.4.2",
		},
		Tool: ToolConfig{
			Binary:            "appstack",
			InstallPath:       "/usr/local/bin/appstack",
			InstallArgs:       []string{"install"},
			FallbackConfigKey: "admin.password",
		},
		Output: OutputConfig{
			Subdir:   "appstack",
			Filename: "credentials.txt",
		},
	}
}

// Load returns the defaults overridden by the YAML file at path. An empty
// path returns the defaults unchanged. The file is validated against the
// bootstrap schema before it is applied.
func Load(path string) (Bootstrap, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	log := logger.Logger()
	log.Infof("Loading configuration from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return cfg, fmt.Errorf("failed to convert config to JSON: %w", err)
	}
	if err := validate.ValidateBootstrapJSON(jsonData); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
