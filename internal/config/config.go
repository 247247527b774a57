// Package config loads the YAML description of an ethlog client's
// endpoint fleet: a primary tier and a backup tier, each a list of
// JSON-RPC endpoints with optional per-endpoint overrides of the
// default quota and log-range borders.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmagro/ethlog/internal/ethval"
)

// Config is the parsed contents of a fleet YAML file.
type Config struct {
	Primary []EndpointSpec `yaml:"primary"`
	Backup  []EndpointSpec `yaml:"backup"`
}

// EndpointSpec is one configured endpoint, with overrides left at
// their zero value meaning "use the default".
type EndpointSpec struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	BatchLimit        uint          `yaml:"batch_limit,omitempty"`
	BatchTimespan     time.Duration `yaml:"batch_timespan,omitempty"`
	LogSafeGap        uint64        `yaml:"log_safe_gap,omitempty"`
	LogRangeBoundary  uint64        `yaml:"log_range_boundary,omitempty"`
	LogSizeBorderMiB  uint64        `yaml:"log_size_border_mib,omitempty"`
	LogTimeBorder     time.Duration `yaml:"log_time_border,omitempty"`
	LogQuantityBorder uint64        `yaml:"log_quantity_border,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
}

// Load reads path, expands ${VAR} references against the current
// environment, and parses the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Endpoints builds the validated ethval.EthEndpoint list for specs,
// applying each spec's overrides on top of NewEthEndpoint's defaults.
func Endpoints(specs []EndpointSpec) ([]ethval.EthEndpoint, error) {
	out := make([]ethval.EthEndpoint, 0, len(specs))
	for _, spec := range specs {
		ep, err := NewEndpoint(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

// NewEndpoint builds a single ethval.EthEndpoint from spec, applying
// any non-zero override field on top of the defaults.
func NewEndpoint(spec EndpointSpec) (ethval.EthEndpoint, error) {
	ep, err := ethval.NewEthEndpoint(spec.URL)
	if err != nil {
		return ethval.EthEndpoint{}, err
	}
	ep.Username = spec.Username
	ep.Password = spec.Password

	if spec.BatchLimit != 0 {
		ep.Quota.BatchLimit = spec.BatchLimit
	}
	if spec.BatchTimespan != 0 {
		ep.Quota.BatchTimespan = spec.BatchTimespan
	}
	if spec.LogSafeGap != 0 {
		ep.LogSafeGap = spec.LogSafeGap
	}
	if spec.LogRangeBoundary != 0 {
		ep.LogRangeBoundary = spec.LogRangeBoundary
	}
	if spec.LogSizeBorderMiB != 0 {
		ep.LogSizeBorder = ethval.NewDataSize(spec.LogSizeBorderMiB * 1024 * 1024)
	}
	if spec.LogTimeBorder != 0 {
		ep.LogTimeBorder = spec.LogTimeBorder
	}
	if spec.LogQuantityBorder != 0 {
		ep.LogQuantityBorder = spec.LogQuantityBorder
	}
	if spec.Timeout != 0 {
		ep.Timeout = spec.Timeout
	}
	return ep, nil
}
