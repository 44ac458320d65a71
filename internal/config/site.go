package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written in the
// usual Go notation ("500ms", "2s"). yaml.v3 has no built-in decoding
// for time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// SiteConfig holds per-host overrides for a single site.
// This allows tuning crawl behavior for hosts that need it without
// changing the global flags.
type SiteConfig struct {
	// Delay overrides the global crawl delay for this host.
	// If zero, the global delay is used.
	Delay Duration `yaml:"delay,omitempty"`

	// MaxPages overrides the global page budget for this host.
	// If zero, the global budget is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// ImagesPerPage overrides the global per-page image cap for this
	// host. If zero, the global cap is used.
	ImagesPerPage int `yaml:"imagesPerPage,omitempty"`
}

// File represents the structure of the .webharvest.yaml configuration file.
type File struct {
	// Sites maps hosts to their overrides.
	// Keys are bare hosts without the scheme (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to every host unless the
	// host has its own entry for that field.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the host's entry over Defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Delay != 0 {
			result.Delay = siteConfig.Delay
		}
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if siteConfig.ImagesPerPage != 0 {
			result.ImagesPerPage = siteConfig.ImagesPerPage
		}
	}

	return result
}

// ApplyTo copies the non-zero overrides onto a Config. The Config is
// the per-seed copy built by the CLI, never the shared one.
func (sc SiteConfig) ApplyTo(c *Config) {
	if sc.Delay != 0 {
		c.CrawlDelay = time.Duration(sc.Delay)
	}
	if sc.MaxPages != 0 {
		c.MaxPages = sc.MaxPages
	}
	if sc.ImagesPerPage != 0 {
		c.ImagesPerPage = sc.ImagesPerPage
	}
}
