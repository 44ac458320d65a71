// Package config provides configuration structures and utilities for
// webharvest. It defines the main options for crawling, image
// acquisition, archiving, and report generation, plus the YAML file
// with per-host overrides.
package config
