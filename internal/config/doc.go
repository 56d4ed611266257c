// Package config loads the stopwatch application settings from YAML.
package config
