// Package config loads the service configuration with a fixed precedence:
// built-in defaults, then an optional YAML file, then LIFEOS_* environment
// variables.
package config
