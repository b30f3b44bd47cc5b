// Package config loads and validates the console's YAML configuration.
// Files are read once with environment-variable expansion; Watch adds
// hot reload on top for callers that want it.
package config
