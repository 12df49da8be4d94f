// Package config loads kratzbaum's JSON or YAML configuration, validates
// it strictly and hot-reloads it when the file changes.
package config
