// Package config provides configuration structures and utilities for PricePal.
// It defines the runtime options built from CLI flags, the YAML project file
// that lists tracked products, the JSON credentials file used for outgoing
// email, and the JSON test-case file consumed by the check command.
package config
