package config

import (
	_ "embed"
)

//go:embed markedit.default.yaml
var defaultYAML []byte

var defaults Config

func init() {
	cfg, err := parseYAMLOnto(&Config{}, defaultYAML)
	if err != nil {
		panic(err)
	}
	defaults = *cfg
}

// Default returns a copy of the default configuration.
func Default() *Config {
	cfg := defaults
	return &cfg
}
