package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig  = goerr.New("invalid configuration")
	ErrDuplicateID    = goerr.New("duplicate ID")
	ErrInvalidWeight  = goerr.New("weight must be positive")
	ErrMissingName    = goerr.New("name is required")
	ErrInvalidBackend = goerr.New("invalid backend")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	IDKey         = "id"
	BackendKey    = "backend"
)
