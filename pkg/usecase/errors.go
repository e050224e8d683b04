package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrInvalidInput is returned for malformed requests such as unknown catalog levels
	ErrInvalidInput = goerr.New("invalid input")
)

// Context keys for error values
const (
	RangeIDKey = "range_id"
	LevelIDKey = "level_id"
)
