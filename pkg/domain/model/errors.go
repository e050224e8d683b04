package model

import "github.com/m-mizutani/goerr/v2"

// Configuration errors block Complete and classification
var (
	ErrConfiguration       = goerr.New("scoring configuration error")
	ErrRangesNotConfigured = goerr.Wrap(ErrConfiguration, "no scoring ranges configured")
	ErrRangesNotCovering   = goerr.Wrap(ErrConfiguration, "scoring ranges do not cover all non-negative scores")
	ErrRangeOverlap        = goerr.Wrap(ErrConfiguration, "scoring ranges overlap")
	ErrUnknownCalcType     = goerr.Wrap(ErrConfiguration, "unknown calculation type")
)

// Workflow errors
var (
	ErrIncompleteInput   = goerr.New("required captures are missing")
	ErrInvalidTransition = goerr.New("invalid assessment transition")
	ErrInvalidCapture    = goerr.New("invalid assessment capture")
)

// Lookup errors
var (
	ErrNotFound        = goerr.New("not found")
	ErrSessionNotFound = goerr.New("assessment session not found")
)

// Context keys for error values
const (
	RiskIDKey    = "risk_id"
	SessionIDKey = "session_id"
	StepKey      = "step"
	CalcTypeKey  = "calc_type"
)
