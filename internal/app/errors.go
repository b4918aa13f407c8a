package app

import "errors"

// Sentinel kinds for orchestration errors.
var (
	ErrPlanning = errors.New("category planning failed")
)
