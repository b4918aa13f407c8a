package catalog

import "errors"

// Sentinel kinds for planner errors.
var (
	ErrMisconfigured = errors.New("planner api key missing")
	ErrPlanRequest   = errors.New("planner request failed")
	ErrPlanResponse  = errors.New("planner response invalid")
)
