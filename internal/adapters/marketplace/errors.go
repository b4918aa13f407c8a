package marketplace

import "errors"

// Sentinel kinds for marketplace acquisition errors.
var (
	ErrBadBaseURL     = errors.New("invalid marketplace base url")
	ErrTransient      = errors.New("transient marketplace failure")
	ErrUpstreamStatus = errors.New("unexpected marketplace status")
	ErrParse          = errors.New("parse search page failed")
)
