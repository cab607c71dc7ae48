package core

import "errors"

var (
	ErrUnknownIndicatorKind = errors.New("unknown indicator kind")
	ErrInvalidParameters    = errors.New("invalid indicator parameters")
	ErrIndicatorNotFound    = errors.New("indicator not found")
	ErrSurfaceUnavailable   = errors.New("chart surface unavailable")
)
