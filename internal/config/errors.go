package config

import "errors"

var (
	ErrInvalidDepth     = errors.New("config: invalid depth")
	ErrInvalidWorkers   = errors.New("config: invalid worker count")
	ErrInvalidPlatform  = errors.New("config: invalid platform")
	ErrInvalidTimeClass = errors.New("config: invalid time class")
	ErrInvalidStart     = errors.New("config: invalid start month")
	ErrInvalidBackend   = errors.New("config: invalid cache backend")
	ErrInvalidCodec     = errors.New("config: invalid codec")
	ErrInvalidValue     = errors.New("config: invalid value")
)
