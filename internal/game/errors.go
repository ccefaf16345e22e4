package game

import "errors"

var (
	ErrPlayerExists    = errors.New("player already in world")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownTemplate = errors.New("unknown enemy template")
)
