package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrLastScenario = errors.New("cannot delete the last remaining scenario")
)
