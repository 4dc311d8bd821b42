package ctrack

import (
	"github.com/pkg/errors"
)

var (
	ErrSiteNameConflict    = errors.New("call site already interned with a different name")
	ErrInvalidNonCenter    = errors.New("non-center percent must be in [1, 49]")
	ErrInvalidMinPercent   = errors.New("min percent active exclusive must be in [0, 100]")
	ErrInvalidExcludePct   = errors.New("percent exclude fastest active exclusive must be in [0, 100]")
	ErrMalformedNesting    = errors.New("events for a goroutine do not nest correctly")
)
