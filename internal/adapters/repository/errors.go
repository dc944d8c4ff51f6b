package repository

import (
	"errors"
	"fmt"

	"github.com/okian/pitwall/internal/domain/model"
)

// Sentinel kinds for run store errors.
var (
	ErrNotFound     = fmt.Errorf("run %w", model.ErrNotFound)
	ErrInvalidLimit = errors.New("invalid list limit")
	ErrInvalidRun   = errors.New("invalid run")
)
