package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig = fmt.Errorf("secondbrain: invalid config")
	ErrNotFound      = fmt.Errorf("secondbrain: not found")
	ErrInvalidParams = fmt.Errorf("secondbrain: invalid params")
	ErrInternal      = fmt.Errorf("secondbrain: internal error")
	ErrNoTerminal    = fmt.Errorf("secondbrain: pipeline ended before terminal state")
)
