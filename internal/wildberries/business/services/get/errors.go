package get

import (
	"errors"
	"fmt"
)

// ErrNotFound is the common root of every "nothing to monitor" outcome.
var ErrNotFound = errors.New("not found")

var (
	ErrShardNotFound     = fmt.Errorf("basket shard %w", ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("product card %w", ErrNotFound)
	ErrFeedbacksNotFound = fmt.Errorf("feedbacks %w", ErrNotFound)
)
