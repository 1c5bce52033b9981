package memory

import (
	"errors"
	"fmt"
)

// ErrInvalidLimit is returned by Recall for a negative limit.
var ErrInvalidLimit = errors.New("recall limit must not be negative")

// CheckLimit validates a Recall limit.
func CheckLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}
