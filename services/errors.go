package services

import (
	"errors"
	"fmt"
)

// Caller-facing error taxonomy. Every storage failure is translated into
// one of these before it leaves the services package; raw pgx errors never
// reach a caller.
var (
	// ErrBasketNotFound means no basket carries the given code.
	ErrBasketNotFound = errors.New("basket not found")

	// ErrItemNotFound means the item id does not exist inside the named
	// basket. An id that exists in a different basket still gets this.
	ErrItemNotFound = errors.New("item not found in this basket")

	// ErrBusy is a retryable contention failure. Nothing was committed;
	// the caller should retry with backoff.
	ErrBusy = errors.New("store is busy")

	// ErrNameRequired rejects a join with an empty participant name.
	ErrNameRequired = errors.New("name is required")
)

// translate maps an error coming out of a guarded transaction onto the
// taxonomy above. NotFound sentinels pass through; anything else is
// surfaced as retryable contention, which is the dominant failure mode
// once the write guard serializes mutations.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBasketNotFound) || errors.Is(err, ErrItemNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBusy, err)
}
