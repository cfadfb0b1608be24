package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch: the sheet or the rate source is unreachable or returned unusable content.
	ErrFetch = errors.New("fetch failed")
	// ErrRateUnavailable is the ErrFetch case where no rate could be found in the text.
	ErrRateUnavailable = fmt.Errorf("%w: rate unavailable", ErrFetch)
	// ErrStore: a store operation could not complete; transactions are rolled back.
	ErrStore = errors.New("store failed")
	// ErrDelivery: a single message could not be delivered to a subscriber.
	ErrDelivery = errors.New("delivery failed")
)
