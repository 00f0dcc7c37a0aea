package events

import "time"

// LoaderBatch is emitted after a batch loader fetch completes.
type LoaderBatch struct {
	Loader   string
	Keys     int
	Err      error
	Duration time.Duration
}
