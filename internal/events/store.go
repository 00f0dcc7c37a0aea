package events

import "time"

// StoreQuery is emitted after a storage backend runs one statement.
type StoreQuery struct {
	Backend   string
	Operation string
	Err       error
	Duration  time.Duration
}
