// Package events declares the payloads published on the eventbus. Logging,
// metrics and tracing subscribe to them; the code that publishes them does
// not know who listens.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the GraphQL handler receives a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published once the response has been written.
type HTTPFinish struct {
	Request *http.Request
	Status  int
	// Operations is how many GraphQL operations the request carried. It is 0
	// when the request was rejected before decoding finished.
	Operations int
	Duration   time.Duration
}

// GraphQLStart is published before one operation runs. Batched requests
// publish it once per operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is published after one operation ran. Errors holds the
// located errors of the result.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}
