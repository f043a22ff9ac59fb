// Package push delivers notifications to device tokens.
//
// Delivery is best-effort: callers log failures and never retry. A Sender
// reports per-message outcomes for multicast so fan-out can count them.
package push

import (
	"context"
	"errors"
)

// MaxBatch is the transport's multicast ceiling
const MaxBatch = 500

// ErrTokenExpired is returned when the destination token is no longer registered
var ErrTokenExpired = errors.New("push token no longer registered")

// Message is one push to one destination token
type Message struct {
	Token string            `json:"-"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Link  string            `json:"link,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// ItemResult outcome of one message in a multicast
type ItemResult struct {
	Token   string
	Success bool
	Err     error
}

// BatchResult outcome of SendMany
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Items        []ItemResult
}

// Sender is the push transport
type Sender interface {
	SendOne(ctx context.Context, msg Message) error
	// SendMany sends at most MaxBatch messages
	SendMany(ctx context.Context, msgs []Message) (*BatchResult, error)
}
