// Package queue carries tracking messages from the request path to the
// statistics consumer. Dispatch is fire-and-forget: the producer never
// blocks a response on queue availability.
package queue

import (
	"context"
	"errors"

	"github.com/fizzlabs/fizzbuzz-service/internal/fizzbuzz"
)

// ErrEmpty reports that no message was available within the pop timeout.
var ErrEmpty = errors.New("queue: no message available")

// TrackMessage is the producer-to-consumer payload recording that a
// sequence request happened.
type TrackMessage struct {
	Start    int    `json:"start"`
	Limit    int    `json:"limit"`
	Divisor1 int    `json:"divisor1"`
	Divisor2 int    `json:"divisor2"`
	Str1     string `json:"str1"`
	Str2     string `json:"str2"`
}

// NewTrackMessage builds the payload for a request.
func NewTrackMessage(req fizzbuzz.Request) TrackMessage {
	return TrackMessage{
		Start:    req.Start,
		Limit:    req.Limit,
		Divisor1: req.Divisor1,
		Divisor2: req.Divisor2,
		Str1:     req.Str1,
		Str2:     req.Str2,
	}
}

// Request reconstructs the request identity carried by the message.
func (m TrackMessage) Request() fizzbuzz.Request {
	return fizzbuzz.Request{
		Start:    m.Start,
		Limit:    m.Limit,
		Divisor1: m.Divisor1,
		Divisor2: m.Divisor2,
		Str1:     m.Str1,
		Str2:     m.Str2,
	}
}

// Producer enqueues tracking messages.
type Producer interface {
	Publish(ctx context.Context, msg TrackMessage) error
}

// Source yields tracking messages to the consumer. Pop blocks up to the
// implementation's timeout and returns ErrEmpty when nothing arrived.
type Source interface {
	Pop(ctx context.Context) (TrackMessage, error)
}
