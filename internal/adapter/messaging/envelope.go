package messaging

import "encoding/json"

// request is an inbound NestJS message: the pattern it was sent on, its
// payload and the correlation id the caller waits for.
type request struct {
	Pattern json.RawMessage `json:"pattern"`
	Data    json.RawMessage `json:"data"`
	ID      string          `json:"id"`
}

// reply answers a request. Exactly one of Response and Err is set.
type reply struct {
	Response   any    `json:"response,omitempty"`
	Err        any    `json:"err,omitempty"`
	IsDisposed bool   `json:"isDisposed"`
	ID         string `json:"id"`
}

// event is a fire-and-forget NestJS message.
type event struct {
	Pattern string `json:"pattern"`
	Data    any    `json:"data"`
}
