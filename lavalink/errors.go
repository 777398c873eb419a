package lavalink

import (
	"errors"
	"fmt"
)

// ErrNodeUnavailable is returned when the node's websocket
// session has not been established (or has been lost).
var ErrNodeUnavailable = errors.New("lavalink node is not available")

// RestError is the error body returned by the node's http api
type RestError struct {
	Timestamp int64  `json:"timestamp"`
	Status    int    `json:"status"`
	Reason    string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

func (e *RestError) Error() string {
	if len(e.Message) > 0 {
		return fmt.Sprintf("lavalink %s (%d): %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("lavalink %s (%d): %s", e.Path, e.Status, e.Reason)
}
