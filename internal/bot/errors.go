package bot

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by Start when the bot is not in the
	// disconnected state.
	ErrAlreadyStarted = errors.New("bot already started")
	// ErrNotInRoom is returned for room operations on a channel the bot has
	// not joined.
	ErrNotInRoom = errors.New("not in room")
)

// ConnectionError reports a failed connection or session-establishment
// attempt. It is fatal to the Start call that produced it; the bot never
// retries on its own.
type ConnectionError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
