package ws

import "errors"

var (
	// ErrServerShutdown is the close cause handed to sessions when the
	// transport stops.
	ErrServerShutdown = errors.New("websocket server shutdown")
)
