package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedRecord = errors.New("malformed record")
	ErrMissingField    = errors.New("missing required field")
	ErrSessionClosed   = errors.New("session closed")
	ErrWSDisconnect    = errors.New("websocket disconnected")
	ErrContextDone     = errors.New("context cancelled")
)
