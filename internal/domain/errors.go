package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLockHeld      = errors.New("execution already in flight")
	ErrNoAdapter     = errors.New("no order adapter for exchange")
	ErrWSDisconnect  = errors.New("websocket disconnected")
	ErrStreamLimit   = errors.New("stream disabled after repeated failures")
)
