package exception

import "github.com/yanun0323/errors"

// Session errors
var (
	ErrSessionNotFound      = errors.New("session: not found")
	ErrSessionExists        = errors.New("session: already open")
	ErrSessionNoApplication = errors.New("session: no application attached")
	ErrSessionNilSink       = errors.New("session: nil sink")
	ErrQueueFull            = errors.New("session: queue full")
	ErrQueueClosed          = errors.New("session: queue closed")
	ErrUnsupportedMessage   = errors.New("session: unsupported message type")
)
