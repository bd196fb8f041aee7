package exception

import "github.com/yanun0323/errors"

// Message log errors
var (
	ErrMsglogQueueFull        = errors.New("msglog: queue full")
	ErrMsglogClosed           = errors.New("msglog: writer closed")
	ErrMsglogNotStarted       = errors.New("msglog: writer not started")
	ErrMsglogAlreadyStarted   = errors.New("msglog: writer already started")
	ErrMsglogRecordTooLarge   = errors.New("msglog: record too large")
	ErrMsglogInvalidMagic     = errors.New("msglog: invalid magic")
	ErrMsglogUnsupportedVer   = errors.New("msglog: unsupported record version")
	ErrMsglogInvalidHeader    = errors.New("msglog: invalid header size")
	ErrMsglogChecksumMismatch = errors.New("msglog: checksum mismatch")
)
