package msglog

import (
	"time"

	"broker/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	defaultSegmentMaxBytes int64 = 64 << 20
	defaultQueueSize             = 4096
	defaultBufferSize            = 64 * 1024
	defaultFilePrefix            = "msg"
	fileSuffix                   = ".log"
)

// Config controls message log writer behavior.
type Config struct {
	Dir                string
	FilePrefix         string
	SegmentMaxBytes    int64
	SegmentMaxDuration time.Duration
	QueueSize          int
	BufferSize         int
	FlushInterval      time.Duration
}

// DefaultConfig returns a baseline configuration writing into dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:             dir,
		FilePrefix:      defaultFilePrefix,
		SegmentMaxBytes: defaultSegmentMaxBytes,
		QueueSize:       defaultQueueSize,
		BufferSize:      defaultBufferSize,
		FlushInterval:   time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.SegmentMaxBytes == 0 {
		c.SegmentMaxBytes = defaultSegmentMaxBytes
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.Dir == "":
		return errors.Wrap(exception.ErrInvalidArgument, "msglog: dir is empty")
	case c.FilePrefix == "":
		return errors.Wrap(exception.ErrInvalidArgument, "msglog: file prefix is empty")
	case c.SegmentMaxBytes <= 0:
		return errors.Wrap(exception.ErrInvalidArgument, "msglog: segment max bytes must be > 0")
	case c.SegmentMaxDuration < 0:
		return errors.Wrap(exception.ErrInvalidArgument, "msglog: segment max duration must be >= 0")
	case c.QueueSize <= 0:
		return errors.Wrap(exception.ErrInvalidArgument, "msglog: queue size must be > 0")
	case c.BufferSize <= 0:
		return errors.Wrap(exception.ErrInvalidArgument, "msglog: buffer size must be > 0")
	case c.FlushInterval < 0:
		return errors.Wrap(exception.ErrInvalidArgument, "msglog: flush interval must be >= 0")
	}
	return nil
}
