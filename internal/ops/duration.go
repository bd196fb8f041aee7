package ops

import (
	"strconv"
	"time"

	"broker/pkg/exception"

	"github.com/yanun0323/errors"
)

// Duration is a time.Duration written as "1s", "250ms" or integer nanoseconds.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Duration(d).String())), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		parsed, err := time.ParseDuration(unquoted)
		if err != nil {
			return errors.Wrapf(exception.ErrInvalidArgument, "duration %s", s)
		}
		*d = Duration(parsed)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrapf(exception.ErrInvalidArgument, "duration %s", s)
	}
	*d = Duration(n)
	return nil
}
