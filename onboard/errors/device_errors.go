package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrShutdown is returned for commands that arrive after the robot has
// released its hardware.
var ErrShutdown = stderrors.New("robot has been shut down")

// invalidRequest marks the errors caused by a bad command. They are raised
// before anything is applied.
type invalidRequest interface {
	invalidRequest()
}

// IsInvalidRequest reports whether err, or anything it wraps, was caused by a
// malformed command rather than a failure on the robot.
func IsInvalidRequest(err error) bool {
	var ir invalidRequest
	return stderrors.As(err, &ir)
}

type UnknownToggleError struct {
	Name string
}

func (err UnknownToggleError) Error() string {
	return fmt.Sprintf("no such toggle %q", err.Name)
}

func (UnknownToggleError) invalidRequest() {}

// ReservedToggleError is returned when a command tries to set a toggle that
// only the robot itself may write.
type ReservedToggleError struct {
	Name string
}

func (err ReservedToggleError) Error() string {
	return fmt.Sprintf("toggle %q is reserved", err.Name)
}

func (ReservedToggleError) invalidRequest() {}

type UnknownChannelError struct {
	Channel int
}

func (err UnknownChannelError) Error() string {
	return fmt.Sprintf("no such channel %d", err.Channel)
}

func (UnknownChannelError) invalidRequest() {}

type ChannelKeyError struct {
	Key string
}

func (err ChannelKeyError) Error() string {
	return fmt.Sprintf("channel %q is not a plain decimal integer", err.Key)
}

func (ChannelKeyError) invalidRequest() {}

type ValueTypeError struct {
	Key  string
	Want string
}

func (err ValueTypeError) Error() string {
	if len(err.Want) == 0 {
		err.Want = "UNKNOWN"
	}
	return fmt.Sprintf("value for %q must be %s", err.Key, err.Want)
}

func (ValueTypeError) invalidRequest() {}

type PulseWidthRangeError struct {
	Channel  int
	Value    int
	Min, Max int
}

func (err PulseWidthRangeError) Error() string {
	return fmt.Sprintf("pulse width %d for channel %d outside [%d, %d)", err.Value, err.Channel, err.Min, err.Max)
}

func (PulseWidthRangeError) invalidRequest() {}

// HardwareError wraps a failure to write to the output port.
type HardwareError struct {
	Op      string
	Channel int // only meaningful for pulse width writes
	Err     error
}

func (err HardwareError) Error() string {
	if err.Op == "pwm" {
		return fmt.Sprintf("hardware %s write to channel %d failed: %v", err.Op, err.Channel, err.Err)
	}
	return fmt.Sprintf("hardware %s write failed: %v", err.Op, err.Err)
}

func (err HardwareError) Unwrap() error {
	return err.Err
}

type ConfigError struct {
	Field  string
	Reason string
}

func (err ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", err.Field, err.Reason)
}
