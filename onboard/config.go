package onboard

import (
	"fmt"
	"time"

	"github.com/CodedInternet/gojfrc/onboard/errors"
)

const (
	// Pulse widths are accepted in [PulseWidthMin, PulseWidthMax).
	PulseWidthMin = 0
	PulseWidthMax = 2500

	PulseWidthNeutral = 1500

	DefaultFailsafeTimeout = 500 * time.Millisecond
	DefaultFailsafeDivisor = 10
)

type RobotConfig struct {
	Toggles         []string      `yaml:"toggles,flow"`
	FailsafeToggle  string        `yaml:"failsafe_toggle"`
	Channels        []int         `yaml:"channels,flow"`
	SteeringChannel int           `yaml:"steering"`
	ThrottleChannel int           `yaml:"throttle"`
	FailsafeTimeout time.Duration `yaml:"failsafe_timeout"`
	FailsafeDivisor int           `yaml:"failsafe_divisor"`
}

// DefaultRobotConfig is the layout of the stock car: toggle A reports the
// failsafe, channel 0 steers and channel 1 drives.
func DefaultRobotConfig() RobotConfig {
	return RobotConfig{
		Toggles:         []string{"A", "B"},
		FailsafeToggle:  "A",
		Channels:        []int{0, 1},
		SteeringChannel: 0,
		ThrottleChannel: 1,
		FailsafeTimeout: DefaultFailsafeTimeout,
		FailsafeDivisor: DefaultFailsafeDivisor,
	}
}

func (c RobotConfig) Validate() error {
	if len(c.Toggles) == 0 {
		return errors.ConfigError{Field: "toggles", Reason: "at least one toggle is required"}
	}
	seenToggles := make(map[string]bool, len(c.Toggles))
	for _, name := range c.Toggles {
		if name == "" {
			return errors.ConfigError{Field: "toggles", Reason: "empty toggle name"}
		}
		if seenToggles[name] {
			return errors.ConfigError{Field: "toggles", Reason: fmt.Sprintf("toggle %q listed twice", name)}
		}
		seenToggles[name] = true
	}
	if !seenToggles[c.FailsafeToggle] {
		return errors.ConfigError{Field: "failsafe_toggle", Reason: fmt.Sprintf("%q is not a toggle", c.FailsafeToggle)}
	}

	seenChannels := make(map[int]bool, len(c.Channels))
	for _, ch := range c.Channels {
		if ch < 0 {
			return errors.ConfigError{Field: "channels", Reason: fmt.Sprintf("negative channel %d", ch)}
		}
		if seenChannels[ch] {
			return errors.ConfigError{Field: "channels", Reason: fmt.Sprintf("channel %d listed twice", ch)}
		}
		seenChannels[ch] = true
	}
	if !seenChannels[c.SteeringChannel] {
		return errors.ConfigError{Field: "steering", Reason: fmt.Sprintf("channel %d is not configured", c.SteeringChannel)}
	}
	if !seenChannels[c.ThrottleChannel] {
		return errors.ConfigError{Field: "throttle", Reason: fmt.Sprintf("channel %d is not configured", c.ThrottleChannel)}
	}
	if c.SteeringChannel == c.ThrottleChannel {
		return errors.ConfigError{Field: "throttle", Reason: "steering and throttle share a channel"}
	}

	if c.FailsafeTimeout <= 0 {
		return errors.ConfigError{Field: "failsafe_timeout", Reason: "must be positive"}
	}
	if c.FailsafeDivisor <= 0 {
		return errors.ConfigError{Field: "failsafe_divisor", Reason: "must be positive"}
	}
	if c.FailsafeTimeout/time.Duration(c.FailsafeDivisor) <= 0 {
		return errors.ConfigError{Field: "failsafe_divisor", Reason: "tick period rounds to zero"}
	}
	return nil
}

// FailsafePeriod is how often the watchdog checks for stale commands.
func (c RobotConfig) FailsafePeriod() time.Duration {
	return c.FailsafeTimeout / time.Duration(c.FailsafeDivisor)
}
