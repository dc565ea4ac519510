package onboard

import (
	"sort"
	"sync"
	"time"

	"github.com/CodedInternet/gojfrc/onboard/broadcast"
	"github.com/CodedInternet/gojfrc/onboard/errors"
	"github.com/CodedInternet/gojfrc/onboard/hardware"
)

type JFRC interface {
	Toggles() map[string]bool
	PulseWidths() map[int]int
	Snapshot() StateSnapshot
	ApplyToggles(values map[string]bool) (map[string]bool, error)
	ApplyPulseWidths(values map[int]int) (map[int]int, error)
}

// Robot owns the shared state, the failsafe watchdog and the output port.
// Commands are processed one at a time; the watchdog never waits on them.
type Robot struct {
	config   RobotConfig
	state    *State
	port     hardware.Port
	failsafe *Failsafe

	// Feed receives a StateSnapshot after every applied command and every
	// failsafe change.
	Feed *broadcast.Broadcaster

	cmdLock      sync.Mutex
	closed       bool
	shutdownOnce sync.Once
	shutdownErr  error
}

func NewRobot(config RobotConfig, port hardware.Port) (r *Robot, err error) {
	if err = config.Validate(); err != nil {
		return
	}

	r = &Robot{
		config: config,
		state:  NewState(config.Toggles, config.Channels, time.Now()),
		port:   port,
		Feed:   broadcast.New(broadcast.DefaultBuffer),
	}
	r.failsafe = NewFailsafe(r.state, config.FailsafeToggle, config.FailsafeTimeout, config.FailsafePeriod())
	r.failsafe.OnChange = func(bool) { r.publish() }

	return
}

// Start runs the failsafe watchdog.
func (r *Robot) Start() {
	r.failsafe.Start()
}

func (r *Robot) Config() RobotConfig {
	return r.config
}

func (r *Robot) Toggles() map[string]bool {
	return r.state.Toggles()
}

func (r *Robot) PulseWidths() map[int]int {
	return r.state.PulseWidths()
}

func (r *Robot) Snapshot() StateSnapshot {
	return r.state.Snapshot()
}

// SinceLastCommand is the age the failsafe is judging.
func (r *Robot) SinceLastCommand() time.Duration {
	return r.state.Elapsed(time.Now())
}

// ApplyToggles sets every named toggle, or none of them if any name is
// unknown. The failsafe toggle cannot be set.
func (r *Robot) ApplyToggles(values map[string]bool) (map[string]bool, error) {
	r.cmdLock.Lock()
	defer r.cmdLock.Unlock()

	if r.closed {
		return nil, errors.ErrShutdown
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == r.config.FailsafeToggle {
			return nil, errors.ReservedToggleError{Name: name}
		}
		if !r.state.HasToggle(name) {
			return nil, errors.UnknownToggleError{Name: name}
		}
	}

	r.ping()
	toggles := r.state.SetToggles(values)
	r.publish()

	return toggles, nil
}

// ApplyPulseWidths validates every channel before writing any of them. Values
// are written to the port halved; the state keeps the microsecond value. When
// both steering and throttle are present the motor bridge is updated last.
func (r *Robot) ApplyPulseWidths(values map[int]int) (map[int]int, error) {
	r.cmdLock.Lock()
	defer r.cmdLock.Unlock()

	if r.closed {
		return nil, errors.ErrShutdown
	}

	channels := make([]int, 0, len(values))
	for ch := range values {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	for _, ch := range channels {
		if !r.state.HasChannel(ch) {
			return nil, errors.UnknownChannelError{Channel: ch}
		}
		if v := values[ch]; v < PulseWidthMin || v >= PulseWidthMax {
			return nil, errors.PulseWidthRangeError{Channel: ch, Value: v, Min: PulseWidthMin, Max: PulseWidthMax}
		}
	}

	r.ping()
	defer r.publish()

	// channels that made it to the device are committed even if a later one
	// fails, so the state never claims more or less than was written
	written := make(map[int]int, len(values))
	var err error
	for _, ch := range channels {
		if werr := r.port.WritePulseWidth(ch, values[ch]/2); werr != nil {
			err = errors.HardwareError{Op: "pwm", Channel: ch, Err: werr}
			break
		}
		written[ch] = values[ch]
	}
	pulseWidths := r.state.SetPulseWidths(written)
	if err != nil {
		return nil, err
	}

	steering, hasSteering := values[r.config.SteeringChannel]
	throttle, hasThrottle := values[r.config.ThrottleChannel]
	if hasSteering && hasThrottle {
		if err = r.port.SetMotorLines(DriveLines(steering, throttle)); err != nil {
			return nil, errors.HardwareError{Op: "motor", Err: err}
		}
	}

	return pulseWidths, nil
}

// Shutdown stops the watchdog, waits for any command in flight and returns the
// hardware to a safe state. Only the first call does anything.
func (r *Robot) Shutdown() error {
	r.shutdownOnce.Do(func() {
		r.failsafe.Stop()

		r.cmdLock.Lock()
		defer r.cmdLock.Unlock()
		r.closed = true

		r.shutdownErr = r.port.ResetToSafe()
		if err := r.port.Close(); r.shutdownErr == nil {
			r.shutdownErr = err
		}
		r.Feed.Close()
	})
	return r.shutdownErr
}

// ping stamps the command time and clears the failsafe straight away rather
// than on the next tick.
func (r *Robot) ping() {
	now := time.Now()
	r.state.Ping(now)
	r.failsafe.Check(now)
}

func (r *Robot) publish() {
	r.Feed.Publish(r.state.Snapshot())
}

var _ JFRC = (*Robot)(nil)
