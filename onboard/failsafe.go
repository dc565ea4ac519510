package onboard

import (
	"sync"
	"time"
)

// Failsafe watches the time since the last valid command and raises a toggle
// once it exceeds the timeout. It only reports; it never stops the motors.
type Failsafe struct {
	state   *State
	toggle  string
	timeout time.Duration
	period  time.Duration

	// OnChange, if set, is called from the watchdog goroutine whenever the
	// indicator flips. It must not block.
	OnChange func(tripped bool)

	lock    sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

func NewFailsafe(state *State, toggle string, timeout, period time.Duration) *Failsafe {
	return &Failsafe{
		state:   state,
		toggle:  toggle,
		timeout: timeout,
		period:  period,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the watchdog goroutine. Calling it again, or after Stop, does
// nothing.
func (f *Failsafe) Start() {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.started || f.stopped {
		return
	}
	f.started = true
	go f.run()
}

// Stop signals the watchdog and waits until it has exited.
func (f *Failsafe) Stop() {
	f.lock.Lock()
	if !f.stopped {
		f.stopped = true
		close(f.stop)
	}
	started := f.started
	f.lock.Unlock()

	if started {
		<-f.done
	}
}

// Check runs a single watchdog tick against now and returns the indicator.
func (f *Failsafe) Check(now time.Time) (tripped bool) {
	tripped, changed := f.state.CheckIndicator(f.toggle, now, f.timeout)
	if changed && f.OnChange != nil {
		f.OnChange(tripped)
	}
	return
}

func (f *Failsafe) run() {
	defer close(f.done)

	ticker := time.NewTicker(f.period)
	defer ticker.Stop()

	f.Check(time.Now())
	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			f.Check(time.Now())
		}
	}
}
