package onboard

import (
	"sync"
	"time"
)

// StateSnapshot is a consistent copy of the robot state.
type StateSnapshot struct {
	Toggles     map[string]bool `json:"toggles" yaml:"toggles"`
	PulseWidths map[int]int     `json:"pwms" yaml:"pwms"`
}

// State is shared by the command path and the failsafe watchdog. Every field
// is read and written under lock, and multi-key updates are applied in a
// single critical section.
type State struct {
	lock        sync.Mutex
	toggles     map[string]bool
	pulseWidths map[int]int
	lastCommand time.Time
}

// NewState creates the key sets, all off and zero. The key sets never change
// afterwards.
func NewState(toggles []string, channels []int, now time.Time) *State {
	s := &State{
		toggles:     make(map[string]bool, len(toggles)),
		pulseWidths: make(map[int]int, len(channels)),
		lastCommand: now,
	}
	for _, name := range toggles {
		s.toggles[name] = false
	}
	for _, ch := range channels {
		s.pulseWidths[ch] = 0
	}
	return s
}

func (s *State) HasToggle(name string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.toggles[name]
	return ok
}

func (s *State) HasChannel(ch int) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.pulseWidths[ch]
	return ok
}

// Ping records that a valid command arrived at now.
func (s *State) Ping(now time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastCommand = now
}

// Elapsed returns the time since the last valid command.
func (s *State) Elapsed(now time.Time) time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()
	return now.Sub(s.lastCommand)
}

// SetToggles merges values in and returns the full map. Unknown names are
// ignored; callers validate first.
func (s *State) SetToggles(values map[string]bool) map[string]bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	for name, v := range values {
		if _, ok := s.toggles[name]; ok {
			s.toggles[name] = v
		}
	}
	return s.copyToggles()
}

// SetPulseWidths merges values in and returns the full map.
func (s *State) SetPulseWidths(values map[int]int) map[int]int {
	s.lock.Lock()
	defer s.lock.Unlock()

	for ch, v := range values {
		if _, ok := s.pulseWidths[ch]; ok {
			s.pulseWidths[ch] = v
		}
	}
	return s.copyPulseWidths()
}

// CheckIndicator sets toggle name to whether more than timeout has passed
// between the last command and now. The check and the write happen together so
// a concurrent Ping cannot be overwritten by a stale result.
func (s *State) CheckIndicator(name string, now time.Time, timeout time.Duration) (tripped, changed bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev, ok := s.toggles[name]
	if !ok {
		return false, false
	}
	tripped = now.Sub(s.lastCommand) > timeout
	s.toggles[name] = tripped
	return tripped, prev != tripped
}

func (s *State) Toggles() map[string]bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.copyToggles()
}

func (s *State) PulseWidths() map[int]int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.copyPulseWidths()
}

func (s *State) Snapshot() StateSnapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return StateSnapshot{
		Toggles:     s.copyToggles(),
		PulseWidths: s.copyPulseWidths(),
	}
}

func (s *State) copyToggles() map[string]bool {
	out := make(map[string]bool, len(s.toggles))
	for k, v := range s.toggles {
		out[k] = v
	}
	return out
}

func (s *State) copyPulseWidths() map[int]int {
	out := make(map[int]int, len(s.pulseWidths))
	for k, v := range s.pulseWidths {
		out[k] = v
	}
	return out
}
