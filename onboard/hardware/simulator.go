package hardware

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type PulseWrite struct {
	Channel, Value int
}

// Simulator stands in for the real board when running on a desktop, and
// records everything written to it.
type Simulator struct {
	lock sync.Mutex
	out  io.Writer

	// WriteDelay is slept on every pulse width write, holding up the command
	// that issued it.
	WriteDelay time.Duration

	writes      []PulseWrite
	lines       []MotorLines
	resets      int
	closed      bool
	failChannel map[int]error
	failLines   error
}

// NewSimulator returns a simulator that reports activity to out. A nil out
// keeps it quiet.
func NewSimulator(out io.Writer) *Simulator {
	return &Simulator{
		out:         out,
		failChannel: make(map[int]error),
	}
}

// FailChannel makes every later write to channel return err.
func (s *Simulator) FailChannel(channel int, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failChannel[channel] = err
}

func (s *Simulator) FailLines(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failLines = err
}

func (s *Simulator) WritePulseWidth(channel, value int) error {
	if s.WriteDelay > 0 {
		time.Sleep(s.WriteDelay)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.failChannel[channel]; err != nil {
		return err
	}
	s.writes = append(s.writes, PulseWrite{channel, value})
	s.printf("SIM: %d=%dus\n", channel, value)
	return nil
}

func (s *Simulator) SetMotorLines(lines MotorLines) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.failLines != nil {
		return s.failLines
	}
	s.lines = append(s.lines, lines)
	s.printf("SIM: motor lines %+v\n", lines)
	return nil
}

func (s *Simulator) ResetToSafe() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.resets++
	s.printf("SIM: reset to safe\n")
	return nil
}

func (s *Simulator) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.closed = true
	s.printf("SIM: closed\n")
	return nil
}

func (s *Simulator) PulseWrites() []PulseWrite {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]PulseWrite(nil), s.writes...)
}

func (s *Simulator) MotorUpdates() []MotorLines {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]MotorLines(nil), s.lines...)
}

func (s *Simulator) Resets() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.resets
}

func (s *Simulator) Closed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

func (s *Simulator) printf(format string, args ...interface{}) {
	if s.out != nil {
		fmt.Fprintf(s.out, format, args...)
	}
}

var _ Port = (*Simulator)(nil)
