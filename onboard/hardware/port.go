package hardware

import (
	"errors"
)

// MotorLines are the four outputs of the dual channel motor bridge.
type MotorLines struct {
	DirA, DirB     bool
	SpeedA, SpeedB bool
}

// Port is everything the robot writes to. Implementations must be safe to call
// from a single goroutine at a time; the robot serialises all commands.
type Port interface {
	WritePulseWidth(channel, value int) error
	SetMotorLines(lines MotorLines) error
	ResetToSafe() error
	Close() error
}

type PulseWidthWriter interface {
	WritePulseWidth(channel, value int) error
	Reset() error
	Close() error
}

type MotorLineDriver interface {
	SetMotorLines(lines MotorLines) error
	Reset() error
	Close() error
}

// Board joins a pulse width device and a motor line driver into a single Port.
type Board struct {
	PWM   PulseWidthWriter
	Lines MotorLineDriver
}

func NewBoard(pwm PulseWidthWriter, lines MotorLineDriver) *Board {
	return &Board{PWM: pwm, Lines: lines}
}

func (b *Board) WritePulseWidth(channel, value int) error {
	return b.PWM.WritePulseWidth(channel, value)
}

func (b *Board) SetMotorLines(lines MotorLines) error {
	return b.Lines.SetMotorLines(lines)
}

// ResetToSafe resets both halves even if the first one fails.
func (b *Board) ResetToSafe() error {
	return errors.Join(b.Lines.Reset(), b.PWM.Reset())
}

func (b *Board) Close() error {
	return errors.Join(b.Lines.Close(), b.PWM.Close())
}

var _ Port = (*Board)(nil)
