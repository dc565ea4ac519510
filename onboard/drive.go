package onboard

import "github.com/CodedInternet/gojfrc/onboard/hardware"

// DriveLines maps a steering and throttle pulse width onto the motor bridge.
// PulseWidthNeutral on both leaves every line low.
func DriveLines(steering, throttle int) hardware.MotorLines {
	forward := throttle > PulseWidthNeutral
	reverse := throttle < PulseWidthNeutral
	left := steering < PulseWidthNeutral
	right := steering > PulseWidthNeutral

	return hardware.MotorLines{
		DirA:   forward || (right && !reverse),
		DirB:   forward || (left && !reverse),
		SpeedA: reverse != left,
		SpeedB: reverse != right,
	}
}
