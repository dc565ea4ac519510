package onboard

import (
	"testing"

	"github.com/CodedInternet/gojfrc/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDriveLines(t *testing.T) {
	Convey("neutral coasts", t, func() {
		So(DriveLines(1500, 1500), ShouldResemble, hardware.MotorLines{})
	})

	Convey("pure forward drives both directions", t, func() {
		So(DriveLines(1500, 2000), ShouldResemble, hardware.MotorLines{DirA: true, DirB: true})
	})

	Convey("pure left", t, func() {
		So(DriveLines(1000, 1500), ShouldResemble, hardware.MotorLines{DirB: true, SpeedA: true})
	})

	Convey("pure right", t, func() {
		So(DriveLines(2000, 1500), ShouldResemble, hardware.MotorLines{DirA: true, SpeedB: true})
	})

	Convey("reverse with a right bias", t, func() {
		So(DriveLines(2000, 1000), ShouldResemble, hardware.MotorLines{SpeedA: true})
	})

	Convey("reverse with a left bias", t, func() {
		So(DriveLines(1000, 1000), ShouldResemble, hardware.MotorLines{SpeedB: true})
	})

	Convey("straight reverse", t, func() {
		So(DriveLines(1500, 1000), ShouldResemble, hardware.MotorLines{SpeedA: true, SpeedB: true})
	})

	Convey("forward ignores the steering direction bits", t, func() {
		for _, steering := range []int{0, 1000, 1500, 2000, 2499} {
			lines := DriveLines(steering, 2000)
			So(lines.DirA, ShouldBeTrue)
			So(lines.DirB, ShouldBeTrue)
		}
	})
}
