package hardware

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// HBridgePins names the GPIO lines of the motor bridge as known to periph,
// e.g. "GPIO19" or "P1_35".
type HBridgePins struct {
	DirA, SpeedA string
	DirB, SpeedB string
}

// DefaultHBridgePins are header pins 35, 36, 37 and 38.
var DefaultHBridgePins = HBridgePins{
	DirA:   "GPIO19",
	SpeedA: "GPIO16",
	DirB:   "GPIO26",
	SpeedB: "GPIO20",
}

type HBridge struct {
	dirA, dirB     gpio.PinOut
	speedA, speedB gpio.PinOut
	pins           []gpio.PinIO
}

func NewHBridge(pins HBridgePins) (hb *HBridge, err error) {
	if _, err = host.Init(); err != nil {
		return nil, fmt.Errorf("unable to initialise gpio host: %w", err)
	}

	hb = new(HBridge)
	lookup := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no such gpio pin %q", name)
		}
		hb.pins = append(hb.pins, p)
		return p, nil
	}

	if hb.dirA, err = lookup(pins.DirA); err != nil {
		return nil, err
	}
	if hb.speedA, err = lookup(pins.SpeedA); err != nil {
		return nil, err
	}
	if hb.dirB, err = lookup(pins.DirB); err != nil {
		return nil, err
	}
	if hb.speedB, err = lookup(pins.SpeedB); err != nil {
		return nil, err
	}

	if err = hb.Reset(); err != nil {
		return nil, err
	}
	return hb, nil
}

func (hb *HBridge) SetMotorLines(lines MotorLines) error {
	return errors.Join(
		hb.dirA.Out(gpio.Level(lines.DirA)),
		hb.dirB.Out(gpio.Level(lines.DirB)),
		hb.speedA.Out(gpio.Level(lines.SpeedA)),
		hb.speedB.Out(gpio.Level(lines.SpeedB)),
	)
}

// Reset drives every line low, leaving the bridge coasting.
func (hb *HBridge) Reset() error {
	return hb.SetMotorLines(MotorLines{})
}

// Close releases the lines back to inputs once they are low.
func (hb *HBridge) Close() error {
	err := hb.Reset()
	for _, p := range hb.pins {
		err = errors.Join(err, p.In(gpio.PullNoChange, gpio.NoEdge))
	}
	return err
}
