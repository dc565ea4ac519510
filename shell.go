package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/CodedInternet/gojfrc/onboard"
	"github.com/abiosoft/ishell"
	"gopkg.in/yaml.v2"
)

type shellReport struct {
	onboard.StateSnapshot `yaml:",inline"`
	SinceLastCommand      string `yaml:"since_last_command"`
}

// newShell builds the development shell. Commands go through the same path
// as the HTTP API, so they count towards the failsafe.
func newShell(robot *onboard.Robot) *ishell.Shell {
	toggleNames := func([]string) []string {
		return robot.Config().Toggles
	}

	shell := ishell.New()
	shell.Println("JFRC development shell")

	shell.AddCmd(&ishell.Cmd{
		Name: "toggles",
		Help: "show all toggles",
		Func: func(c *ishell.Context) {
			c.Println(formatToggles(robot.Toggles()))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "pwms",
		Help: "show all pulse width channels",
		Func: func(c *ishell.Context) {
			c.Println(formatPulseWidths(robot.PulseWidths()))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "toggle",
		Completer: toggleNames,
		Help:      "toggle <name> <on|off> [<name> <on|off>...]",
		Func: func(c *ishell.Context) {
			values, err := parseToggleArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			toggles, err := robot.ApplyToggles(values)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(formatToggles(toggles))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "pwm",
		Help: "pwm <channel> <microseconds> [<channel> <microseconds>...]",
		Func: func(c *ishell.Context) {
			values, err := parsePulseWidthArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			pwms, err := robot.ApplyPulseWidths(values)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(formatPulseWidths(pwms))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "dump the robot state as yaml",
		Func: func(c *ishell.Context) {
			out, err := yaml.Marshal(shellReport{
				StateSnapshot:    robot.Snapshot(),
				SinceLastCommand: robot.SinceLastCommand().String(),
			})
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(string(out))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "config",
		Help: "dump the robot config as yaml",
		Func: func(c *ishell.Context) {
			out, err := yaml.Marshal(robot.Config())
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(string(out))
		},
	})

	return shell
}

func parseToggleArgs(args []string) (map[string]bool, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected <name> <on|off> pairs, got %d arguments", len(args))
	}

	values := make(map[string]bool, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		var on bool
		switch strings.ToLower(args[i+1]) {
		case "on", "true", "1":
			on = true
		case "off", "false", "0":
			on = false
		default:
			return nil, fmt.Errorf("toggle %s: %q is not on or off", args[i], args[i+1])
		}
		values[args[i]] = on
	}
	return values, nil
}

func parsePulseWidthArgs(args []string) (map[int]int, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected <channel> <microseconds> pairs, got %d arguments", len(args))
	}

	values := make(map[int]int, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		ch, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("channel %q is not a number", args[i])
		}
		v, err := strconv.Atoi(args[i+1])
		if err != nil {
			return nil, fmt.Errorf("channel %d: %q is not a number", ch, args[i+1])
		}
		values[ch] = v
	}
	return values, nil
}

func formatToggles(toggles map[string]bool) string {
	names := make([]string, 0, len(toggles))
	for name := range toggles {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%v", name, toggles[name])
	}
	return strings.Join(parts, " ")
}

func formatPulseWidths(pwms map[int]int) string {
	channels := make([]int, 0, len(pwms))
	for ch := range pwms {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	parts := make([]string, len(channels))
	for i, ch := range channels {
		parts[i] = fmt.Sprintf("%d=%dus", ch, pwms[ch])
	}
	return strings.Join(parts, " ")
}
