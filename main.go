package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/CodedInternet/gojfrc/onboard"
	"github.com/CodedInternet/gojfrc/onboard/hardware"
	"github.com/caarlos0/env/v6"
	"golang.org/x/sys/unix"
)

const shutdownGrace = 5 * time.Second

type EnvConfig struct {
	Port         int    `env:"JFRC_PORT" envDefault:"65520"`
	Simulated    bool   `env:"JFRC_SIM" envDefault:"0"`
	DEBUG        bool   `env:"DEBUG" envDefault:"0"`
	ServoBlaster string `env:"JFRC_SERVOBLASTER" envDefault:"/dev/servoblaster"`

	Toggles         []string      `env:"JFRC_TOGGLES" envSeparator:"," envDefault:"A,B"`
	FailsafeToggle  string        `env:"JFRC_FAILSAFE_TOGGLE" envDefault:"A"`
	Channels        []int         `env:"JFRC_CHANNELS" envSeparator:"," envDefault:"0,1"`
	SteeringChannel int           `env:"JFRC_STEERING_CHANNEL" envDefault:"0"`
	ThrottleChannel int           `env:"JFRC_THROTTLE_CHANNEL" envDefault:"1"`
	FailsafeTimeout time.Duration `env:"JFRC_FAILSAFE_TIMEOUT" envDefault:"500ms"`
	FailsafeDivisor int           `env:"JFRC_FAILSAFE_DIVISOR" envDefault:"10"`

	// BCM names of the motor bridge lines, header pins 35 to 38
	PinDirA   string `env:"JFRC_PIN_DIR_A" envDefault:"GPIO19"`
	PinSpeedA string `env:"JFRC_PIN_SPEED_A" envDefault:"GPIO16"`
	PinDirB   string `env:"JFRC_PIN_DIR_B" envDefault:"GPIO26"`
	PinSpeedB string `env:"JFRC_PIN_SPEED_B" envDefault:"GPIO20"`
}

func loadEnvConfig() (*EnvConfig, error) {
	cfg := new(EnvConfig)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("unable to parse environment: %w", err)
	}
	return cfg, nil
}

func (c *EnvConfig) RobotConfig() onboard.RobotConfig {
	return onboard.RobotConfig{
		Toggles:         c.Toggles,
		FailsafeToggle:  c.FailsafeToggle,
		Channels:        c.Channels,
		SteeringChannel: c.SteeringChannel,
		ThrottleChannel: c.ThrottleChannel,
		FailsafeTimeout: c.FailsafeTimeout,
		FailsafeDivisor: c.FailsafeDivisor,
	}
}

func (c *EnvConfig) HBridgePins() hardware.HBridgePins {
	return hardware.HBridgePins{
		DirA:   c.PinDirA,
		SpeedA: c.PinSpeedA,
		DirB:   c.PinDirB,
		SpeedB: c.PinSpeedB,
	}
}

// applyArgs handles the single optional positional argument, the port.
func (c *EnvConfig) applyArgs(args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		port, err := strconv.Atoi(args[0])
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[0])
		}
		c.Port = port
		return nil
	default:
		return fmt.Errorf("expected at most one argument (port), got %d", len(args))
	}
}

// openPort brings up the output hardware. Anything that fails here aborts
// startup before the API is listening.
func openPort(c *EnvConfig) (hardware.Port, error) {
	if c.Simulated {
		fmt.Println("Running in simulator mode. No hardware will be driven.")
		return hardware.NewSimulator(os.Stdout), nil
	}

	pwm, err := hardware.OpenServoBlaster(c.ServoBlaster)
	if err != nil {
		return nil, err
	}

	lines, err := hardware.NewHBridge(c.HBridgePins())
	if err != nil {
		pwm.Close()
		return nil, err
	}

	return hardware.NewBoard(pwm, lines), nil
}

func main() {
	simulated := flag.Bool("sim", false, "Run without hardware, printing every output instead")
	withShell := flag.Bool("shell", false, "Start the development shell on stdin")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-sim] [-shell] [port]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadEnvConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.applyArgs(flag.Args()); err != nil {
		flag.Usage()
		log.Fatal(err)
	}
	cfg.Simulated = cfg.Simulated || *simulated

	robotConfig := cfg.RobotConfig()
	if err := robotConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	port, err := openPort(cfg)
	if err != nil {
		log.Fatalf("unable to initialise hardware: %v", err)
	}

	robot, err := onboard.NewRobot(robotConfig, port)
	if err != nil {
		port.ResetToSafe()
		port.Close()
		log.Fatal(err)
	}
	robot.Start()

	os.Exit(serve(cfg, robot, *withShell))
}

// serve runs the API until a signal, a listener failure or the shell exits,
// then shuts down in order: stop taking commands, stop the watchdog, reset the
// hardware.
func serve(cfg *EnvConfig, robot *onboard.Robot, withShell bool) (code int) {
	api := &API{Device: robot, Feed: robot.Feed}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: NewRouter(api),
	}
	if cfg.DEBUG {
		fmt.Printf("Robot config %+v\n", robot.Config())
	}

	errc := make(chan error, 1)
	go func() {
		fmt.Println("Listening on port", cfg.Port)
		errc <- srv.ListenAndServe()
	}()

	quit := make(chan struct{})
	if withShell {
		go func() {
			newShell(robot).Run()
			close(quit)
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		log.Printf("received %v, shutting down", sig)
	case err := <-errc:
		log.Printf("server exited: %v", err)
		code = 1
	case <-quit:
		log.Println("shell exited, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	if err := robot.Shutdown(); err != nil {
		log.Printf("unable to reset hardware: %v", err)
		code = 1
	}
	return
}
