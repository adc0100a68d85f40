package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"joystick-service/internal/core"
	"joystick-service/internal/hardware"
	"joystick-service/internal/logger"
	"joystick-service/internal/messaging"
	"joystick-service/internal/types"
)

func main() {
	var (
		serviceLogLevel int
		redisHost       string
		redisPort       int
		intervalMs      int
		adcDevice       string
		adcBits         uint
		inputMode       string
		inputDevice     string
		displayBackend  string
		displayMode     string
	)

	flag.IntVar(&serviceLogLevel, "log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flag.StringVar(&redisHost, "redis-host", "127.0.0.1", "Redis host")
	flag.IntVar(&redisPort, "redis-port", 6379, "Redis port")
	flag.IntVar(&intervalMs, "interval", 100, "Poll interval in milliseconds")
	flag.StringVar(&adcDevice, "adc-device", hardware.DefaultIIODevice, "IIO device exposing the joystick ADC channels")
	flag.UintVar(&adcBits, "adc-bits", hardware.DefaultADCBits, "Raw ADC sample width in bits")
	flag.StringVar(&inputMode, "input", "analog", "Joystick type (analog, digital)")
	flag.StringVar(&inputDevice, "input-device", hardware.GpioKeysInput, "Event device for a digital joystick")
	flag.StringVar(&displayBackend, "display", "lcd", "Display backend (lcd, console)")
	flag.StringVar(&displayMode, "mode", "direction", "Initial display mode (direction, coordinates, off)")

	flag.Parse()

	// Create standard logger with appropriate format
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// Running under systemd, use minimal format
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		// Running interactively, use timestamps
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}

	l := logger.NewLogger(stdLogger, logger.LogLevel(serviceLogLevel))

	l.Infof("Starting joystick service...")

	var display core.Display
	switch displayBackend {
	case "lcd":
		display = hardware.NewCharDisplay(l)
	case "console":
		display = hardware.NewConsoleDisplay(os.Stdout)
	default:
		l.Fatalf("Unknown display backend: %s", displayBackend)
	}

	var sampler core.Sampler
	var input core.DigitalInput
	switch inputMode {
	case "analog":
		sampler = hardware.NewIIOSampler(adcDevice, adcBits)
	case "digital":
		input = hardware.NewEventInput(inputDevice, l)
	default:
		l.Fatalf("Unknown input mode: %s", inputMode)
	}

	redis := messaging.NewRedisClient(redisHost, redisPort, l)
	system := core.NewJoystickSystem(redis, sampler, display, input, l, core.Config{
		PollInterval: time.Duration(intervalMs) * time.Millisecond,
		DisplayMode:  types.DisplayMode(displayMode),
	})

	if err := system.Start(context.Background()); err != nil {
		l.Fatalf("Failed to start system: %v", err)
	}

	l.Infof("System started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	l.Infof("Received signal %v, shutting down...", sig)
	system.Shutdown()
	l.Infof("Shutdown complete")
}
