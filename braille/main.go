package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/itohio/gobraille/pkg/actuator"
	"github.com/itohio/gobraille/pkg/cell"
	"github.com/itohio/gobraille/pkg/command"
	"github.com/itohio/gobraille/pkg/config"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		baudFlag   = flag.Int("baud", 0, "Baud rate override")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		listFlag   = flag.Bool("list", false, "List available serial ports and exit")
		textFlag   = flag.String("text", "", "Render this text and exit")
		dualFlag   = flag.Bool("dual", true, "Drive both actuator channels")
		debugFlag  = flag.Bool("debug", false, "Ask the cell for per-character traces")
		paramsFlag = flag.String("params", "", "Send this raw JSON parameter document instead of the configured one")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if *listFlag {
		listPorts()
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Command line overrides
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *baudFlag > 0 {
		cfg.Serial.BaudRate = *baudFlag
	}
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if explicit["dual"] {
		cfg.Device.DualServo = *dualFlag
	}
	if explicit["debug"] {
		cfg.Device.DebugMode = *debugFlag
	}

	var dev cell.Device
	if *mockFlag {
		dev = cell.NewMock(cfg)
		log.Info().Msg("using mocked device")
	} else {
		dev = cell.New(cfg.Serial.Port, cfg.Serial.BaudRate, 0)
		log.Info().Str("port", cfg.Serial.Port).Int("baud", cfg.Serial.BaudRate).Msg("connecting")
	}

	if err := dev.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}

	// Log every reply the cell sends until the device closes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range dev.Messages() {
			logMessage(msg)
		}
	}()

	if err := dev.SendParams(startupParams(cfg, *paramsFlag)); err != nil {
		log.Fatal().Err(err).Msg("failed to send parameters")
	}

	if *textFlag != "" {
		if err := dev.RenderText(*textFlag); err != nil {
			log.Fatal().Err(err).Msg("render failed")
		}
		// The protocol is fire and forget; wait out the render.
		time.Sleep(renderDuration(cfg, *textFlag))
	} else {
		interact(dev)
	}

	dev.Close()
	<-done
}

// startupParams builds the parameter document pushed right after connecting.
// A raw JSON document from the command line replaces the configured one.
func startupParams(cfg *config.Config, raw string) command.Params {
	if raw != "" {
		p, err := command.DecodeParams([]byte(raw))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -params document")
		}
		return p
	}
	return command.Params{
		CharDelay:  cfg.Device.CharDelayMS,
		ServoDelay: cfg.Device.ServoDelayMS,
		DualServo:  cfg.Device.DualServo,
		DebugMode:  cfg.Device.DebugMode,
	}
}

// interact reads lines from stdin and sends them to the cell. Lines
// starting with a slash are control commands.
func interact(dev cell.Device) {
	fmt.Println("Type text to render. /dual 0|1 switches mode, /quit exits.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/dual "):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "/dual "))
			if arg != "0" && arg != "1" {
				log.Error().Str("arg", arg).Msg("usage: /dual 0|1")
				continue
			}
			if err := dev.SetDualMode(arg == "1"); err != nil {
				log.Error().Err(err).Msg("mode change failed")
			}
		default:
			if err := dev.RenderText(line); err != nil {
				log.Error().Err(err).Msg("render failed")
			}
		}
	}
}

// renderDuration estimates how long the cell will hold the given text.
func renderDuration(cfg *config.Config, text string) time.Duration {
	perChar := time.Duration(cfg.Device.CharDelayMS+cfg.Device.ServoDelayMS) * time.Millisecond
	return time.Duration(utf8.RuneCountInString(text))*perChar + time.Second
}

func logMessage(msg cell.Message) {
	switch msg.Kind {
	case cell.MessageReady:
		log.Info().Msg("cell ready")
	case cell.MessageDual:
		log.Info().Bool("dual", msg.Dual).Msg("display mode set")
	case cell.MessageParams:
		log.Info().
			Int("char_delay_ms", msg.Params.CharDelay).
			Int("servo_delay_ms", msg.Params.ServoDelay).
			Bool("dual", msg.Params.DualServo).
			Bool("debug", msg.Params.DebugMode).
			Msg("params applied")
	case cell.MessageTrace:
		log.Info().
			Str("char", string(msg.Char)).
			Str("cell", string(msg.Pattern.Cell())).
			Str("pattern", msg.Pattern.String()).
			Uint16("pulse_a", uint16(msg.PulseA)).
			Uint16("pulse_b", uint16(msg.PulseB)).
			Float32("mm_a", actuator.Displacement(msg.PulseA)).
			Float32("mm_b", actuator.Displacement(msg.PulseB)).
			Msg("rendered")
	case cell.MessageError:
		log.Warn().Str("scope", msg.Scope).Str("detail", msg.Detail).Msg("cell error")
	default:
		log.Debug().Str("line", msg.Raw).Msg("unrecognized reply")
	}
}

func listPorts() {
	ports, err := cell.Ports()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list serial ports")
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Printf("%s\t%s\n", p.Name, p.Description)
	}
}
