package cell

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/itohio/gobraille/pkg/actuator"
	"github.com/itohio/gobraille/pkg/command"
	"github.com/itohio/gobraille/pkg/config"
	"github.com/itohio/gobraille/pkg/render"
)

// Mock simulates a braille cell for testing and development. It runs the
// same request parser and render controller as the firmware, drives a
// recording actuator instead of PWM hardware, and loops the reply lines
// back through the wire decoder.
type Mock struct {
	cfg *config.Config

	requests  chan string
	messages  chan Message
	drv       *mockDriver
	clock     clockwork.Clock
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

// NewMock creates a new mocked cell. A nil config uses the defaults, which
// include instant mode: settle delays are skipped so renders complete
// immediately.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	bufSize := cfg.Mock.MessageBuffer
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:      cfg,
		requests: make(chan string, 16),
		messages: make(chan Message, bufSize),
		drv:      newMockDriver(),
		clock:    clockwork.NewRealClock(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect starts the simulated cell. Like the firmware, it homes both
// actuators and announces readiness before accepting requests.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	pr, pw := io.Pipe()
	go m.pump(pr)
	go m.run(pw)

	m.connected = true

	return nil
}

// Close stops the mocked cell.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return nil
	}

	m.cancel()

	// The simulation never ran, so the channel is closed here.
	if !m.connected {
		close(m.messages)
	}

	m.connected = false

	return nil
}

// Messages returns the channel for reading decoded replies.
func (m *Mock) Messages() <-chan Message {
	return m.messages
}

// RenderText asks the simulated cell to render text.
func (m *Mock) RenderText(text string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	if err := validateText(text); err != nil {
		return err
	}
	return m.send(command.PrefixText + text)
}

// SetDualMode switches the simulated cell between dual and single mode.
func (m *Mock) SetDualMode(on bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	flag := "0"
	if on {
		flag = "1"
	}
	return m.send(command.PrefixDual + flag)
}

// SendParams pushes a full parameter document to the simulated cell.
func (m *Mock) SendParams(p command.Params) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	return m.send(command.PrefixParams + string(data))
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Positions returns the pulse widths the simulated actuators last received.
func (m *Mock) Positions() (a, b actuator.PulseWidth) {
	return m.drv.positions()
}

func (m *Mock) send(line string) error {
	select {
	case m.requests <- line:
		return nil
	case <-m.ctx.Done():
		return fmt.Errorf("device closed")
	}
}

// run is the simulated firmware loop: requests in, reply lines out.
func (m *Mock) run(pw *io.PipeWriter) {
	policy, err := command.ParseOverflowPolicy(m.cfg.Protocol.Overflow)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to truncate overflow policy")
	}
	parser := command.NewParser(m.cfg.Protocol.MaxLine, policy)
	nt := render.NewLineNotifier(pw, m.cfg.Device.DebugMode)
	ctrl := render.New(m.drv, nt, m.clock)

	st := render.State{
		Dual:       m.cfg.Device.DualServo,
		CharDelay:  time.Duration(m.cfg.Device.CharDelayMS) * time.Millisecond,
		ServoDelay: time.Duration(m.cfg.Device.ServoDelayMS) * time.Millisecond,
		Debug:      m.cfg.Device.DebugMode,
	}
	if m.cfg.Mock.Instant {
		st.CharDelay, st.ServoDelay = 0, 0
	}

	ctrl.Home()
	nt.Ready()

	for {
		select {
		case <-m.ctx.Done():
			pw.Close()
			return
		case line := <-m.requests:
			for i := 0; i < len(line); i++ {
				if cmd, ok := parser.Push(line[i]); ok {
					st = ctrl.Handle(st, cmd)
				}
			}
			if cmd, ok := parser.Push(byte(command.Terminator)); ok {
				st = ctrl.Handle(st, cmd)
			}
			if m.cfg.Mock.Instant {
				st.CharDelay, st.ServoDelay = 0, 0
			}
		}
	}
}

// pump decodes the simulated firmware's reply lines into Messages.
func (m *Mock) pump(pr *io.PipeReader) {
	defer close(m.messages)

	scanner := bufio.NewScanner(pr)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		select {
		case m.messages <- parseMessage(line):
		default:
			// Channel full, log and skip
			log.Warn().Str("line", line).Msg("messages channel full, dropping reply")
		}
	}
}

// mockDriver records the last pulse width written to each channel.
type mockDriver struct {
	mu  sync.Mutex
	pos map[actuator.Channel]actuator.PulseWidth
}

var _ render.Driver = (*mockDriver)(nil)

func newMockDriver() *mockDriver {
	return &mockDriver{
		pos: map[actuator.Channel]actuator.PulseWidth{
			actuator.ChannelA: actuator.Home,
			actuator.ChannelB: actuator.Home,
		},
	}
}

func (d *mockDriver) SetPulse(ch actuator.Channel, p actuator.PulseWidth) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos[ch] = p
	return nil
}

func (d *mockDriver) positions() (a, b actuator.PulseWidth) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos[actuator.ChannelA], d.pos[actuator.ChannelB]
}
