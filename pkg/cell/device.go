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
	"go.bug.st/serial"

	"github.com/itohio/gobraille/pkg/command"
)

const (
	// DefaultBaudRate is the rate the cell firmware listens at.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the messages channel buffer.
	DefaultBufferSize = 100

	// dtrSettle is how long DTR stays low to reset the MCU.
	dtrSettle = 100 * time.Millisecond
	// bootWait covers the MCU boot before it accepts requests.
	bootWait = 2 * time.Second
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// SerialPort is the subset of go.bug.st/serial.Port the driver needs.
type SerialPort interface {
	io.ReadWriteCloser
	SetDTR(dtr bool) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// PortFactory opens a named serial port.
type PortFactory func(name string, mode *serial.Mode) (SerialPort, error)

// DefaultPortFactory opens a real port via go.bug.st/serial.
func DefaultPortFactory(name string, mode *serial.Mode) (SerialPort, error) {
	return serial.Open(name, mode)
}

// Serial represents a connection to the braille cell MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	open  PortFactory
	clock clockwork.Clock

	conn      SerialPort
	messages  chan Message
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	started   bool
}

// New creates a new Serial instance with the specified port, baud rate, and
// buffer size. Zero values select the defaults.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		open:     DefaultPortFactory,
		clock:    clockwork.NewRealClock(),
		messages: make(chan Message, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports. Ports that cannot be
// opened are still listed, marked busy.
func Ports() ([]Port, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		desc := name
		port, err := serial.Open(name, &serial.Mode{BaudRate: DefaultBaudRate})
		if err == nil {
			port.Close()
		} else {
			desc = name + " (busy)"
		}
		result = append(result, Port{Name: name, Description: desc})
	}

	return result, nil
}

// Connect opens the port, resets the MCU by pulsing DTR, waits out its boot,
// and starts reading replies. It blocks for the whole reset handshake. A
// closed device cannot be reconnected.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	conn, err := d.open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	// Pulse DTR low to reset the MCU, then give it time to boot.
	if err := conn.SetDTR(false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to pulse DTR on %s: %w", d.port, err)
	}
	d.clock.Sleep(dtrSettle)
	if err := conn.SetDTR(true); err != nil {
		conn.Close()
		return fmt.Errorf("failed to pulse DTR on %s: %w", d.port, err)
	}
	d.clock.Sleep(bootWait)

	d.conn = conn
	d.connected = true
	d.started = true

	// Start reading replies in a goroutine
	go d.readReplies(conn)

	return nil
}

// Close closes the connection and stops reading replies.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx.Err() != nil {
		return nil
	}

	// Cancel context to stop the reading goroutine
	d.cancel()

	// Close serial port; this unblocks the reader, which then closes the
	// messages channel.
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing serial port")
		}
		d.conn = nil
	}

	// No reader goroutine ever ran, so the channel is closed here.
	if !d.started {
		close(d.messages)
	}

	d.connected = false

	return nil
}

// Messages returns the channel for reading decoded replies.
func (d *Serial) Messages() <-chan Message {
	return d.messages
}

// RenderText asks the cell to render text, one character at a time. Stale
// bytes on both sides of the link are dropped first so the render starts
// from a clean slate.
func (d *Serial) RenderText(text string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}
	if err := validateText(text); err != nil {
		return err
	}

	if err := d.conn.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to reset input buffer: %w", err)
	}
	if err := d.conn.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("failed to reset output buffer: %w", err)
	}

	return d.send(command.PrefixText + text)
}

// SetDualMode switches the cell between dual and single actuator mode.
func (d *Serial) SetDualMode(on bool) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	flag := "0"
	if on {
		flag = "1"
	}
	return d.send(command.PrefixDual + flag)
}

// SendParams pushes a full parameter document to the cell.
func (d *Serial) SendParams(p command.Params) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	return d.send(command.PrefixParams + string(data))
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// send writes one terminated request line. Callers hold the lock.
func (d *Serial) send(line string) error {
	if _, err := d.conn.Write(append([]byte(line), byte(command.Terminator))); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

// readReplies reads lines from the serial port and decodes them into
// Messages. Lines are not trimmed beyond the terminator: a trace of a
// rendered space ends in a meaningful blank.
func (d *Serial) readReplies(conn io.Reader) {
	defer close(d.messages)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		msg := parseMessage(line)

		// Send message to channel (non-blocking)
		select {
		case d.messages <- msg:
		case <-d.ctx.Done():
			return
		default:
			// Channel full, log and skip
			log.Warn().Str("line", line).Msg("messages channel full, dropping reply")
		}
	}

	if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
		log.Warn().Err(err).Msg("serial read stopped")
	}
}
