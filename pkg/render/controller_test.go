package render

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gobraille/pkg/actuator"
	"github.com/itohio/gobraille/pkg/braille"
	"github.com/itohio/gobraille/pkg/command"
)

type pulseWrite struct {
	ch actuator.Channel
	p  actuator.PulseWidth
}

type fakeDriver struct {
	writes []pulseWrite
	fail   map[actuator.Channel]error
}

func (d *fakeDriver) SetPulse(ch actuator.Channel, p actuator.PulseWidth) error {
	if err := d.fail[ch]; err != nil {
		return err
	}
	d.writes = append(d.writes, pulseWrite{ch, p})
	return nil
}

type traceEvent struct {
	char rune
	pat  braille.Pattern
	a    actuator.PulseWidth
	b    actuator.PulseWidth
}

type fakeNotifier struct {
	dual    []bool
	params  []command.Params
	bad     []string
	unknown []string
	drive   []actuator.Channel
	traces  []traceEvent
}

func (n *fakeNotifier) DualMode(on bool)                { n.dual = append(n.dual, on) }
func (n *fakeNotifier) ParamsApplied(p command.Params)  { n.params = append(n.params, p) }
func (n *fakeNotifier) BadParams(raw string, err error) { n.bad = append(n.bad, raw) }
func (n *fakeNotifier) Unknown(raw string)              { n.unknown = append(n.unknown, raw) }
func (n *fakeNotifier) DriveError(ch actuator.Channel, err error) {
	n.drive = append(n.drive, ch)
}
func (n *fakeNotifier) Trace(char rune, pat braille.Pattern, a, b actuator.PulseWidth) {
	n.traces = append(n.traces, traceEvent{char, pat, a, b})
}

// recordClock captures settle sleeps without waiting them out.
type recordClock struct {
	clockwork.Clock
	sleeps []time.Duration
}

func newRecordClock() *recordClock {
	return &recordClock{Clock: clockwork.NewFakeClock()}
}

func (c *recordClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
}

func newTestController() (*Controller, *fakeDriver, *fakeNotifier, *recordClock) {
	drv := &fakeDriver{}
	nt := &fakeNotifier{}
	clk := newRecordClock()
	return New(drv, nt, clk), drv, nt, clk
}

func TestController_HandleDual(t *testing.T) {
	ctrl, drv, nt, _ := newTestController()
	st := DefaultState()

	st = ctrl.Handle(st, command.Command{Kind: command.KindDual, Dual: false})
	assert.False(t, st.Dual)

	st = ctrl.Handle(st, command.Command{Kind: command.KindDual, Dual: true})
	assert.True(t, st.Dual)

	assert.Equal(t, []bool{false, true}, nt.dual)
	assert.Empty(t, drv.writes, "mode changes must not move the actuators")
}

func TestController_RenderText_DualMode(t *testing.T) {
	ctrl, drv, nt, _ := newTestController()

	ctrl.Handle(DefaultState(), command.Command{Kind: command.KindText, Text: "ab"})

	// a = 100000: high 100 -> 1613, low 000 -> 844
	// b = 101000: high 101 -> 1920, low 000 -> 844
	want := []pulseWrite{
		{actuator.ChannelA, 1613},
		{actuator.ChannelB, 844},
		{actuator.ChannelA, 1920},
		{actuator.ChannelB, 844},
	}
	assert.Equal(t, want, drv.writes)

	require.Len(t, nt.traces, 2)
	assert.Equal(t, "100000", nt.traces[0].pat.String())
	assert.Equal(t, 'a', nt.traces[0].char)
	assert.Equal(t, "101000", nt.traces[1].pat.String())
	assert.Equal(t, 'b', nt.traces[1].char)
}

func TestController_RenderText_SingleMode(t *testing.T) {
	ctrl, drv, _, _ := newTestController()
	st := DefaultState()

	st = ctrl.Handle(st, command.Command{Kind: command.KindDual, Dual: false})
	ctrl.Handle(st, command.Command{Kind: command.KindText, Text: "u"})

	// u = 100011: the low half would be 011 -> 1324, but single mode
	// parks channel B at home instead.
	want := []pulseWrite{
		{actuator.ChannelA, 1613},
		{actuator.ChannelB, actuator.Home},
	}
	assert.Equal(t, want, drv.writes)
}

func TestController_RenderText_Sequence(t *testing.T) {
	ctrl, _, nt, _ := newTestController()

	ctrl.Handle(DefaultState(), command.Command{Kind: command.KindText, Text: "Z9."})

	want := []traceEvent{
		{'Z', 0b100111, 1613, 2094},
		{'9', 0b011000, 1324, 844},
		{'.', 0b010011, 1268, 1324},
	}
	assert.Equal(t, want, nt.traces)
}

func TestController_RenderText_SettleDelays(t *testing.T) {
	ctrl, _, _, clk := newTestController()
	st := State{Dual: true, CharDelay: 3 * time.Second, ServoDelay: 750 * time.Millisecond}

	ctrl.Handle(st, command.Command{Kind: command.KindText, Text: "ab"})

	// Per character: settle the actuators, then hold for the reader.
	want := []time.Duration{
		750 * time.Millisecond, 3 * time.Second,
		750 * time.Millisecond, 3 * time.Second,
	}
	assert.Equal(t, want, clk.sleeps)
}

func TestController_RenderText_UnsupportedChar(t *testing.T) {
	ctrl, drv, nt, _ := newTestController()

	ctrl.Handle(DefaultState(), command.Command{Kind: command.KindText, Text: "@"})

	// Unsupported characters render the blank pattern: both channels home.
	want := []pulseWrite{
		{actuator.ChannelA, actuator.Home},
		{actuator.ChannelB, actuator.Home},
	}
	assert.Equal(t, want, drv.writes)
	require.Len(t, nt.traces, 1)
	assert.Equal(t, braille.Blank, nt.traces[0].pat)
}

func TestController_RenderText_Empty(t *testing.T) {
	ctrl, drv, nt, clk := newTestController()

	ctrl.Handle(DefaultState(), command.Command{Kind: command.KindText, Text: ""})

	assert.Empty(t, drv.writes)
	assert.Empty(t, nt.traces)
	assert.Empty(t, clk.sleeps)
}

func TestController_HandleParams(t *testing.T) {
	ctrl, drv, nt, clk := newTestController()
	p := command.Params{
		Text:       "u",
		CharDelay:  100,
		ServoDelay: 50,
		DualServo:  false,
		DebugMode:  true,
	}

	st := ctrl.Handle(DefaultState(), command.Command{Kind: command.KindParams, Params: p})

	// The document replaces the full settings record.
	assert.Equal(t, StateOf(p), st)
	assert.Equal(t, []command.Params{p}, nt.params)

	// Its text renders under the new settings: single mode, new delays.
	want := []pulseWrite{
		{actuator.ChannelA, 1613},
		{actuator.ChannelB, actuator.Home},
	}
	assert.Equal(t, want, drv.writes)
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}, clk.sleeps)
}

func TestController_HandleParams_NoText(t *testing.T) {
	ctrl, drv, nt, _ := newTestController()
	p := command.DefaultParams()

	ctrl.Handle(DefaultState(), command.Command{Kind: command.KindParams, Params: p})

	assert.Len(t, nt.params, 1)
	assert.Empty(t, drv.writes)
}

func TestController_HandleBadParams(t *testing.T) {
	ctrl, drv, nt, _ := newTestController()
	st := State{Dual: false, CharDelay: time.Second, ServoDelay: time.Second}

	got := ctrl.Handle(st, command.Command{
		Kind: command.KindBadParams,
		Raw:  `PARAMS:{"x"`,
		Err:  errors.New("unexpected end of JSON input"),
	})

	assert.Equal(t, st, got, "a bad document must not touch the settings")
	assert.Equal(t, []string{`PARAMS:{"x"`}, nt.bad)
	assert.Empty(t, drv.writes)
}

func TestController_HandleUnknown(t *testing.T) {
	ctrl, drv, nt, _ := newTestController()
	st := DefaultState()

	got := ctrl.Handle(st, command.Command{Kind: command.KindUnknown, Raw: "FOO:bar"})

	assert.Equal(t, st, got)
	assert.Equal(t, []string{"FOO:bar"}, nt.unknown)
	assert.Empty(t, drv.writes, "unknown input must not move the actuators")
}

func TestController_DriveErrorDoesNotStopRender(t *testing.T) {
	drv := &fakeDriver{fail: map[actuator.Channel]error{
		actuator.ChannelA: errors.New("pwm fault"),
	}}
	nt := &fakeNotifier{}
	ctrl := New(drv, nt, newRecordClock())

	ctrl.Handle(DefaultState(), command.Command{Kind: command.KindText, Text: "ab"})

	// Channel A fails on both characters; channel B still gets driven and
	// the traces keep coming.
	assert.Equal(t, []actuator.Channel{actuator.ChannelA, actuator.ChannelA}, nt.drive)
	assert.Equal(t, []pulseWrite{
		{actuator.ChannelB, 844},
		{actuator.ChannelB, 844},
	}, drv.writes)
	assert.Len(t, nt.traces, 2)
}

func TestController_Home(t *testing.T) {
	ctrl, drv, _, _ := newTestController()

	ctrl.Home()

	assert.Equal(t, []pulseWrite{
		{actuator.ChannelA, actuator.Home},
		{actuator.ChannelB, actuator.Home},
	}, drv.writes)
}

func TestDefaultState(t *testing.T) {
	st := DefaultState()

	assert.True(t, st.Dual)
	assert.Equal(t, 3*time.Second, st.CharDelay)
	assert.Equal(t, 750*time.Millisecond, st.ServoDelay)
	assert.False(t, st.Debug)
}

func TestNew_NilClock(t *testing.T) {
	ctrl := New(&fakeDriver{}, &fakeNotifier{}, nil)
	assert.NotNil(t, ctrl.clock)
}
