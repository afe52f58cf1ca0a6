package actuator

import (
	"github.com/chewxy/math32"

	"github.com/itohio/gobraille/pkg/braille"
)

// PulseWidth is an actuator drive pulse in microseconds.
type PulseWidth uint16

// Channel identifies one of the two actuator channels. Channel A renders
// the high half of a pattern, channel B the low half.
type Channel uint8

const (
	ChannelA Channel = iota
	ChannelB
)

// String returns the channel letter used on the wire.
func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	}
	return "?"
}

const (
	// MinPulse and MaxPulse bound the physically safe drive range.
	MinPulse PulseWidth = 500
	MaxPulse PulseWidth = 2500

	// StepMM is the linear travel between adjacent table positions.
	StepMM = 2.5
)

// pulses holds the calibrated pulse width for each sub-pattern value. Each
// step moves the actuator 2.5mm further from home.
var pulses = [8]PulseWidth{
	844,  // 000 -> 0.0mm (home position)
	1151, // 001 -> 2.5mm
	1268, // 010 -> 5.0mm
	1324, // 011 -> 7.5mm
	1613, // 100 -> 10.0mm
	1920, // 101 -> 12.5mm
	2037, // 110 -> 15.0mm
	2094, // 111 -> 17.5mm
}

// Home is the rest position pulse width for both channels.
const Home PulseWidth = 844

// Pulse returns the drive pulse for a sub-pattern. Values outside 0-7
// cannot come out of a pattern split; they fall back to the home position
// rather than driving the actuator somewhere undefined.
func Pulse(s braille.SubPattern) PulseWidth {
	if int(s) >= len(pulses) {
		return Home
	}
	return pulses[s]
}

const (
	// PWMResolution is the counter width of the PWM peripheral.
	PWMResolution = 16
	// PWMPeriodUS is the PWM frame length in microseconds (50Hz).
	PWMPeriodUS = 20000

	maxDuty = 1<<PWMResolution - 1
)

// Duty converts a pulse width to a duty-cycle counter value for a PWM
// channel of PWMResolution bits over a PWMPeriodUS frame. Duty and Pulse
// describe the same physical position in the two supported drive forms.
func Duty(p PulseWidth) uint32 {
	return uint32(p) * maxDuty / PWMPeriodUS
}

// Displacement returns the linear travel in millimeters for a pulse width,
// snapped to the nearest table position and rounded to two decimals.
func Displacement(p PulseWidth) float32 {
	mm := float32(nearestIndex(p)) * StepMM
	return math32.Round(mm*100) / 100
}

// nearestIndex finds the table position closest to the pulse width.
func nearestIndex(p PulseWidth) int {
	best := 0
	bestDist := math32.Abs(float32(p) - float32(pulses[0]))
	for i := 1; i < len(pulses); i++ {
		d := math32.Abs(float32(p) - float32(pulses[i]))
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
