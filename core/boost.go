// Boost converter control core.
// Implements the per-cycle PID arbitration between constant-voltage and
// constant-current regulation, current-sense calibration, and the shared
// state snapshot read by the console and host transport.
package core

import (
	"sync/atomic"
	"time"
)

const (
	// Feedback divider resistors in 10 ohm units.
	resistorFeedback = 390
	resistorInput    = 100
	resistorTotal    = resistorFeedback + resistorInput

	// InternalVRefMilliVolts is the MCU's fixed internal reference; the
	// reference channel code is measured against it every cycle so that
	// supply drift does not skew the unit conversions.
	InternalVRefMilliVolts = 1200

	// ADCResolution is the sampler's native resolution in bits.
	ADCResolution = 10
	ADCMax        = 1 << ADCResolution

	// Duty cycle limits in timer compare units. MaxDuty is below the timer
	// period on purpose: the switch must open every cycle.
	MinDuty = 0
	MaxDuty = 250

	// Fixed-point PID gains, expressed as right shifts.
	gainShiftP = 0
	gainShiftD = 3
	gainShiftI = 6

	// CalibrationSettle is how long the current-sense path is given to
	// reach its resting state before the zero offset is latched.
	CalibrationSettle = 100 * time.Millisecond

	// DefaultCurrentLimitMilliAmps is applied right after calibration so
	// a voltage target set before any explicit limit still runs under a
	// current ceiling.
	DefaultCurrentLimitMilliAmps = 500
)

// Sample holds the three raw codes acquired once per switching period.
type Sample struct {
	Reference  uint16 // internal-reference channel code
	CurrentRaw uint16 // current-sense channel code
	VoltageRaw uint16 // output-divider channel code
}

// State is the externally visible snapshot of the converter.
type State struct {
	VoltageMilliVolts uint32
	CurrentMilliAmps  uint32
	Duty              uint8
	CCMode            bool
}

// DutyDriver commits a duty value to the power-stage modulator.
// Implementations must tolerate being called at the full acquisition rate.
type DutyDriver interface {
	SetDuty(duty uint8)
}

// Controller bundles the regulation targets, the persistent PID state and
// the published snapshot. Targets and snapshot words cross execution
// contexts and are therefore atomics; the PID state is touched only from
// the sampling context.
type Controller struct {
	duty DutyDriver

	// Written by the console/host context, read every control cycle.
	targetVRaw atomic.Uint32
	targetIRaw atomic.Uint32

	// Latest raw codes and outputs, published by the control context.
	refRaw  atomic.Uint32
	vRaw    atomic.Uint32
	iRaw    atomic.Uint32
	pwmDuty atomic.Uint32
	ccMode  atomic.Uint32

	// PID state, control context only.
	lastErr  int32
	integral int32

	// Current-sense zero offset, latched once by Calibrate.
	currentOffset int32
	calibrated    bool
}

// NewController creates a controller driving the given modulator.
func NewController(duty DutyDriver) *Controller {
	return &Controller{duty: duty}
}

// StepSample runs one control cycle for a completed acquisition. It is the
// hot path: called from the sampling context once per switching period and
// must finish well inside it.
func (c *Controller) StepSample(s Sample) {
	c.refRaw.Store(uint32(s.Reference))
	c.iRaw.Store(uint32(s.CurrentRaw))
	c.vRaw.Store(uint32(s.VoltageRaw))

	targetV := int32(c.targetVRaw.Load())
	targetI := int32(c.targetIRaw.Load())

	// A zero target on either axis disables regulation outright.
	if targetV == 0 || targetI == 0 {
		c.lastErr = 0
		c.integral = 0
		c.commit(MinDuty)
		return
	}

	ePv := targetV - int32(s.VoltageRaw)
	ePi := targetI - int32(s.CurrentRaw)

	// The smaller error is the limit closer to being violated; letting it
	// drive the duty gives hitless CV/CC handover without a state machine.
	if ePv < ePi {
		c.ccMode.Store(0)
	} else {
		c.ccMode.Store(1)
	}

	eP := ePv
	if ePi < eP {
		eP = ePi
	}
	eD := eP - c.lastErr
	c.integral += eP

	duty := (eP >> gainShiftP) + (eD >> gainShiftD) + (c.integral >> gainShiftI)
	if duty < MinDuty {
		duty = MinDuty
	}
	if duty > MaxDuty {
		duty = MaxDuty
	}

	c.lastErr = eP
	c.commit(uint8(duty))
}

// commit applies a duty value to the modulator and records it for the
// snapshot. The clamp is a last line of defense; StepSample already
// bounds the value.
func (c *Controller) commit(duty uint8) {
	if duty > MaxDuty {
		duty = MaxDuty
	}
	c.duty.SetDuty(duty)
	c.pwmDuty.Store(uint32(duty))
}

// Calibrate latches the current-sense zero offset. It forces the voltage
// target to zero (halting regulation per the zero-target rule), waits for
// the sense path to settle, then records the resting current code. Runs
// once at startup; later calls are ignored.
//
// Sampling must already be active so the resting code is fresh.
func (c *Controller) Calibrate(settle time.Duration) {
	if c.calibrated {
		return
	}

	c.targetVRaw.Store(0)
	if settle > 0 {
		time.Sleep(settle)
	}
	c.currentOffset = int32(c.iRaw.Load())
	c.calibrated = true

	LogDebug(tagBoost, "current offset: "+itoa(int(c.currentOffset)))

	c.SetCurrentLimit(DefaultCurrentLimitMilliAmps)
}

// SetVoltageTarget sets the regulation target in millivolts. Zero halts
// regulation.
func (c *Controller) SetVoltageTarget(milliVolts uint32) {
	c.targetVRaw.Store(uint32(c.millivoltsToADC(milliVolts)))
}

// SetCurrentLimit sets the current ceiling in milliamps. Zero disables
// current limiting, which by the zero-target rule halts regulation
// entirely rather than running unlimited.
func (c *Controller) SetCurrentLimit(milliAmps uint32) {
	if milliAmps > 0 {
		c.targetIRaw.Store(uint32(c.milliampsToADC(milliAmps)))
	} else {
		c.targetIRaw.Store(0)
	}
}

// State returns the published snapshot. Field-level consistency only:
// each word is read atomically but the set is not transactional.
func (c *Controller) State() State {
	return State{
		VoltageMilliVolts: c.voltageMilliVolts(),
		CurrentMilliAmps:  c.currentMilliAmps(),
		Duty:              uint8(c.pwmDuty.Load()),
		CCMode:            c.ccMode.Load() != 0,
	}
}

// vrefMilliVolts derives the ADC full-scale voltage from the latest
// internal-reference code. Re-computed on every conversion because the
// reference code drifts with the supply rail.
func (c *Controller) vrefMilliVolts() uint32 {
	ref := c.refRaw.Load()
	if ref == 0 {
		// No acquisition yet.
		return 0
	}
	return (InternalVRefMilliVolts * ADCMax) / ref
}

// voltageMilliVolts converts the latest output-divider code to millivolts.
func (c *Controller) voltageMilliVolts() uint32 {
	vref := uint64(c.vrefMilliVolts())
	raw := uint64(c.vRaw.Load())
	return uint32(raw * vref * resistorTotal / (resistorInput * ADCMax))
}

// millivoltsToADC converts a voltage target to a raw code using the
// current reference measurement.
func (c *Controller) millivoltsToADC(milliVolts uint32) uint16 {
	vref := uint64(c.vrefMilliVolts())
	if vref == 0 {
		return 0
	}
	return uint16(uint64(milliVolts) * ADCMax * resistorInput / (resistorTotal * vref))
}

// currentMilliAmps converts the latest current-sense code to milliamps.
// One raw LSB corresponds to one milliamp once the offset is removed.
func (c *Controller) currentMilliAmps() uint32 {
	current := int32(c.iRaw.Load()) - c.currentOffset
	if current < 0 {
		return 0
	}
	return uint32(current)
}

// milliampsToADC converts a current limit to a raw code, re-applying the
// calibration offset.
func (c *Controller) milliampsToADC(milliAmps uint32) uint16 {
	return uint16(int32(milliAmps) + c.currentOffset)
}
