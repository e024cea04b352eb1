//go:build rp2040

package main

import (
	"machine"

	"goboost/core"
)

// Switching period in timer-resolution units; duty values from the
// control law are compare counts against this period, so MaxDuty=250
// leaves the switch open for at least 15/265 of every cycle.
const (
	boostPeriodTicks = 265
	boostPeriodNs    = 11000 // ~90kHz switching frequency
)

// pwmGroup abstracts TinyGo's unexported *pwmGroup so the slice can be
// held in a struct field.
type pwmGroup interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// boostPWM drives the gate of the boost switch from PWM slice 0. It is
// the core.DutyDriver for this target.
type boostPWM struct {
	slice   pwmGroup
	channel uint8
	top     uint32
}

func newBoostPWM() (*boostPWM, error) {
	slice := machine.PWM0

	err := slice.Configure(machine.PWMConfig{Period: boostPeriodNs})
	if err != nil {
		return nil, err
	}

	ch, err := slice.Channel(machine.GPIO0)
	if err != nil {
		return nil, err
	}

	p := &boostPWM{slice: slice, channel: ch, top: slice.Top()}

	// Gate off until the controller commits a duty.
	slice.Set(ch, 0)
	return p, nil
}

// SetDuty commits a compare value. The controller pre-clamps; the clamp
// here is the last line of defense against a runaway value reaching the
// gate.
func (p *boostPWM) SetDuty(duty uint8) {
	if duty > core.MaxDuty {
		duty = core.MaxDuty
	}
	compare := uint32(duty) * (p.top + 1) / boostPeriodTicks
	p.slice.Set(p.channel, compare)
}
