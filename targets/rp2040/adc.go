//go:build rp2040

package main

import (
	"machine"

	"goboost/core"
)

// boostSampler acquires the three feedback quantities once per control
// cycle: the 1.2V reference, the current-sense amplifier and the output
// divider. Back-to-back one-shot conversions set the control cadence the
// way the hardware-triggered injection group does on the reference MCU.
type boostSampler struct {
	voltage machine.ADC
	current machine.ADC
	ref     machine.ADC
}

func newBoostSampler() *boostSampler {
	machine.InitADC()

	s := &boostSampler{
		voltage: machine.ADC{Pin: machine.GPIO26},
		current: machine.ADC{Pin: machine.GPIO27},
		ref:     machine.ADC{Pin: machine.GPIO28},
	}
	s.voltage.Configure(machine.ADCConfig{})
	s.current.Configure(machine.ADCConfig{})
	s.ref.Configure(machine.ADCConfig{})
	return s
}

// run is the high-priority acquisition loop: acquire, then run the
// control law synchronously before the next acquisition starts. Each
// acquisition produces exactly one control decision.
func (s *boostSampler) run(ctrl *core.Controller) {
	for {
		sample := core.Sample{
			Reference:  scaleRaw(s.ref.Get()),
			CurrentRaw: scaleRaw(s.current.Get()),
			VoltageRaw: scaleRaw(s.voltage.Get()),
		}
		ctrl.StepSample(sample)
	}
}

// scaleRaw reduces TinyGo's 16-bit left-aligned reading to the 10-bit
// code range the control law and conversions are tuned for.
func scaleRaw(v uint16) uint16 {
	return v >> (16 - core.ADCResolution)
}
