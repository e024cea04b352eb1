//go:build rp2040

// RP2040 firmware entry point for the boost supply.
//
// Pin map:
//   GP0  - PWM0A gate drive
//   GP26 - ADC0 output voltage divider
//   GP27 - ADC1 current-sense amplifier
//   GP28 - ADC2 1.2V reference
//   GP22 - mode strap (low = interactive console, open = binary protocol)
//   GP4/GP5 - I2C0 for the optional INA260 telemetry monitor
package main

import (
	"machine"
	"sync"
	"time"

	"goboost/core"
	"goboost/protocol"
	"goboost/ring"
)

const (
	logRingSize = 256
	rxRingSize  = 64

	watchdogTimeoutMillis = 2000
)

// mutexLock adapts sync.Mutex to the ring buffer's lock capability. The
// producer (log formatting) and consumer (transport drain) run in
// different goroutines.
type mutexLock struct {
	mu sync.Mutex
}

func (l *mutexLock) Acquire() { l.mu.Lock() }
func (l *mutexLock) Release() { l.mu.Unlock() }

func main() {
	// Clear any watchdog state left over from a previous reset before
	// anything slow runs.
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogTimeoutMillis}); err != nil {
		return
	}

	logRing, _ := ring.NewThreadSafe(logRingSize, &mutexLock{})
	core.SetLogSink(logRing)
	core.SetLogLevel(core.LogLevelDebug)

	pwm, err := newBoostPWM()
	if err != nil {
		return
	}

	ctrl := core.NewController(pwm)

	sampler := newBoostSampler()
	go sampler.run(ctrl)

	// Sampling is live; latch the current-sense zero offset before any
	// target can be set.
	ctrl.Calibrate(core.CalibrationSettle)

	machine.Watchdog.Start()

	go runTelemetry(ctrl)

	if consoleMode() {
		runConsole(ctrl)
		return
	}
	runProtocol(ctrl, logRing)
}

// runProtocol pumps USB CDC bytes into the receive ring and lets the
// endpoint apply command frames and emit replies.
func runProtocol(ctrl *core.Controller, logRing *ring.Buffer) {
	rx, _ := ring.New(rxRingSize)
	ep := protocol.NewEndpoint(rx, logRing, ctrl, machine.Serial)

	var scratch [1]byte
	for {
		machine.Watchdog.Update()

		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			scratch[0] = b
			if err := rx.Put(scratch[:]); err != nil {
				// Receive ring full: drop the byte, the endpoint will
				// resync on the next marker.
				break
			}
		}

		ep.Poll()
		time.Sleep(time.Millisecond)
	}
}
