//go:build rp2040

package main

import (
	"machine"
	"time"

	"goboost/core"
)

const consoleTag = "main"

// serialSink writes diagnostic lines straight to the USB CDC port; in
// console mode there is no host draining the log ring.
type serialSink struct{}

func (serialSink) Put(data []byte) error {
	_, err := machine.Serial.Write(data)
	return err
}

// runConsole is the interactive single-key console:
//
//	0      zero both targets
//	+ / =  raise the active target (50mV or 25mA steps)
//	-      lower the active target
//	1-9    set the active target (volts or hundreds of mA)
//	c      adjust the current limit with +/-/digits
//	v      adjust the voltage target, current limit cleared
//
// With no input it reports the converter state once per second.
func runConsole(ctrl *core.Controller) {
	core.SetLogSink(serialSink{})

	var (
		voltageTarget uint32
		currentLimit  uint32
		adjustCC      bool
	)

	for {
		machine.Watchdog.Update()

		c, ok := readKey(100 * time.Millisecond)
		if !ok {
			st := ctrl.State()
			power := st.VoltageMilliVolts * st.CurrentMilliAmps / 1000
			core.LogInfo(consoleTag, "cc: "+boolDigit(st.CCMode)+
				", voltage: "+utoa(st.VoltageMilliVolts)+"mV"+
				", current: "+utoa(st.CurrentMilliAmps)+"mA"+
				", power: "+utoa(power)+"mW")
			continue
		}

		switch c {
		case '0':
			voltageTarget = 0
			currentLimit = 0
			ctrl.SetVoltageTarget(0)
			ctrl.SetCurrentLimit(0)
		case '+', '=':
			if adjustCC {
				currentLimit += 25
				ctrl.SetCurrentLimit(currentLimit)
			} else {
				voltageTarget += 50
				ctrl.SetVoltageTarget(voltageTarget)
			}
		case '-':
			if adjustCC {
				if currentLimit >= 25 {
					currentLimit -= 25
				}
				ctrl.SetCurrentLimit(currentLimit)
			} else {
				if voltageTarget >= 50 {
					voltageTarget -= 50
				}
				ctrl.SetVoltageTarget(voltageTarget)
			}
		case 'c':
			adjustCC = true
		case 'v':
			adjustCC = false
			currentLimit = 0
			ctrl.SetCurrentLimit(0)
		default:
			if c <= '0' || c > '9' {
				break
			}
			n := uint32(c - '0')
			if adjustCC {
				currentLimit = n * 100
				ctrl.SetCurrentLimit(currentLimit)
			} else {
				voltageTarget = n * 1000
				ctrl.SetVoltageTarget(voltageTarget)
			}
		}
	}
}

// readKey waits up to the timeout for a console byte.
func readKey(timeout time.Duration) (byte, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err == nil {
				return b, true
			}
		}
		time.Sleep(time.Millisecond)
	}
	return 0, false
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// utoa formats an unsigned value for console output.
func utoa(n uint32) string {
	var buf [10]byte
	pos := len(buf)
	for {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return string(buf[pos:])
}
