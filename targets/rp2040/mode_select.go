//go:build rp2040

package main

import "machine"

// Mode strap: tie GP22 low to get the interactive console instead of the
// binary host protocol on the USB CDC port.
const modeStrapPin = machine.GPIO22

func consoleMode() bool {
	modeStrapPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return !modeStrapPin.Get()
}
