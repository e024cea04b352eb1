//go:build rp2040

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/ina260"

	"goboost/core"
)

const telemetryTag = "ina260"

// runTelemetry cross-checks the control loop's derived output readings
// against an INA260 monitor sitting directly on the output rail. Purely
// diagnostic; regulation never depends on it.
func runTelemetry(ctrl *core.Controller) {
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GPIO4,
		SCL: machine.GPIO5,
	})
	if err != nil {
		core.LogWarn(telemetryTag, "i2c init failed")
		return
	}

	dev := ina260.New(machine.I2C0)
	dev.Configure()
	if !dev.Connected() {
		core.LogWarn(telemetryTag, "monitor not present")
		return
	}

	for {
		time.Sleep(time.Second)

		st := ctrl.State()
		monVoltage := uint32(dev.Voltage() / 1000) // uV -> mV
		monCurrent := uint32(dev.Current() / 1000) // uA -> mA

		core.LogDebug(telemetryTag, "mon "+utoa(monVoltage)+"mV/"+utoa(monCurrent)+"mA"+
			" loop "+utoa(st.VoltageMilliVolts)+"mV/"+utoa(st.CurrentMilliAmps)+"mA")
	}
}
