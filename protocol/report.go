package protocol

import (
	"encoding/binary"
	"errors"

	"goboost/core"
)

var ErrShortReport = errors.New("protocol: short status report")

// EncodeStatus packs the compact 6-byte status report. Voltage and
// current saturate at the u16 range rather than truncating.
func EncodeStatus(st core.State) []byte {
	out := make([]byte, StatusLength)
	binary.LittleEndian.PutUint16(out[0:2], sat16(st.VoltageMilliVolts))
	binary.LittleEndian.PutUint16(out[2:4], sat16(st.CurrentMilliAmps))
	out[4] = st.Duty
	if st.CCMode {
		out[5] = 1
	}
	return out
}

// DecodeStatus unpacks a compact status report.
func DecodeStatus(data []byte) (core.State, error) {
	if len(data) < StatusLength {
		return core.State{}, ErrShortReport
	}
	return core.State{
		VoltageMilliVolts: uint32(binary.LittleEndian.Uint16(data[0:2])),
		CurrentMilliAmps:  uint32(binary.LittleEndian.Uint16(data[2:4])),
		Duty:              data[4],
		CCMode:            data[5] != 0,
	}, nil
}

// EncodeStatusExt packs the 14-byte extended report: u32 voltage mV,
// u32 current mA, u32 power mW, duty, ccMode.
func EncodeStatusExt(st core.State) []byte {
	out := make([]byte, StatusExtLength)
	binary.LittleEndian.PutUint32(out[0:4], st.VoltageMilliVolts)
	binary.LittleEndian.PutUint32(out[4:8], st.CurrentMilliAmps)
	power := uint64(st.VoltageMilliVolts) * uint64(st.CurrentMilliAmps) / 1000
	binary.LittleEndian.PutUint32(out[8:12], uint32(power))
	out[12] = st.Duty
	if st.CCMode {
		out[13] = 1
	}
	return out
}

// ExtStatus is the decoded extended report.
type ExtStatus struct {
	core.State
	PowerMilliWatts uint32
}

// DecodeStatusExt unpacks an extended status report.
func DecodeStatusExt(data []byte) (ExtStatus, error) {
	if len(data) < StatusExtLength {
		return ExtStatus{}, ErrShortReport
	}
	return ExtStatus{
		State: core.State{
			VoltageMilliVolts: binary.LittleEndian.Uint32(data[0:4]),
			CurrentMilliAmps:  binary.LittleEndian.Uint32(data[4:8]),
			Duty:              data[12],
			CCMode:            data[13] != 0,
		},
		PowerMilliWatts: binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

func sat16(v uint32) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
