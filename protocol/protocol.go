// Package protocol implements the supply's wire formats: fixed-size
// command frames from the host and the compact/extended status reports
// going back, plus the device-side endpoint that scans a receive ring
// for frames.
package protocol

// Version is the firmware/protocol version string reported to hosts.
const Version = "0.1.0"

// Command frame: marker, opcode, 4-byte little-endian value.
const (
	CommandMarker byte = 0xB5
	CommandLength      = 6
)

// Opcodes. SetVoltage and SetCurrent carry a millivolt/milliamp value;
// the Get/ReadLog opcodes ignore the value field and solicit a reply.
const (
	OpSetVoltage byte = 1
	OpSetCurrent byte = 2
	OpGetStatus  byte = 3
	OpGetStatusX byte = 4
	OpReadLog    byte = 5
)

// Status report sizes: compact is voltage u16, current u16, duty u8,
// ccMode u8; extended widens voltage/current to u32 and adds power.
const (
	StatusLength    = 6
	StatusExtLength = 14
)

// LogChunkSize is the fixed drain size for diagnostic text, matching the
// 8-byte IN report of the reference transport.
const LogChunkSize = 8
