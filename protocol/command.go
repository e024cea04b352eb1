package protocol

import (
	"encoding/binary"
	"errors"
)

var (
	ErrShortFrame = errors.New("protocol: short command frame")
	ErrBadMarker  = errors.New("protocol: bad frame marker")
	ErrBadOpcode  = errors.New("protocol: unknown opcode")
)

// EncodeCommand builds a 6-byte command frame.
func EncodeCommand(op byte, value uint32) []byte {
	out := make([]byte, CommandLength)
	out[0] = CommandMarker
	out[1] = op
	binary.LittleEndian.PutUint32(out[2:6], value)
	return out
}

// DecodeCommand validates and unpacks a command frame.
func DecodeCommand(frame []byte) (op byte, value uint32, err error) {
	if len(frame) < CommandLength {
		return 0, 0, ErrShortFrame
	}
	if frame[0] != CommandMarker {
		return 0, 0, ErrBadMarker
	}
	op = frame[1]
	if op < OpSetVoltage || op > OpReadLog {
		return 0, 0, ErrBadOpcode
	}
	return op, binary.LittleEndian.Uint32(frame[2:6]), nil
}
