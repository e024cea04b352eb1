package protocol

import (
	"errors"
	"io"

	"goboost/core"
	"goboost/ring"
)

// Device is the control surface commands are applied to. core.Controller
// satisfies it.
type Device interface {
	SetVoltageTarget(milliVolts uint32)
	SetCurrentLimit(milliAmps uint32)
	State() core.State
}

// Endpoint drains a receive ring, applies complete command frames to the
// device and writes solicited replies. The transport layer (USB CDC,
// UART) only has to push received bytes into the ring and give Poll a
// writer for the reply direction.
type Endpoint struct {
	rx  *ring.Buffer
	log *ring.Buffer // diagnostic text drained by OpReadLog; may be nil
	dev Device
	tx  io.Writer
}

// NewEndpoint creates an endpoint. log may be nil if the transport does
// not carry diagnostic text.
func NewEndpoint(rx *ring.Buffer, log *ring.Buffer, dev Device, tx io.Writer) *Endpoint {
	return &Endpoint{rx: rx, log: log, dev: dev, tx: tx}
}

// Poll processes everything currently buffered. Bytes ahead of the first
// marker are garbage and are dropped; an invalid frame is consumed whole
// and the scan resumes at the next marker, the same resync discipline the
// reference transport uses on a framing error. Returns the number of
// commands applied.
func (e *Endpoint) Poll() int {
	applied := 0
	for {
		idx, err := e.rx.IndexOf(CommandMarker)
		if errors.Is(err, ring.ErrNotFound) {
			// No frame can start in what is buffered.
			e.rx.Skip(e.rx.Len())
			return applied
		}
		e.rx.Skip(idx)

		if e.rx.Len() < CommandLength {
			// Partial frame: wait for the rest.
			return applied
		}

		frame, _ := e.rx.Get(CommandLength)
		op, value, err := DecodeCommand(frame)
		if err != nil {
			// Marker followed by junk. The frame is already consumed;
			// rescan from the next marker.
			continue
		}

		e.dispatch(op, value)
		applied++
	}
}

func (e *Endpoint) dispatch(op byte, value uint32) {
	switch op {
	case OpSetVoltage:
		e.dev.SetVoltageTarget(value)
	case OpSetCurrent:
		e.dev.SetCurrentLimit(value)
	case OpGetStatus:
		e.reply(EncodeStatus(e.dev.State()))
	case OpGetStatusX:
		e.reply(EncodeStatusExt(e.dev.State()))
	case OpReadLog:
		e.replyLogChunk()
	}
}

// replyLogChunk sends one length-prefixed chunk of diagnostic text:
// a count byte followed by up to LogChunkSize bytes.
func (e *Endpoint) replyLogChunk() {
	chunk := make([]byte, 1, 1+LogChunkSize)
	if e.log != nil {
		text, _ := e.log.Get(LogChunkSize)
		chunk[0] = byte(len(text))
		chunk = append(chunk, text...)
	}
	e.reply(chunk)
}

func (e *Endpoint) reply(data []byte) {
	if e.tx != nil {
		_, _ = e.tx.Write(data)
	}
}
