package protocol

import (
	"bytes"
	"errors"
	"testing"

	"goboost/core"
	"goboost/ring"
)

func TestCommandFrameLayout(t *testing.T) {
	frame := EncodeCommand(OpSetVoltage, 5000)
	want := []byte{0xB5, 1, 0x88, 0x13, 0x00, 0x00}
	if !bytes.Equal(frame, want) {
		t.Errorf("Command frame = %#v, want %#v", frame, want)
	}

	op, value, err := DecodeCommand(frame)
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}
	if op != OpSetVoltage || value != 5000 {
		t.Errorf("Decoded op=%d value=%d, want op=%d value=5000", op, value, OpSetVoltage)
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	if _, _, err := DecodeCommand([]byte{0xB5, 1}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("Short frame: got %v, want ErrShortFrame", err)
	}
	if _, _, err := DecodeCommand([]byte{0x00, 1, 0, 0, 0, 0}); !errors.Is(err, ErrBadMarker) {
		t.Errorf("Bad marker: got %v, want ErrBadMarker", err)
	}
	if _, _, err := DecodeCommand([]byte{0xB5, 9, 0, 0, 0, 0}); !errors.Is(err, ErrBadOpcode) {
		t.Errorf("Bad opcode: got %v, want ErrBadOpcode", err)
	}
}

func TestStatusReportLayout(t *testing.T) {
	st := core.State{
		VoltageMilliVolts: 5000,
		CurrentMilliAmps:  250,
		Duty:              120,
		CCMode:            true,
	}

	report := EncodeStatus(st)
	want := []byte{0x88, 0x13, 0xFA, 0x00, 120, 1}
	if !bytes.Equal(report, want) {
		t.Errorf("Status report = %#v, want %#v", report, want)
	}

	back, err := DecodeStatus(report)
	if err != nil {
		t.Fatalf("DecodeStatus failed: %v", err)
	}
	if back != st {
		t.Errorf("Round trip = %+v, want %+v", back, st)
	}
}

func TestStatusReportSaturates(t *testing.T) {
	report := EncodeStatus(core.State{VoltageMilliVolts: 100000})
	back, _ := DecodeStatus(report)
	if back.VoltageMilliVolts != 0xFFFF {
		t.Errorf("Over-range voltage encoded as %d, want 65535", back.VoltageMilliVolts)
	}
}

func TestExtendedStatusReport(t *testing.T) {
	st := core.State{
		VoltageMilliVolts: 12000,
		CurrentMilliAmps:  1500,
		Duty:              200,
		CCMode:            false,
	}

	report := EncodeStatusExt(st)
	if len(report) != StatusExtLength {
		t.Fatalf("Extended report length = %d, want %d", len(report), StatusExtLength)
	}

	back, err := DecodeStatusExt(report)
	if err != nil {
		t.Fatalf("DecodeStatusExt failed: %v", err)
	}
	if back.State != st {
		t.Errorf("Round trip = %+v, want %+v", back.State, st)
	}
	// 12V * 1.5A = 18W
	if back.PowerMilliWatts != 18000 {
		t.Errorf("Power = %dmW, want 18000", back.PowerMilliWatts)
	}
}

// fakeDevice records applied targets and serves a fixed state.
type fakeDevice struct {
	voltage uint32
	current uint32
	sets    int
}

func (d *fakeDevice) SetVoltageTarget(mV uint32) { d.voltage = mV; d.sets++ }
func (d *fakeDevice) SetCurrentLimit(mA uint32)  { d.current = mA; d.sets++ }
func (d *fakeDevice) State() core.State {
	return core.State{VoltageMilliVolts: 3300, CurrentMilliAmps: 100, Duty: 42, CCMode: true}
}

func newTestEndpoint(t *testing.T) (*Endpoint, *ring.Buffer, *ring.Buffer, *fakeDevice, *bytes.Buffer) {
	t.Helper()
	rx, err := ring.New(64)
	if err != nil {
		t.Fatalf("ring.New failed: %v", err)
	}
	logBuf, err := ring.New(64)
	if err != nil {
		t.Fatalf("ring.New failed: %v", err)
	}
	dev := &fakeDevice{}
	tx := &bytes.Buffer{}
	return NewEndpoint(rx, logBuf, dev, tx), rx, logBuf, dev, tx
}

func TestEndpointAppliesCommands(t *testing.T) {
	e, rx, _, dev, _ := newTestEndpoint(t)

	rx.Put(EncodeCommand(OpSetVoltage, 5000))
	rx.Put(EncodeCommand(OpSetCurrent, 250))

	if n := e.Poll(); n != 2 {
		t.Fatalf("Poll applied %d commands, want 2", n)
	}
	if dev.voltage != 5000 || dev.current != 250 {
		t.Errorf("Applied voltage=%d current=%d, want 5000/250", dev.voltage, dev.current)
	}
}

func TestEndpointSkipsGarbageBeforeMarker(t *testing.T) {
	e, rx, _, dev, _ := newTestEndpoint(t)

	rx.Put([]byte{0x00, 0xFF, 0x42})
	rx.Put(EncodeCommand(OpSetVoltage, 1234))

	if n := e.Poll(); n != 1 {
		t.Fatalf("Poll applied %d commands, want 1", n)
	}
	if dev.voltage != 1234 {
		t.Errorf("Voltage = %d, want 1234", dev.voltage)
	}
	if rx.Len() != 0 {
		t.Errorf("Receive ring still holds %d bytes", rx.Len())
	}
}

func TestEndpointWaitsForPartialFrame(t *testing.T) {
	e, rx, _, dev, _ := newTestEndpoint(t)

	frame := EncodeCommand(OpSetCurrent, 777)
	rx.Put(frame[:3])
	if n := e.Poll(); n != 0 {
		t.Fatalf("Poll applied %d commands on a partial frame, want 0", n)
	}
	if rx.Len() != 3 {
		t.Errorf("Partial frame was consumed: %d bytes left, want 3", rx.Len())
	}

	rx.Put(frame[3:])
	if n := e.Poll(); n != 1 {
		t.Fatalf("Poll applied %d commands after completion, want 1", n)
	}
	if dev.current != 777 {
		t.Errorf("Current = %d, want 777", dev.current)
	}
}

func TestEndpointResyncsAfterBadFrame(t *testing.T) {
	e, rx, _, dev, _ := newTestEndpoint(t)

	// Marker followed by an invalid opcode, then a good frame.
	rx.Put([]byte{CommandMarker, 0x7F, 0, 0, 0, 0})
	rx.Put(EncodeCommand(OpSetVoltage, 999))

	if n := e.Poll(); n != 1 {
		t.Fatalf("Poll applied %d commands, want 1 (bad frame dropped)", n)
	}
	if dev.voltage != 999 {
		t.Errorf("Voltage = %d, want 999", dev.voltage)
	}
}

func TestEndpointStatusReply(t *testing.T) {
	e, rx, _, _, tx := newTestEndpoint(t)

	rx.Put(EncodeCommand(OpGetStatus, 0))
	e.Poll()

	st, err := DecodeStatus(tx.Bytes())
	if err != nil {
		t.Fatalf("Reply did not decode: %v", err)
	}
	if st.VoltageMilliVolts != 3300 || st.Duty != 42 || !st.CCMode {
		t.Errorf("Status reply = %+v", st)
	}
}

func TestEndpointLogDrain(t *testing.T) {
	e, rx, logBuf, _, tx := newTestEndpoint(t)

	logBuf.Put([]byte("I/boost: hello\r\n"))

	// First chunk: count byte, then exactly LogChunkSize bytes.
	rx.Put(EncodeCommand(OpReadLog, 0))
	e.Poll()
	reply := tx.Bytes()
	if len(reply) != 1+LogChunkSize || int(reply[0]) != LogChunkSize {
		t.Fatalf("First log chunk = %v", reply)
	}
	if string(reply[1:]) != "I/boost:" {
		t.Errorf("Chunk text = %q", reply[1:])
	}

	// Drain the rest; final chunk is shorter.
	tx.Reset()
	rx.Put(EncodeCommand(OpReadLog, 0))
	e.Poll()
	reply = tx.Bytes()
	if int(reply[0]) != 8 || string(reply[1:]) != " hello\r\n" {
		t.Errorf("Second chunk = %q (count %d)", reply[1:], reply[0])
	}

	// Empty log: count byte of zero.
	tx.Reset()
	rx.Put(EncodeCommand(OpReadLog, 0))
	e.Poll()
	if got := tx.Bytes(); len(got) != 1 || got[0] != 0 {
		t.Errorf("Empty-log chunk = %v, want [0]", got)
	}
}
