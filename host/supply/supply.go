// Package supply is the host-side client for the boost supply's binary
// protocol: set targets, read status reports, drain diagnostic text.
package supply

import (
	"fmt"
	"strings"
	"time"

	"goboost/core"
	"goboost/host/serial"
	"goboost/protocol"
)

// Client talks to a supply over a serial port.
type Client struct {
	port serial.Port
}

// Connect opens the given device with default settings.
func Connect(device string) (*Client, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a supply connection with a custom serial config.
func ConnectWithConfig(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	// Give the firmware a moment if it just enumerated.
	time.Sleep(100 * time.Millisecond)

	return NewClient(port), nil
}

// NewClient wraps an already-open port; useful with a mock port in tests.
func NewClient(port serial.Port) *Client {
	return &Client{port: port}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.port.Close()
}

// SetVoltage sets the regulation target in millivolts. Zero halts the
// converter.
func (c *Client) SetVoltage(milliVolts uint32) error {
	return c.send(protocol.OpSetVoltage, milliVolts)
}

// SetCurrentLimit sets the current ceiling in milliamps. Zero disables
// current limiting, which also halts the converter.
func (c *Client) SetCurrentLimit(milliAmps uint32) error {
	return c.send(protocol.OpSetCurrent, milliAmps)
}

// Off zeroes both targets.
func (c *Client) Off() error {
	if err := c.SetVoltage(0); err != nil {
		return err
	}
	return c.SetCurrentLimit(0)
}

// Status requests the compact 6-byte status report.
func (c *Client) Status() (core.State, error) {
	if err := c.send(protocol.OpGetStatus, 0); err != nil {
		return core.State{}, err
	}
	buf := make([]byte, protocol.StatusLength)
	if err := c.readFull(buf); err != nil {
		return core.State{}, fmt.Errorf("status read: %w", err)
	}
	return protocol.DecodeStatus(buf)
}

// StatusExt requests the 14-byte extended report including power.
func (c *Client) StatusExt() (protocol.ExtStatus, error) {
	if err := c.send(protocol.OpGetStatusX, 0); err != nil {
		return protocol.ExtStatus{}, err
	}
	buf := make([]byte, protocol.StatusExtLength)
	if err := c.readFull(buf); err != nil {
		return protocol.ExtStatus{}, fmt.Errorf("extended status read: %w", err)
	}
	return protocol.DecodeStatusExt(buf)
}

// ReadLog drains the firmware's diagnostic ring in fixed-size chunks
// until it reports empty, and returns the accumulated text.
func (c *Client) ReadLog() (string, error) {
	var sb strings.Builder
	for {
		if err := c.send(protocol.OpReadLog, 0); err != nil {
			return sb.String(), err
		}

		var count [1]byte
		if err := c.readFull(count[:]); err != nil {
			return sb.String(), fmt.Errorf("log chunk header: %w", err)
		}
		if count[0] == 0 {
			return sb.String(), nil
		}
		if count[0] > protocol.LogChunkSize {
			return sb.String(), fmt.Errorf("log chunk length %d out of range", count[0])
		}

		chunk := make([]byte, count[0])
		if err := c.readFull(chunk); err != nil {
			return sb.String(), fmt.Errorf("log chunk body: %w", err)
		}
		sb.Write(chunk)
	}
}

func (c *Client) send(op byte, value uint32) error {
	frame := protocol.EncodeCommand(op, value)
	if _, err := c.port.Write(frame); err != nil {
		return fmt.Errorf("command write: %w", err)
	}
	return c.port.Flush()
}

// readFull fills buf, tolerating the short timeout-bounded reads the
// native port produces. Gives up after a bounded number of empty reads.
func (c *Client) readFull(buf []byte) error {
	filled := 0
	idle := 0
	for filled < len(buf) {
		n, err := c.port.Read(buf[filled:])
		if err != nil {
			return err
		}
		filled += n
		if n == 0 {
			idle++
			if idle > 20 {
				return fmt.Errorf("timed out after %d of %d bytes", filled, len(buf))
			}
			continue
		}
		idle = 0
	}
	return nil
}
