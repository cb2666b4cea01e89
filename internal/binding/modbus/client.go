// internal/binding/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-binding/internal/binding"
)

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// Client is a single TCP connection to one device endpoint.
// It implements binding.Wire. Calls are serialized because the unit id
// is set on the shared handler before every request.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	Timeout  time.Duration

	// FrameLog receives raw frames when set.
	FrameLog *log.Logger
}

// New creates a connected Modbus TCP client. ONE dial attempt.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	// the owning binding.Connection handles idle close
	h.IdleTimeout = 0
	h.Logger = cfg.FrameLog

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Dialer returns a binding.DialFunc producing Clients.
func Dialer(frameLog *log.Logger) binding.DialFunc {
	return func(endpoint string, timeout time.Duration) (binding.Wire, error) {
		return New(Config{
			Endpoint: endpoint,
			Timeout:  timeout,
			FrameLog: frameLog,
		})
	}
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ---- binding.Wire ----

// Read returns one byte per bit for coils/discrete inputs and two
// big-endian bytes per register otherwise.
func (c *Client) Read(unit uint8, fn binding.Function, base, length uint16) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unit

	var (
		raw []byte
		err error
	)
	switch fn {
	case binding.ReadCoils:
		raw, err = c.client.ReadCoils(base, length)
	case binding.ReadDiscreteInputs:
		raw, err = c.client.ReadDiscreteInputs(base, length)
	case binding.ReadHoldingRegisters:
		raw, err = c.client.ReadHoldingRegisters(base, length)
	case binding.ReadInputRegisters:
		raw, err = c.client.ReadInputRegisters(base, length)
	default:
		return nil, fmt.Errorf("modbus client: unsupported read function %s", fn)
	}
	if err != nil {
		return nil, translate(err)
	}

	if fn.Kind().Width() == 1 {
		if len(raw) < (int(length)+7)/8 {
			return nil, fmt.Errorf("modbus client: short bit payload: got %d bytes for %d bits", len(raw), length)
		}
		return unpackBits(raw, int(length)), nil
	}
	if len(raw) != 2*int(length) {
		return nil, fmt.Errorf("modbus client: register payload %d bytes, want %d", len(raw), 2*int(length))
	}
	return raw, nil
}

// Write accepts the layout Read produces.
func (c *Client) Write(unit uint8, fn binding.Function, base, length uint16, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unit

	var err error
	switch fn {
	case binding.WriteSingleCoil:
		if len(payload) != 1 {
			return fmt.Errorf("modbus client: single coil payload %d bytes, want 1", len(payload))
		}
		v := coilOff
		if payload[0] != 0 {
			v = coilOn
		}
		_, err = c.client.WriteSingleCoil(base, v)
	case binding.WriteMultipleCoils:
		_, err = c.client.WriteMultipleCoils(base, length, packBits(payload))
	case binding.WriteSingleRegister:
		if len(payload) != 2 {
			return fmt.Errorf("modbus client: single register payload %d bytes, want 2", len(payload))
		}
		_, err = c.client.WriteSingleRegister(base, binary.BigEndian.Uint16(payload))
	case binding.WriteMultipleRegisters:
		_, err = c.client.WriteMultipleRegisters(base, length, payload)
	default:
		return fmt.Errorf("modbus client: unsupported write function %s", fn)
	}
	return translate(err)
}

// ---- helpers (pure geometry) ----

// unpackBits expands LSB-first packed bits into one 0/1 byte per bit.
func unpackBits(data []byte, count int) []byte {
	out := make([]byte, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		if byteIdx >= len(data) {
			continue
		}
		if data[byteIdx]&(1<<bitIdx) != 0 {
			out[i] = 1
		}
	}
	return out
}

// packBits is the inverse of unpackBits; any non-zero byte is a set bit.
func packBits(bits []byte) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
