// internal/binding/modbus/server_test.go
package modbus

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
)

// testServer is a minimal Modbus/TCP responder backed by in-memory tables.
// Addresses at or above limit answer with an illegal data address exception.
type testServer struct {
	ln    net.Listener
	limit uint16

	mu        sync.Mutex
	coils     map[uint16]bool
	registers map[uint16]uint16
	requests  []uint8 // function codes in arrival order
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &testServer{
		ln:        ln,
		limit:     100,
		coils:     make(map[uint16]bool),
		registers: make(map[uint16]uint16),
	}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *testServer) Addr() string { return s.ln.Addr().String() }

func (s *testServer) Requests() []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint8(nil), s.requests...)
}

func (s *testServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *testServer) handle(conn net.Conn) {
	defer conn.Close()
	header := make([]byte, 7)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		length := binary.BigEndian.Uint16(header[4:6])
		if length < 2 {
			return
		}
		pdu := make([]byte, length-1)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		resp := s.process(pdu)

		out := make([]byte, 7+len(resp))
		copy(out[0:4], header[0:4])
		binary.BigEndian.PutUint16(out[4:6], uint16(len(resp)+1))
		out[6] = header[6]
		copy(out[7:], resp)
		if _, err := conn.Write(out); err != nil {
			return
		}
	}
}

func exceptionPDU(fc, code uint8) []byte { return []byte{fc | 0x80, code} }

func (s *testServer) process(pdu []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	fc := pdu[0]
	s.requests = append(s.requests, fc)
	if len(pdu) < 5 {
		return exceptionPDU(fc, 3)
	}
	addr := binary.BigEndian.Uint16(pdu[1:3])
	arg := binary.BigEndian.Uint16(pdu[3:5])

	inRange := func(qty uint16) bool { return uint32(addr)+uint32(qty) <= uint32(s.limit) }

	switch fc {
	case 1, 2:
		if !inRange(arg) {
			return exceptionPDU(fc, 2)
		}
		n := (int(arg) + 7) / 8
		out := append([]byte{fc, byte(n)}, make([]byte, n)...)
		for i := 0; i < int(arg); i++ {
			on := s.coils[addr+uint16(i)]
			if fc == 2 {
				on = (int(addr)+i)%2 == 1
			}
			if on {
				out[2+i/8] |= 1 << uint(i%8)
			}
		}
		return out
	case 3, 4:
		if !inRange(arg) {
			return exceptionPDU(fc, 2)
		}
		out := []byte{fc, byte(2 * arg)}
		for i := uint16(0); i < arg; i++ {
			v := s.registers[addr+i]
			if fc == 4 {
				v = 0x1000 + addr + i
			}
			out = binary.BigEndian.AppendUint16(out, v)
		}
		return out
	case 5:
		if !inRange(1) {
			return exceptionPDU(fc, 2)
		}
		s.coils[addr] = arg == 0xFF00
		return append([]byte(nil), pdu[:5]...)
	case 6:
		if !inRange(1) {
			return exceptionPDU(fc, 2)
		}
		s.registers[addr] = arg
		return append([]byte(nil), pdu[:5]...)
	case 15:
		if !inRange(arg) {
			return exceptionPDU(fc, 2)
		}
		data := pdu[6:]
		for i := 0; i < int(arg); i++ {
			s.coils[addr+uint16(i)] = data[i/8]&(1<<uint(i%8)) != 0
		}
		return append([]byte(nil), pdu[:5]...)
	case 16:
		if !inRange(arg) {
			return exceptionPDU(fc, 2)
		}
		data := pdu[6:]
		for i := 0; i < int(arg); i++ {
			s.registers[addr+uint16(i)] = binary.BigEndian.Uint16(data[2*i:])
		}
		return append([]byte(nil), pdu[:5]...)
	default:
		return exceptionPDU(fc, 1)
	}
}
