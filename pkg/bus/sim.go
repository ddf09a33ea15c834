package bus

import (
	"fmt"
	"sync"
)

type OpKind int

const (
	OpReadByte OpKind = iota
	OpWriteByte
	OpReadWord
	OpSendByte
	OpReceiveByte
)

func (k OpKind) String() string {
	switch k {
	case OpReadByte:
		return "readByte"
	case OpWriteByte:
		return "writeByte"
	case OpReadWord:
		return "readWord"
	case OpSendByte:
		return "sendByte"
	case OpReceiveByte:
		return "receiveByte"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one recorded transaction.
type Op struct {
	Kind  OpKind
	Addr  uint16
	Reg   byte
	Value byte
}

// Sim is an in-memory register file. It backs dry runs of the CLI and the
// package tests. Every transaction is appended to the op log.
type Sim struct {
	mu     sync.Mutex
	regs   map[uint16]*[256]byte
	ops    []Op
	ptr    map[uint16]byte
	fail   map[byte]error
	closed bool
}

func NewSim() *Sim {
	return &Sim{
		regs: make(map[uint16]*[256]byte),
		ptr:  make(map[uint16]byte),
		fail: make(map[byte]error),
	}
}

// FailOn makes every later transaction touching reg return err. A nil err clears it.
func (s *Sim) FailOn(reg byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, reg)
		return
	}
	s.fail[reg] = err
}

// Reg returns the current value of a register.
func (s *Sim) Reg(addr uint16, reg byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file(addr)[reg]
}

// Ops returns a copy of the op log.
func (s *Sim) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// Writes returns only the register writes of the op log.
func (s *Sim) Writes() []Op {
	var out []Op
	for _, op := range s.Ops() {
		if op.Kind == OpWriteByte {
			out = append(out, op)
		}
	}
	return out
}

func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Sim) file(addr uint16) *[256]byte {
	f, ok := s.regs[addr]
	if !ok {
		f = new([256]byte)
		s.regs[addr] = f
	}
	return f
}

func (s *Sim) check(addr uint16, reg byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if s.closed {
		return fmt.Errorf("bus: sim closed")
	}
	return s.fail[reg]
}

func (s *Sim) ReadByte(addr uint16, reg byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(addr, reg); err != nil {
		return 0, err
	}
	v := s.file(addr)[reg]
	s.ops = append(s.ops, Op{Kind: OpReadByte, Addr: addr, Reg: reg, Value: v})
	return v, nil
}

func (s *Sim) WriteByte(addr uint16, reg, value byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(addr, reg); err != nil {
		return err
	}
	s.file(addr)[reg] = value
	s.ops = append(s.ops, Op{Kind: OpWriteByte, Addr: addr, Reg: reg, Value: value})
	return nil
}

// ReadWord reads reg and reg+1 little endian, the SMBus word order.
func (s *Sim) ReadWord(addr uint16, reg byte) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(addr, reg); err != nil {
		return 0, err
	}
	f := s.file(addr)
	w := uint16(f[reg]) | uint16(f[reg+1])<<8
	s.ops = append(s.ops, Op{Kind: OpReadWord, Addr: addr, Reg: reg})
	return w, nil
}

// SendByte sets the register pointer used by ReceiveByte.
func (s *Sim) SendByte(addr uint16, cmd byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(addr, cmd); err != nil {
		return err
	}
	s.ptr[addr] = cmd
	s.ops = append(s.ops, Op{Kind: OpSendByte, Addr: addr, Value: cmd})
	return nil
}

func (s *Sim) ReceiveByte(addr uint16) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := s.ptr[addr]
	if err := s.check(addr, reg); err != nil {
		return 0, err
	}
	v := s.file(addr)[reg]
	s.ops = append(s.ops, Op{Kind: OpReceiveByte, Addr: addr, Reg: reg, Value: v})
	return v, nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
