package bus

import "sync"

// Locked serializes every transaction on the wrapped transport.
type Locked struct {
	mu sync.Mutex
	t  Transport
}

func NewLocked(t Transport) *Locked {
	return &Locked{t: t}
}

func (l *Locked) ReadByte(addr uint16, reg byte) (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.ReadByte(addr, reg)
}

func (l *Locked) WriteByte(addr uint16, reg, value byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.WriteByte(addr, reg, value)
}

func (l *Locked) ReadWord(addr uint16, reg byte) (uint16, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.ReadWord(addr, reg)
}

func (l *Locked) SendByte(addr uint16, cmd byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.SendByte(addr, cmd)
}

func (l *Locked) ReceiveByte(addr uint16) (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.ReceiveByte(addr)
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.Close()
}
