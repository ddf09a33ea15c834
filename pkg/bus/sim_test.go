package bus

import (
	"errors"
	"testing"
)

func TestSim_WriteThenRead(t *testing.T) {
	s := NewSim()
	if err := s.WriteByte(0x40, 0x08, 0x34); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if err := s.WriteByte(0x40, 0x09, 0x01); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	v, err := s.ReadByte(0x40, 0x08)
	if err != nil || v != 0x34 {
		t.Fatalf("ReadByte=%#x err=%v want 0x34", v, err)
	}
	w, err := s.ReadWord(0x40, 0x08)
	if err != nil || w != 0x0134 {
		t.Fatalf("ReadWord=%#x err=%v want 0x0134", w, err)
	}
	if got := len(s.Writes()); got != 2 {
		t.Fatalf("writes=%d want 2", got)
	}
	if got := len(s.Ops()); got != 4 {
		t.Fatalf("ops=%d want 4", got)
	}
}

func TestSim_SendReceiveUsesPointer(t *testing.T) {
	s := NewSim()
	_ = s.WriteByte(0x40, 0xFE, 0x79)
	if err := s.SendByte(0x40, 0xFE); err != nil {
		t.Fatalf("SendByte: %v", err)
	}
	v, err := s.ReceiveByte(0x40)
	if err != nil || v != 0x79 {
		t.Fatalf("ReceiveByte=%#x err=%v want 0x79", v, err)
	}
}

func TestSim_AddressesAreIndependent(t *testing.T) {
	s := NewSim()
	_ = s.WriteByte(0x40, 0x00, 0x11)
	_ = s.WriteByte(0x41, 0x00, 0x22)
	if s.Reg(0x40, 0x00) != 0x11 || s.Reg(0x41, 0x00) != 0x22 {
		t.Fatalf("register files overlap")
	}
}

func TestSim_InvalidAddress(t *testing.T) {
	s := NewSim()
	for _, addr := range []uint16{0, 0x80} {
		if err := s.WriteByte(addr, 0, 0); !errors.Is(err, ErrAddress) {
			t.Fatalf("addr=%#x err=%v want ErrAddress", addr, err)
		}
	}
}

func TestSim_FailOn(t *testing.T) {
	s := NewSim()
	boom := errors.New("nack")
	s.FailOn(0x08, boom)
	if err := s.WriteByte(0x40, 0x08, 1); !errors.Is(err, boom) {
		t.Fatalf("err=%v want nack", err)
	}
	if len(s.Ops()) != 0 {
		t.Fatalf("failed op was recorded")
	}
	s.FailOn(0x08, nil)
	if err := s.WriteByte(0x40, 0x08, 1); err != nil {
		t.Fatalf("err=%v after clearing failure", err)
	}
}

func TestSim_ClosedRejects(t *testing.T) {
	s := NewSim()
	_ = s.Close()
	if !s.Closed() {
		t.Fatalf("Closed()=false")
	}
	if _, err := s.ReadByte(0x40, 0); err == nil {
		t.Fatalf("expected error after close")
	}
}
