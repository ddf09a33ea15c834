package arm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Seann-Moser/romiarm/pkg/bus"
	"github.com/Seann-Moser/romiarm/pkg/pca9685"
)

type fakePWM struct {
	calls [][2]int
	err   error
}

func (f *fakePWM) SetPWM(ch int, ticks int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, [2]int{ch, ticks})
	return nil
}

func newDefault(t *testing.T) (*Arm, *fakePWM) {
	t.Helper()
	f := &fakePWM{}
	a, err := New(f, 3, DefaultMappings())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, f
}

func TestNew_LengthMismatch(t *testing.T) {
	if _, err := New(&fakePWM{}, 4, DefaultMappings()); !errors.Is(err, ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}

func TestNew_RejectsInvalidMapping(t *testing.T) {
	table := DefaultMappings()
	table[2].Transform.Intercept = 4000
	if _, err := New(&fakePWM{}, 3, table); !errors.Is(err, ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}

func TestNew_RejectsSharedChannel(t *testing.T) {
	table := DefaultMappings()
	table[2].Channel = 0
	if _, err := New(&fakePWM{}, 3, table); !errors.Is(err, ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}

func TestNew_NilDriver(t *testing.T) {
	if _, err := New(nil, 3, DefaultMappings()); !errors.Is(err, ErrConfig) {
		t.Fatalf("err=%v want ErrConfig", err)
	}
}

func TestNew_TableIsCopied(t *testing.T) {
	table := DefaultMappings()
	a, err := New(&fakePWM{}, 3, table)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table[0].Transform.Intercept = 4095
	if got := a.Mappings()[0].Transform.Intercept; got != 464 {
		t.Fatalf("intercept=%d after caller mutation want 464", got)
	}
}

func TestSetValue_Scenarios(t *testing.T) {
	a, f := newDefault(t)
	cases := []struct {
		ch, value int
		want      [2]int
	}{
		{0, 0, [2]int{0, 464}},
		{0, 255, [2]int{0, 96}},
		{1, 0, [2]int{1, 320}},
		{1, 255, [2]int{1, 192}},
		{2, 0, [2]int{2, 350}},
		{2, 255, [2]int{2, 450}},
	}
	for _, tc := range cases {
		f.calls = nil
		if err := a.SetValue(tc.ch, tc.value); err != nil {
			t.Fatalf("SetValue(%d,%d): %v", tc.ch, tc.value, err)
		}
		if len(f.calls) != 1 || f.calls[0] != tc.want {
			t.Fatalf("SetValue(%d,%d) calls=%v want %v", tc.ch, tc.value, f.calls, tc.want)
		}
	}
}

func TestSetValue_UnmappedChannelIsNoop(t *testing.T) {
	a, f := newDefault(t)
	for _, ch := range []int{-1, 3, 15, 100} {
		if err := a.SetValue(ch, 128); err != nil {
			t.Fatalf("SetValue(%d): %v", ch, err)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("calls=%v want none", f.calls)
	}
}

func TestSetValue_ValueOutOfRange(t *testing.T) {
	a, f := newDefault(t)
	for _, v := range []int{-1, 256} {
		if err := a.SetValue(0, v); !errors.Is(err, ErrValue) {
			t.Fatalf("SetValue(0,%d) err=%v want ErrValue", v, err)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("calls=%v want none", f.calls)
	}
}

func TestSetValue_PhysicalChannel(t *testing.T) {
	f := &fakePWM{}
	a, err := New(f, 1, []Mapping{{Name: "pan", Channel: 9, Transform: Transform{Intercept: 200, SlopeNum: 1, SlopeDen: 1}}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.SetValue(0, 10); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if len(f.calls) != 1 || f.calls[0] != [2]int{9, 210} {
		t.Fatalf("calls=%v want [[9 210]]", f.calls)
	}
}

func TestSetValue_PropagatesDriverError(t *testing.T) {
	a, f := newDefault(t)
	boom := errors.New("nack")
	f.err = boom
	if err := a.SetValue(1, 10); !errors.Is(err, boom) {
		t.Fatalf("err=%v want nack", err)
	}
}

func TestIOInterfaces(t *testing.T) {
	a, _ := newDefault(t)
	if got := a.IOInterfaces().NumPwmOutPorts; got != 3 {
		t.Fatalf("NumPwmOutPorts=%d want 3", got)
	}
}

func TestUpdate_Bookkeeping(t *testing.T) {
	a, f := newDefault(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a.Update(t0)
	if !a.LastUpdate().Equal(t0) {
		t.Fatalf("first update not recorded")
	}
	a.Update(t0.Add(200 * time.Millisecond))
	if !a.LastUpdate().Equal(t0) {
		t.Fatalf("update inside interval moved the timestamp")
	}
	t1 := t0.Add(600 * time.Millisecond)
	a.Update(t1)
	if !a.LastUpdate().Equal(t1) {
		t.Fatalf("update after interval not recorded")
	}
	if len(f.calls) != 0 {
		t.Fatalf("Update wrote to the chip")
	}
}

func TestArm_AgainstChip(t *testing.T) {
	sim := bus.NewSim()
	chip, err := pca9685.New(sim, pca9685.DefaultAddress)
	if err != nil {
		t.Fatalf("pca9685.New: %v", err)
	}
	a, err := New(chip, 3, DefaultMappings())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.SetValue(0, 0); !errors.Is(err, pca9685.ErrNotReady) {
		t.Fatalf("err=%v want ErrNotReady", err)
	}
	if err := chip.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	sim.Reset()

	if err := a.SetValue(0, 0); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	w := sim.Writes()
	if len(w) != 2 {
		t.Fatalf("writes=%v want 2", w)
	}
	// 464 = 0x01D0
	if w[0].Reg != 0x08 || w[0].Value != 0xD0 || w[1].Reg != 0x09 || w[1].Value != 0x01 {
		t.Fatalf("writes=%+v", w)
	}

	sim.Reset()
	_ = a.SetValue(7, 100)
	if len(sim.Ops()) != 0 {
		t.Fatalf("unmapped channel touched the bus: %v", sim.Ops())
	}
}
