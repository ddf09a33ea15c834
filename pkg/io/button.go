package io

import (
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const debounce = 10 * time.Millisecond

// Button is a pulled-up push button; pressing it pulls the line low.
type Button struct {
	Event chan ButtonEvent

	pressed bool
	since   time.Time
	now     func() time.Time
}

type ButtonEvent struct {
	Pressed bool
	// Held is how long the button stayed in the previous state.
	Held time.Duration
}

func newButton() *Button {
	return &Button{
		Event: make(chan ButtonEvent, 1),
		now:   time.Now,
	}
}

func (b *Button) eventHandler(evt gpiocdev.LineEvent) {
	pressed := evt.Type == gpiocdev.LineEventFallingEdge
	if pressed == b.pressed {
		return
	}
	now := b.now()
	held := now.Sub(b.since)
	if !b.since.IsZero() && held < debounce {
		return
	}
	b.pressed = pressed
	b.since = now
	select {
	case b.Event <- ButtonEvent{Pressed: pressed, Held: held}:
	default:
	}
}

// WatchButton requests the line with both edge detection and returns the
// button delivering its debounced state changes.
func (io *IO) WatchButton(chip string, offset int) (*Button, error) {
	b := newButton()
	_, err := io.requestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(b.eventHandler),
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}
