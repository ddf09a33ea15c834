// Package io owns the GPIO lines around the PCA9685: the active-low output
// enable pin and an optional stop button.
package io

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/warthog618/go-gpiocdev"
)

type IO struct {
	mu    sync.Mutex
	chips map[string]*gpiocdev.Chip
	lines []*gpiocdev.Line
}

func New() *IO {
	return &IO{chips: make(map[string]*gpiocdev.Chip)}
}

func (io *IO) chip(name string) (*gpiocdev.Chip, error) {
	if c, ok := io.chips[name]; ok {
		return c, nil
	}
	c, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer("romiarm"))
	if err != nil {
		return nil, fmt.Errorf("io: open %s: %w", name, err)
	}
	io.chips[name] = c
	return c, nil
}

func (io *IO) requestLine(chip string, offset int, opts ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	io.mu.Lock()
	defer io.mu.Unlock()
	c, err := io.chip(chip)
	if err != nil {
		return nil, err
	}
	l, err := c.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("io: request %s line %d: %w", chip, offset, err)
	}
	io.lines = append(io.lines, l)
	return l, nil
}

// OutputEnable requests the OE line, driven high so the outputs start disabled.
func (io *IO) OutputEnable(chip string, offset int) (*OutputEnable, error) {
	l, err := io.requestLine(chip, offset, gpiocdev.AsOutput(1))
	if err != nil {
		return nil, err
	}
	return &OutputEnable{line: l}, nil
}

// Close returns every requested line to an input and closes the chips.
func (io *IO) Close() error {
	io.mu.Lock()
	defer io.mu.Unlock()
	var result error
	for _, l := range io.lines {
		_ = l.Reconfigure(gpiocdev.AsInput)
		if err := l.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	io.lines = nil
	for name, c := range io.chips {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("io: close %s: %w", name, err))
		}
		delete(io.chips, name)
	}
	return result
}

type outputLine interface {
	SetValue(value int) error
}

// OutputEnable drives the chip's OE pin. Low enables the outputs.
type OutputEnable struct {
	line outputLine
}

func (o *OutputEnable) Set(enabled bool) error {
	v := 1
	if enabled {
		v = 0
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("io: output enable=%t: %w", enabled, err)
	}
	return nil
}
