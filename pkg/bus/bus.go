// Package bus holds the byte-oriented I2C transports the PCA9685 driver talks through.
package bus

import (
	"errors"
	"fmt"
)

// Transport is an SMBus style register transport addressed by a 7-bit slave address.
// Implementations are not required to be safe for concurrent use; wrap them
// with NewLocked when several goroutines share one bus.
type Transport interface {
	ReadByte(addr uint16, reg byte) (byte, error)
	WriteByte(addr uint16, reg, value byte) error
	ReadWord(addr uint16, reg byte) (uint16, error)
	SendByte(addr uint16, cmd byte) error
	ReceiveByte(addr uint16) (byte, error)
	Close() error
}

var ErrAddress = errors.New("bus: invalid i2c address")

func checkAddr(addr uint16) error {
	if addr == 0 || addr > 0x7F {
		return fmt.Errorf("%w 0x%X", ErrAddress, addr)
	}
	return nil
}
