//go:build linux

package motor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// i2cSlave is the Linux I2C_SLAVE ioctl request number (linux/i2c-dev.h).
const i2cSlave = 0x0703

// LinuxI2CBus is the production I2CBus: a /dev/i2c-N character device
// driven through the standard Linux ioctl(I2C_SLAVE) + write() sequence,
// the same pattern used by every userspace I2C driver on Linux.
type LinuxI2CBus struct {
	fd          int
	currentAddr uint8
	hasAddr     bool
}

// OpenLinuxI2CBus opens the I2C character device at path (e.g. "/dev/i2c-1").
func OpenLinuxI2CBus(path string) (*LinuxI2CBus, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("motor: opening %s: %w", path, err)
	}
	return &LinuxI2CBus{fd: fd}, nil
}

// Close releases the underlying file descriptor.
func (b *LinuxI2CBus) Close() error {
	return unix.Close(b.fd)
}

// WriteReg selects addr via ioctl (skipped if already selected from the
// previous call) and writes reg followed by data as a single transaction.
func (b *LinuxI2CBus) WriteReg(addr uint8, reg uint8, data []byte) error {
	if !b.hasAddr || b.currentAddr != addr {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("motor: selecting address 0x%02x: %w", addr, err)
		}
		b.currentAddr = addr
		b.hasAddr = true
	}

	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, reg)
	buf = append(buf, data...)

	if _, err := unix.Write(b.fd, buf); err != nil {
		return fmt.Errorf("motor: writing register 0x%02x: %w", reg, err)
	}
	return nil
}
