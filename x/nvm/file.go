//go:build !rp2040 && !rp2350

package nvm

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// File is a host-side ByteStore persisted in a regular file, used by the
// simulator so history survives restarts the way EEPROM does on hardware.
type File struct {
	f    *os.File
	size int64
}

// OpenFile opens or creates path with size cells. New or short files are
// padded with Erased.
func OpenFile(path string, size int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("nvm open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("nvm stat %s: %w", path, err)
	}
	if pad := int64(size) - st.Size(); pad > 0 {
		buf := make([]byte, pad)
		for i := range buf {
			buf[i] = Erased
		}
		if _, err := f.WriteAt(buf, st.Size()); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("nvm init %s: %w", path, err)
		}
	}
	return &File{f: f, size: int64(size)}, nil
}

func (s *File) LoadByte(addr uint16) (byte, error) {
	if int64(addr) >= s.size {
		return 0, ErrOutOfRange
	}
	var b [1]byte
	if _, err := s.f.ReadAt(b[:], int64(addr)); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("nvm read at %d: %w", addr, err)
	}
	return b[0], nil
}

func (s *File) StoreByte(addr uint16, v byte) error {
	if int64(addr) >= s.size {
		return ErrOutOfRange
	}
	if _, err := s.f.WriteAt([]byte{v}, int64(addr)); err != nil {
		return fmt.Errorf("nvm write at %d: %w", addr, err)
	}
	return nil
}

// Close flushes written cells to disk and releases the file.
func (s *File) Close() error {
	if err := s.f.Sync(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("nvm sync: %w", err)
	}
	return s.f.Close()
}
