//go:build !rp2040 && !rp2350

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"rangecode-go/x/nvm"
)

func TestResourcesCloseFlushesFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranger.nvm")
	f, err := nvm.OpenFile(path, 8)
	if err != nil {
		t.Fatal(err)
	}
	res := Resources{Storage: f}
	if err := f.StoreByte(3, 0x42); err != nil {
		t.Fatal(err)
	}
	if err := res.Close(); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 8 || raw[3] != 0x42 {
		t.Fatalf("file = % x", raw)
	}
	if err := f.StoreByte(3, 0); err == nil {
		t.Fatal("store still open after Close")
	}
}

func TestResourcesCloseWithoutCloser(t *testing.T) {
	if err := (Resources{Storage: nvm.NewMem(4)}).Close(); err != nil {
		t.Fatal(err)
	}
	if err := (Resources{}).Close(); err != nil {
		t.Fatal(err)
	}
}
