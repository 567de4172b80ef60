package sonar

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rangecode-go/x/nvm"
)

func TestStoreRoundTripWithinOneStep(t *testing.T) {
	for v := float32(2); v <= 450; v += 3.7 {
		mem := nvm.NewMem(1 + DefaultStoreSize)
		st := NewStore(mem, 0, DefaultStoreSize, DefaultScaleFactor)
		if err := st.Write(v); err != nil {
			t.Fatal(err)
		}
		got := make([]float32, 1)
		if err := NewStore(mem, 0, DefaultStoreSize, DefaultScaleFactor).Load(got); err != nil {
			t.Fatal(err)
		}
		if !near(got[0], v, 1.0) {
			t.Fatalf("wrote %v loaded %v", v, got[0])
		}
	}
}

func TestStoreHeadWrapsModuloSize(t *testing.T) {
	const size = 250
	mem := nvm.NewMem(1 + size + 4)
	st := NewStore(mem, 4, size, 2)
	for i := 0; i < 260; i++ {
		if err := st.Write(float32(2 * (i % 200))); err != nil {
			t.Fatal(err)
		}
	}
	if st.Head() != 10 {
		t.Fatalf("head=%d want 10", st.Head())
	}
	if b, _ := mem.LoadByte(4); b != 10 {
		t.Fatalf("persisted head=%d", b)
	}
	// Writes are spread: no slot has been programmed more than twice.
	for a := uint16(5); a < 5+size; a++ {
		if mem.Writes(a) > 2 {
			t.Fatalf("slot %d written %d times", a-5, mem.Writes(a))
		}
	}

	got := make([]float32, 4)
	if err := NewStore(mem, 4, size, 2).Load(got); err != nil {
		t.Fatal(err)
	}
	// i = 256..259 -> i%200 = 56..59
	want := []float32{112, 114, 116, 118}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("load (-want +got):\n%s", diff)
	}
}

func TestStoreLoadReadsBackwardAcrossSlotZero(t *testing.T) {
	mem := nvm.NewMem(1 + 10)
	_ = mem.StoreByte(0, 2) // head at slot 2
	for slot, raw := range []byte{30, 31, 0, 0, 0, 0, 0, 0, 28, 29} {
		_ = mem.StoreByte(uint16(1+slot), raw)
	}
	got := make([]float32, 4)
	if err := NewStore(mem, 0, 10, 1).Load(got); err != nil {
		t.Fatal(err)
	}
	want := []float32{28, 29, 30, 31}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("load (-want +got):\n%s", diff)
	}
}

func TestStoreCorruptHeadResets(t *testing.T) {
	mem := nvm.NewMem(1 + DefaultStoreSize) // erased: head reads 0xFF
	st := NewStore(mem, 0, DefaultStoreSize, DefaultScaleFactor)
	if err := st.Load(make([]float32, 8)); err != nil {
		t.Fatal(err)
	}
	if st.Head() != 0 {
		t.Fatalf("head=%d", st.Head())
	}
	if err := st.Write(20); err != nil {
		t.Fatal(err)
	}
	if b, _ := mem.LoadByte(1); b != 10 {
		t.Fatalf("slot 0=%d want 10", b)
	}
}

func TestStoreQuantizeSaturates(t *testing.T) {
	mem := nvm.NewMem(3)
	st := NewStore(mem, 0, 2, 1)
	if err := st.Write(300); err != nil {
		t.Fatal(err)
	}
	if b, _ := mem.LoadByte(1); b != 255 {
		t.Fatalf("raw=%d", b)
	}
}

type flakyStorage struct {
	*nvm.Mem
	failAt uint16
}

func (f flakyStorage) LoadByte(addr uint16) (byte, error) {
	if addr == f.failAt {
		return 0, errBroken
	}
	return f.Mem.LoadByte(addr)
}

func TestStoreLoadKeepsGoingPastErrors(t *testing.T) {
	mem := nvm.NewMem(1 + 4)
	_ = mem.StoreByte(0, 0)
	for slot := 0; slot < 4; slot++ {
		_ = mem.StoreByte(uint16(1+slot), byte(slot+1))
	}
	st := NewStore(flakyStorage{Mem: mem, failAt: 3}, 0, 4, 1)
	got := make([]float32, 4)
	if err := st.Load(got); !errors.Is(err, errBroken) {
		t.Fatalf("err=%v", err)
	}
	want := []float32{1, 2, 0, 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("load (-want +got):\n%s", diff)
	}
}
